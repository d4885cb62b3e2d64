// internal/app/features/teams/teams.go
package teams

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/campusevents/internal/app/features/shared/invites"
	"github.com/dalemusser/campusevents/internal/app/policy/teampolicy"
	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/inputval"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type memberInput struct {
	UserID string `json:"user_id" label:"User" validate:"required,objectid"`
	Role   string `json:"role" label:"Role" validate:"required,memberrole"`
}

type createInput struct {
	Name    string        `json:"name" label:"Name" validate:"required,max=100"`
	EventID string        `json:"event_id" label:"Event" validate:"objectid"`
	Members []memberInput `json:"members" label:"Members" validate:"max=200,dive"`
}

type updateInput struct {
	Name    *string        `json:"name" label:"Name" validate:"omitnil,max=100"`
	Members *[]memberInput `json:"members"`
}

type memberList struct {
	Members []memberInput `json:"members" label:"Members" validate:"max=200,dive"`
}

func toSpecs(in []memberInput) []invites.MemberSpec {
	out := make([]invites.MemberSpec, 0, len(in))
	for _, m := range in {
		id, _ := primitive.ObjectIDFromHex(m.UserID)
		out = append(out, invites.MemberSpec{UserID: id, Role: m.Role})
	}
	return out
}

// Create handles POST /teams. The caller becomes leader and every listed
// member starts Pending with an inbox invitation.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	role, _, uid, _ := authz.UserCtx(r)

	var in createInput
	if !h.ErrLog.Decode(w, r, &in) {
		return
	}
	in.Name = htmlsanitize.StripTags(in.Name)
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Invalid(w, res)
		return
	}
	specs := toSpecs(in.Members)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Invites.ValidateMembers(ctx, uid, specs); err != nil {
		h.writeMemberErr(w, r, "validate team members failed", err)
		return
	}

	var eventID *primitive.ObjectID
	if in.EventID != "" {
		id, _ := primitive.ObjectIDFromHex(in.EventID)
		ev, err := h.Events.GetByID(ctx, id)
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.NotFound(w, "Event not found.")
			return
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load team event failed", err, "")
			return
		}
		if ev.OrganizerID != uid && role != models.RoleAdmin {
			h.ErrLog.Forbidden(w, "You can only attach a team to an event you organize.")
			return
		}
		if ev.TeamID != nil {
			h.ErrLog.Conflict(w, "That event already has a team.")
			return
		}
		eventID = &ev.ID
	}

	team, err := h.Teams.Create(ctx, models.OrganizerTeam{
		Name:     in.Name,
		LeaderID: uid,
		EventID:  eventID,
		Members:  invites.NewMembers(specs, time.Now().UTC()),
	})
	if err != nil {
		h.writeMemberErr(w, r, "create team failed", err)
		return
	}

	if eventID != nil {
		if err := h.Events.ClaimTeam(ctx, *eventID, team.ID); err != nil {
			// No invites have gone out yet, so dropping the team undoes the create.
			if _, derr := h.Teams.Delete(ctx, team.ID); derr != nil {
				h.Log.Warn("remove unlinked team failed", zap.String("team_id", team.ID.Hex()), zap.Error(derr))
			}
			switch {
			case errors.Is(err, eventstore.ErrTeamTaken):
				h.ErrLog.Conflict(w, "That event already has a team.")
			case errors.Is(err, mongo.ErrNoDocuments):
				h.ErrLog.NotFound(w, "Event not found.")
			default:
				h.ErrLog.LogServerError(w, r, "link team to event failed", err, "")
			}
			return
		}
	}
	if err := h.Invites.SendInvites(ctx, r, team, uid, team.Members); err != nil {
		h.ErrLog.LogServerError(w, r, "send team invites failed", err, "")
		return
	}

	h.Audit.TeamCreated(ctx, r, uid, team.ID, team.Name)
	httpjson.Write(w, http.StatusCreated, team)
}

// List handles GET /teams: teams the caller leads or appears in.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	teams, err := h.Teams.ListForUser(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list teams failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusOK, teams)
}

// Show handles GET /teams/{teamId}.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, ok := h.loadTeam(ctx, w, r)
	if !ok {
		return
	}
	if !teampolicy.CanView(r, team) {
		h.ErrLog.Forbidden(w, "You are not on this team.")
		return
	}
	httpjson.Write(w, http.StatusOK, team)
}

// Update handles PATCH /teams/{teamId}. members, when sent, is the full
// desired list.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in updateInput
	if !h.ErrLog.Decode(w, r, &in) {
		return
	}
	if in.Name != nil {
		name := htmlsanitize.StripTags(*in.Name)
		if name == "" {
			h.ErrLog.BadRequest(w, "Name is required.")
			return
		}
		in.Name = &name
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Invalid(w, res)
		return
	}
	if in.Members != nil {
		if res := inputval.Validate(memberList{Members: *in.Members}); res.HasErrors() {
			h.ErrLog.Invalid(w, res)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	team, ok := h.loadTeam(ctx, w, r)
	if !ok {
		return
	}
	if !teampolicy.CanManage(r, team) {
		h.ErrLog.Forbidden(w, "Only the team leader can change the team.")
		return
	}

	if in.Members != nil {
		specs := toSpecs(*in.Members)
		if err := h.Invites.ValidateMembers(ctx, team.LeaderID, specs); err != nil {
			h.writeMemberErr(w, r, "validate team members failed", err)
			return
		}
	}
	if in.Name != nil && *in.Name != team.Name {
		if err := h.Teams.Rename(ctx, team.ID, *in.Name); err != nil {
			h.writeMemberErr(w, r, "rename team failed", err)
			return
		}
		h.Audit.TeamUpdated(ctx, r, uid, team.ID, "renamed")
	}
	if in.Members != nil {
		if _, err := h.Invites.Replace(ctx, r, team, uid, toSpecs(*in.Members)); err != nil {
			h.writeMemberErr(w, r, "replace team members failed", err)
			return
		}
		h.Audit.TeamUpdated(ctx, r, uid, team.ID, "members")
	}

	updated, err := h.Teams.GetByID(ctx, team.ID)
	if err != nil {
		h.writeMemberErr(w, r, "reload team failed", err)
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

// Delete handles DELETE /teams/{teamId}. Pending invitations go with the team
// and the linked event loses its team link.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	team, ok := h.loadTeam(ctx, w, r)
	if !ok {
		return
	}
	if !teampolicy.CanManage(r, team) {
		h.ErrLog.Forbidden(w, "Only the team leader can delete the team.")
		return
	}

	if _, err := h.Teams.Delete(ctx, team.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete team failed", err, "")
		return
	}
	if _, err := h.Inbox.DeletePendingReferencing(ctx, team.ID); err != nil {
		h.Log.Warn("delete team invites failed", zap.String("team_id", team.ID.Hex()), zap.Error(err))
	}
	if _, err := h.Events.ClearTeam(ctx, team.ID); err != nil {
		h.Log.Warn("clear event team link failed", zap.String("team_id", team.ID.Hex()), zap.Error(err))
	}

	h.Audit.TeamDeleted(ctx, r, uid, team.ID)
	w.WriteHeader(http.StatusNoContent)
}
