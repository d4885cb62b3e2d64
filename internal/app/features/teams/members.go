// internal/app/features/teams/members.go
package teams

import (
	"context"
	"net/http"

	"github.com/dalemusser/campusevents/internal/app/policy/teampolicy"
	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type inviteInput struct {
	UserID string `json:"user_id" label:"User" validate:"required,objectid"`
	Role   string `json:"role" label:"Role" validate:"required,memberrole"`
}

type respondInput struct {
	Decision string `json:"decision" label:"Decision" validate:"required,oneof=accept reject"`
}

// Invite handles POST /teams/{teamId}/invite. A user who rejected earlier
// may be invited again.
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in inviteInput
	if !h.ErrLog.DecodeValid(w, r, &in) {
		return
	}
	userID, _ := primitive.ObjectIDFromHex(in.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, ok := h.loadTeam(ctx, w, r)
	if !ok {
		return
	}
	if !teampolicy.CanManage(r, team) {
		h.ErrLog.Forbidden(w, "Only the team leader can invite members.")
		return
	}
	if err := h.Invites.Invite(ctx, r, team, uid, userID, in.Role); err != nil {
		h.writeMemberErr(w, r, "invite team member failed", err)
		return
	}

	updated, err := h.Teams.GetByID(ctx, team.ID)
	if err != nil {
		h.writeMemberErr(w, r, "reload team failed", err)
		return
	}
	httpjson.Write(w, http.StatusCreated, updated)
}

// Respond handles POST /teams/{teamId}/respond for the caller's own
// pending invitation.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	teamID, ok := h.ErrLog.PathID(w, r, "teamId")
	if !ok {
		return
	}
	var in respondInput
	if !h.ErrLog.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Invites.Respond(ctx, r, teamID, uid, in.Decision == "accept"); err != nil {
		h.writeMemberErr(w, r, "respond to team invite failed", err)
		return
	}
	h.Audit.InviteResponded(ctx, r, uid, teamID, models.InboxTeamInvite, in.Decision)

	team, err := h.Teams.GetByID(ctx, teamID)
	if err != nil {
		h.writeMemberErr(w, r, "reload team failed", err)
		return
	}
	httpjson.Write(w, http.StatusOK, team)
}

// RemoveMember handles DELETE /teams/{teamId}/members/{userId}. The leader and
// admins may remove anyone but the leader; a member may remove themself.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, ok := h.loadTeam(ctx, w, r)
	if !ok {
		return
	}
	userID, ok := h.ErrLog.PathID(w, r, "userId")
	if !ok {
		return
	}
	if userID != uid && !teampolicy.CanManage(r, team) {
		h.ErrLog.Forbidden(w, "Only the team leader can remove members.")
		return
	}
	if err := h.Invites.Remove(ctx, team, userID); err != nil {
		h.writeMemberErr(w, r, "remove team member failed", err)
		return
	}

	h.Audit.MemberRemoved(ctx, r, uid, team.ID, userID)
	w.WriteHeader(http.StatusNoContent)
}
