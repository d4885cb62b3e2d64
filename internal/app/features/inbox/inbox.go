// internal/app/features/inbox/inbox.go
package inbox

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/campusevents/internal/app/features/shared/invites"
	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	inboxstore "github.com/dalemusser/campusevents/internal/app/store/inbox"
	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/metrics"
	"github.com/dalemusser/campusevents/internal/app/system/paging"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type respondInput struct {
	Decision string `json:"decision" label:"Decision" validate:"required,oneof=accept reject"`
}

// List handles GET /inbox?status=, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	pg := paging.Parse(r)

	status := query.Get(r, "status")
	switch status {
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		h.ErrLog.BadRequest(w, "status must be Pending, Approved, or Rejected.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Inbox.ListForUser(ctx, uid, status, pg.FetchLimit(), pg.Skip())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list inbox failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusOK, paging.Trim(items, pg))
}

// Respond handles POST /inbox/{id}/respond. Only the recipient may answer,
// and only while the item is Pending.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	id, ok := h.ErrLog.PathID(w, r, "id")
	if !ok {
		return
	}
	var in respondInput
	if !h.ErrLog.DecodeValid(w, r, &in) {
		return
	}
	accept := in.Decision == "accept"

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	item, err := h.Inbox.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.NotFound(w, "Inbox item not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load inbox item failed", err, "")
		return
	}
	if item.ToUserID != uid {
		h.ErrLog.Forbidden(w, "This request is not addressed to you.")
		return
	}
	if item.Status != models.StatusPending {
		h.ErrLog.BadRequest(w, "This request has already been answered.")
		return
	}

	switch item.Kind {
	case models.InboxTeamInvite:
		ok = h.respondTeamInvite(ctx, w, r, item, accept)
	case models.InboxSubEvent, models.InboxSponsorship:
		ok = h.respondEventRequest(ctx, w, r, item, accept)
	default:
		h.ErrLog.LogServerError(w, r, "unknown inbox kind", errors.New(item.Kind), "")
		return
	}
	if !ok {
		return
	}

	h.Audit.InviteResponded(ctx, r, uid, item.ID, item.Kind, in.Decision)

	updated, err := h.Inbox.GetByID(ctx, item.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload inbox item failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

// respondTeamInvite answers through the invites service, which updates the
// member entry and resolves the item.
func (h *Handler) respondTeamInvite(ctx context.Context, w http.ResponseWriter, r *http.Request, item models.InboxItem, accept bool) bool {
	teamID := item.SubjectID
	if item.TeamID != nil {
		teamID = *item.TeamID
	}
	err := h.Invites.Respond(ctx, r, teamID, item.ToUserID, accept)
	switch {
	case err == nil:
		return true
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, invites.ErrNotInvited):
		// team or membership is gone; close the item so it stops showing
		h.resolveQuietly(ctx, item, models.StatusRejected)
		h.ErrLog.NotFound(w, "This invitation is no longer valid.")
	case errors.Is(err, invites.ErrAlreadyAnswered):
		h.ErrLog.BadRequest(w, "This invitation has already been answered.")
	default:
		h.ErrLog.LogServerError(w, r, "respond to team invite failed", err, "")
	}
	return false
}

// respondEventRequest handles sub_event and sponsorship items. The item is
// resolved first so two concurrent accepts apply the change once.
func (h *Handler) respondEventRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, item models.InboxItem, accept bool) bool {
	decision, status := "reject", models.StatusRejected
	if accept {
		decision, status = "accept", models.StatusApproved
		if !h.targetsExist(ctx, w, r, item) {
			return false
		}
		if item.Kind == models.InboxSubEvent && !h.linkable(ctx, w, r, item) {
			return false
		}
	}

	if err := h.Inbox.Resolve(ctx, item.ID, status); err != nil {
		if errors.Is(err, inboxstore.ErrNotPending) {
			h.ErrLog.BadRequest(w, "This request has already been answered.")
			return false
		}
		h.ErrLog.LogServerError(w, r, "resolve inbox item failed", err, "")
		return false
	}

	if accept {
		var err error
		switch item.Kind {
		case models.InboxSubEvent:
			err = h.Events.SetParent(ctx, *item.ChildEventID, *item.EventID)
		case models.InboxSponsorship:
			err = h.Events.AddSponsor(ctx, *item.EventID, item.FromUserID)
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "apply accepted request failed", err, "")
			return false
		}
	}

	metrics.InboxResponses.WithLabelValues(item.Kind, decision).Inc()
	return true
}

// linkable rejects a sub-event request whose child has since become an
// ancestor of the parent. The item is closed as Rejected in that case.
func (h *Handler) linkable(ctx context.Context, w http.ResponseWriter, r *http.Request, item models.InboxItem) bool {
	cycle, err := h.Events.HasAncestor(ctx, *item.EventID, *item.ChildEventID)
	switch {
	case err == nil && !cycle:
		return true
	case err == nil, errors.Is(err, eventstore.ErrNestingTooDeep):
		h.resolveQuietly(ctx, item, models.StatusRejected)
		h.ErrLog.BadRequest(w, "Linking these events would form a loop or nest them too deeply.")
	default:
		h.ErrLog.LogServerError(w, r, "walk parent events failed", err, "")
	}
	return false
}

// targetsExist checks the events an accepted request would change are still
// there. A missing one closes the item and responds 404.
func (h *Handler) targetsExist(ctx context.Context, w http.ResponseWriter, r *http.Request, item models.InboxItem) bool {
	ids := []*primitive.ObjectID{item.EventID}
	if item.Kind == models.InboxSubEvent {
		ids = append(ids, item.ChildEventID)
	}
	for _, id := range ids {
		var err error
		if id == nil {
			err = mongo.ErrNoDocuments
		} else {
			_, err = h.Events.GetByID(ctx, *id)
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.resolveQuietly(ctx, item, models.StatusRejected)
			h.ErrLog.NotFound(w, "The event for this request no longer exists.")
			return false
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load request event failed", err, "")
			return false
		}
	}
	return true
}

func (h *Handler) resolveQuietly(ctx context.Context, item models.InboxItem, status string) {
	if err := h.Inbox.Resolve(ctx, item.ID, status); err != nil && !errors.Is(err, inboxstore.ErrNotPending) {
		h.Log.Warn("close stale inbox item failed", zap.String("item_id", item.ID.Hex()), zap.Error(err))
	}
}
