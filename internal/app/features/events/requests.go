// internal/app/features/events/requests.go
package events

import (
	"context"
	"errors"
	"net/http"

	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	inboxstore "github.com/dalemusser/campusevents/internal/app/store/inbox"
	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type subEventInput struct {
	ChildEventID string `json:"child_event_id" label:"Child event" validate:"required,objectid"`
	Message      string `json:"message" label:"Message" validate:"max=1000"`
}

type sponsorshipInput struct {
	Message string `json:"message" label:"Message" validate:"max=1000"`
}

// subEventResponse reports whether the child was linked at once (the caller
// organizes both events) or a request went to the child's organizer.
type subEventResponse struct {
	Linked  bool              `json:"linked"`
	Event   *models.Event     `json:"event,omitempty"`
	Request *models.InboxItem `json:"request,omitempty"`
}

// RequestSubEvent handles POST /events/{id}/sub-events.
func (h *Handler) RequestSubEvent(w http.ResponseWriter, r *http.Request) {
	role, _, uid, _ := authz.UserCtx(r)

	parentID, ok := h.ErrLog.PathID(w, r, "id")
	if !ok {
		return
	}
	var in subEventInput
	if !h.ErrLog.DecodeValid(w, r, &in) {
		return
	}
	childID, _ := primitive.ObjectIDFromHex(in.ChildEventID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	parent, err := h.Events.GetByID(ctx, parentID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.NotFound(w, "Event not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load parent event failed", err, "")
		return
	}
	if parent.OrganizerID != uid && role != models.RoleAdmin {
		h.ErrLog.Forbidden(w, "Only the organizer can add sub-events.")
		return
	}
	if childID == parentID {
		h.ErrLog.BadRequest(w, "An event cannot be its own sub-event.")
		return
	}

	child, err := h.Events.GetByID(ctx, childID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.BadRequest(w, "Child event not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load child event failed", err, "")
		return
	}
	if child.ParentEventID != nil && *child.ParentEventID == parentID {
		h.ErrLog.Conflict(w, "That event is already a sub-event of this event.")
		return
	}
	cycle, err := h.Events.HasAncestor(ctx, parentID, childID)
	if errors.Is(err, eventstore.ErrNestingTooDeep) {
		h.ErrLog.BadRequest(w, "Sub-events cannot be nested that deeply.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "walk parent events failed", err, "")
		return
	}
	if cycle {
		h.ErrLog.BadRequest(w, "That event is already above this one; linking it would form a loop.")
		return
	}

	if child.OrganizerID == uid {
		if err := h.Events.SetParent(ctx, childID, parentID); err != nil {
			h.ErrLog.LogServerError(w, r, "link sub-event failed", err, "")
			return
		}
		child.ParentEventID = &parentID
		h.Audit.SubEventRequested(ctx, r, uid, parentID, childID)
		httpjson.Write(w, http.StatusOK, subEventResponse{Linked: true, Event: &child})
		return
	}

	item, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind:         models.InboxSubEvent,
		FromUserID:   uid,
		ToUserID:     child.OrganizerID,
		SubjectID:    childID,
		EventID:      &parentID,
		ChildEventID: &childID,
		Message:      htmlsanitize.StripTags(in.Message),
	})
	if errors.Is(err, inboxstore.ErrDuplicateInvite) {
		h.ErrLog.Conflict(w, "A sub-event request for that event is already pending.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create sub-event request failed", err, "")
		return
	}

	h.Audit.SubEventRequested(ctx, r, uid, parentID, childID)
	httpjson.Write(w, http.StatusCreated, subEventResponse{Request: &item})
}

// RequestSponsorship handles POST /events/{id}/sponsorship-requests (sponsors only).
func (h *Handler) RequestSponsorship(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	eventID, ok := h.ErrLog.PathID(w, r, "id")
	if !ok {
		return
	}
	var in sponsorshipInput
	if !h.ErrLog.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, err := h.Events.GetByID(ctx, eventID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.NotFound(w, "Event not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load event failed", err, "")
		return
	}
	if ev.Status != models.EventPublished {
		h.ErrLog.BadRequest(w, "Only published events accept sponsors.")
		return
	}
	if ev.HasSponsor(uid) {
		h.ErrLog.Conflict(w, "You already sponsor this event.")
		return
	}

	item, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind:       models.InboxSponsorship,
		FromUserID: uid,
		ToUserID:   ev.OrganizerID,
		SubjectID:  ev.ID,
		EventID:    &ev.ID,
		Message:    htmlsanitize.StripTags(in.Message),
	})
	if errors.Is(err, inboxstore.ErrDuplicateInvite) {
		h.ErrLog.Conflict(w, "You already have a pending sponsorship request for this event.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create sponsorship request failed", err, "")
		return
	}

	h.Audit.SponsorshipRequested(ctx, r, uid, ev.ID, uid)
	httpjson.Write(w, http.StatusCreated, item)
}
