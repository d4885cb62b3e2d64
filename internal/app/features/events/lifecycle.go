// internal/app/features/events/lifecycle.go
package events

import (
	"context"
	"errors"
	"net/http"

	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/metrics"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Publish handles POST /events/{id}/publish.
//
//	404 missing event
//	403 caller may not publish
//	400 not a draft, or no start/end time
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, access, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if !access.Publish {
		h.ErrLog.Forbidden(w, "You do not have permission to publish this event.")
		return
	}
	if ev.Status != models.EventDraft {
		h.ErrLog.BadRequest(w, "Only draft events can be published.")
		return
	}
	if ev.StartsAt == nil || ev.EndsAt == nil {
		h.ErrLog.BadRequest(w, "Set a start and end time before publishing.")
		return
	}

	now := h.now().UTC()
	if !h.transition(ctx, w, r, h.Events.Publish(ctx, ev.ID, now), "Only draft events can be published.") {
		return
	}
	ev.Status = models.EventPublished
	ev.PublishedAt = &now

	_, _, uid, _ := authz.UserCtx(r)
	metrics.EventTransitions.WithLabelValues(models.EventPublished, "api").Inc()
	h.Feed.Invalidate(ctx)
	h.Audit.EventPublished(ctx, r, uid, ev.ID)
	h.Notifier.Published(ctx, ev.ID.Hex())

	httpjson.Write(w, http.StatusOK, eventView{Event: ev, Access: access})
}

// Complete handles POST /events/{id}/complete. Same rules as Publish, but the
// event must be published.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, access, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if !access.Publish {
		h.ErrLog.Forbidden(w, "You do not have permission to complete this event.")
		return
	}
	if ev.Status != models.EventPublished {
		h.ErrLog.BadRequest(w, "Only published events can be completed.")
		return
	}

	now := h.now().UTC()
	if !h.transition(ctx, w, r, h.Events.Complete(ctx, ev.ID, now), "Only published events can be completed.") {
		return
	}
	ev.Status = models.EventCompleted
	ev.CompletedAt = &now

	_, _, uid, _ := authz.UserCtx(r)
	metrics.EventTransitions.WithLabelValues(models.EventCompleted, "api").Inc()
	h.Feed.Invalidate(ctx)
	h.Audit.EventCompleted(ctx, r, &uid, ev.ID, "api")
	h.Notifier.Withdrawn(ctx, ev.ID.Hex())

	httpjson.Write(w, http.StatusOK, eventView{Event: ev, Access: access})
}

// transition maps the result of a conditional status update. A lost race
// reads as the same 400 the pre-check would have given.
func (h *Handler) transition(ctx context.Context, w http.ResponseWriter, r *http.Request, err error, conflictMsg string) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.NotFound(w, "Event not found.")
	case errors.Is(err, eventstore.ErrStatusConflict):
		h.ErrLog.BadRequest(w, conflictMsg)
	default:
		h.ErrLog.LogServerError(w, r, "event status update failed", err, "")
	}
	return false
}

// Delete handles DELETE /events/{id}: organizer or admin only. Pending inbox
// items, announcements, the team link and sub-event links go with it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, access, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if !access.Delete {
		h.ErrLog.Forbidden(w, "Only the organizer can delete this event.")
		return
	}

	n, err := h.Events.Delete(ctx, ev.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete event failed", err, "")
		return
	}
	if n == 0 {
		h.ErrLog.NotFound(w, "Event not found.")
		return
	}

	h.cleanupDeleted(ctx, ev)

	if ev.Status == models.EventPublished {
		h.Notifier.Withdrawn(ctx, ev.ID.Hex())
	}
	if ev.Status != models.EventDraft {
		h.Feed.Invalidate(ctx)
	}
	_, _, uid, _ := authz.UserCtx(r)
	h.Audit.EventDeleted(ctx, r, uid, ev.ID, ev.Status)

	w.WriteHeader(http.StatusNoContent)
}

// cleanupDeleted removes what pointed at a deleted event. The event is already
// gone, so failures are logged and left for the next delete to retry.
func (h *Handler) cleanupDeleted(ctx context.Context, ev models.Event) {
	logFail := func(step string, err error) {
		h.Log.Warn("event delete cleanup failed",
			zap.String("step", step),
			zap.String("event_id", ev.ID.Hex()),
			zap.Error(err))
	}

	if _, err := h.Inbox.DeletePendingForEvent(ctx, ev.ID); err != nil {
		logFail("inbox", err)
	}
	if _, err := h.Announcements.DeleteByEvent(ctx, ev.ID); err != nil {
		logFail("announcements", err)
	}
	if ev.TeamID != nil {
		if err := h.Teams.SetEvent(ctx, *ev.TeamID, nil); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			logFail("team", err)
		}
	}
	if _, err := h.Events.ClearParent(ctx, ev.ID); err != nil {
		logFail("sub-events", err)
	}
}
