// internal/app/features/events/announcements.go
package events

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/inputval"
	"github.com/dalemusser/campusevents/internal/app/system/paging"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type announcementInput struct {
	Title   string `json:"title" label:"Title" validate:"required,max=200"`
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
}

type announcementPatch struct {
	Title   *string `json:"title" label:"Title" validate:"omitnil,max=200"`
	Content *string `json:"content"`
	Pinned  *bool   `json:"pinned"`
}

// ListAnnouncements handles GET /events/{id}/announcements.
func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	pg := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, access, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if !access.View {
		h.ErrLog.NotFound(w, "Event not found.")
		return
	}
	rows, err := h.Announcements.ListByEvent(ctx, ev.ID, pg.FetchLimit(), pg.Skip())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list announcements failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusOK, paging.Trim(rows, pg))
}

// CreateAnnouncement handles POST /events/{id}/announcements.
func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in announcementInput
	if !h.ErrLog.Decode(w, r, &in) {
		return
	}
	in.Title = htmlsanitize.StripTags(in.Title)
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Invalid(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, ok := h.announceable(ctx, w, r)
	if !ok {
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	a, err := h.Announcements.Create(ctx, models.Announcement{
		EventID:  ev.ID,
		AuthorID: uid,
		Title:    in.Title,
		Content:  htmlsanitize.Sanitize(in.Content),
		Pinned:   in.Pinned,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create announcement failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusCreated, a)
}

// UpdateAnnouncement handles PATCH /events/{id}/announcements/{annID}.
func (h *Handler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in announcementPatch
	if !h.ErrLog.Decode(w, r, &in) {
		return
	}
	if in.Title != nil {
		t := htmlsanitize.StripTags(*in.Title)
		if t == "" {
			h.ErrLog.BadRequest(w, "Title is required.")
			return
		}
		in.Title = &t
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Invalid(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.loadAnnouncement(ctx, w, r)
	if !ok {
		return
	}
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Content != nil {
		a.Content = htmlsanitize.Sanitize(*in.Content)
	}
	if in.Pinned != nil {
		a.Pinned = *in.Pinned
	}
	if err := h.Announcements.Update(ctx, a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.NotFound(w, "Announcement not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update announcement failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusOK, a)
}

// DeleteAnnouncement handles DELETE /events/{id}/announcements/{annID}.
func (h *Handler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.loadAnnouncement(ctx, w, r)
	if !ok {
		return
	}
	if _, err := h.Announcements.Delete(ctx, a.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete announcement failed", err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// announceable loads the event and checks the caller may post to it.
func (h *Handler) announceable(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Event, bool) {
	ev, access, ok := h.load(ctx, w, r)
	if !ok {
		return models.Event{}, false
	}
	if !access.View {
		h.ErrLog.NotFound(w, "Event not found.")
		return models.Event{}, false
	}
	if !access.Announce {
		h.ErrLog.Forbidden(w, "You do not have permission to manage announcements for this event.")
		return models.Event{}, false
	}
	return ev, true
}

// loadAnnouncement resolves {annID} under an announceable event. An
// announcement belonging to another event is reported as missing.
func (h *Handler) loadAnnouncement(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Announcement, bool) {
	ev, ok := h.announceable(ctx, w, r)
	if !ok {
		return models.Announcement{}, false
	}
	annID, ok := h.ErrLog.PathID(w, r, "annID")
	if !ok {
		return models.Announcement{}, false
	}
	a, err := h.Announcements.GetByID(ctx, annID)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && a.EventID != ev.ID) {
		h.ErrLog.NotFound(w, "Announcement not found.")
		return models.Announcement{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load announcement failed", err, "")
		return models.Announcement{}, false
	}
	return a, true
}
