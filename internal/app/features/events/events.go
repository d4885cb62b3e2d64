// internal/app/features/events/events.go
package events

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/campusevents/internal/app/policy/eventpolicy"
	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/inputval"
	"github.com/dalemusser/campusevents/internal/app/system/paging"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type eventInput struct {
	Title       string     `json:"title" label:"Title" validate:"required,max=200"`
	Description string     `json:"description"`
	Category    string     `json:"category" label:"Category" validate:"max=60"`
	Venue       string     `json:"venue" label:"Venue" validate:"max=200"`
	BannerURL   string     `json:"banner_url" label:"Banner URL" validate:"httpurl"`
	Tags        []string   `json:"tags" label:"Tags" validate:"max=20,dive,max=40"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// eventPatch carries only the fields the client sent.
type eventPatch struct {
	Title       *string    `json:"title" label:"Title" validate:"omitnil,max=200"`
	Description *string    `json:"description"`
	Category    *string    `json:"category" label:"Category" validate:"omitnil,max=60"`
	Venue       *string    `json:"venue" label:"Venue" validate:"omitnil,max=200"`
	BannerURL   *string    `json:"banner_url" label:"Banner URL" validate:"omitnil,httpurl"`
	Tags        []string   `json:"tags" label:"Tags" validate:"omitempty,max=20,dive,max=40"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

const msgBadWindow = "End time cannot be before start time."

func windowOK(start, end *time.Time) bool {
	return start == nil || end == nil || !end.Before(*start)
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ListFeed handles GET /events, the public feed of published (or completed)
// events. Pages are cached when a feed cache is configured.
func (h *Handler) ListFeed(w http.ResponseWriter, r *http.Request) {
	pg := paging.Parse(r)
	filter := eventstore.FeedFilter{
		Status:   query.Get(r, "status"),
		Category: query.Get(r, "category"),
		Q:        query.Get(r, "q"),
	}
	if filter.Status != "" && filter.Status != models.EventPublished && filter.Status != models.EventCompleted {
		h.ErrLog.BadRequest(w, "status must be published or completed.")
		return
	}

	key := url.Values{
		"status":   {filter.Status},
		"category": {filter.Category},
		"q":        {strings.ToLower(strings.TrimSpace(filter.Q))},
		"limit":    {strconv.Itoa(pg.Limit)},
		"offset":   {strconv.Itoa(pg.Offset)},
	}.Encode()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var page paging.List[models.Event]
	if h.Feed.Get(ctx, key, &page) {
		httpjson.Write(w, http.StatusOK, page)
		return
	}

	rows, err := h.Events.ListPublished(ctx, filter, pg.FetchLimit(), pg.Skip())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list event feed failed", err, "")
		return
	}
	page = paging.Trim(rows, pg)
	h.Feed.Set(ctx, key, page)
	httpjson.Write(w, http.StatusOK, page)
}

// Create handles POST /events. The event starts as a draft owned by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in eventInput
	if !h.ErrLog.Decode(w, r, &in) {
		return
	}
	in.Title = htmlsanitize.StripTags(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Venue = strings.TrimSpace(in.Venue)
	in.BannerURL = strings.TrimSpace(in.BannerURL)
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Invalid(w, res)
		return
	}
	if !windowOK(in.StartsAt, in.EndsAt) {
		h.ErrLog.BadRequest(w, msgBadWindow)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, err := h.Events.Create(ctx, models.Event{
		Title:       in.Title,
		Description: htmlsanitize.Sanitize(in.Description),
		Category:    in.Category,
		Venue:       in.Venue,
		BannerURL:   in.BannerURL,
		Tags:        cleanTags(in.Tags),
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		OrganizerID: uid,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create event failed", err, "")
		return
	}

	h.Audit.EventCreated(ctx, r, uid, ev.ID, ev.Title)
	httpjson.Write(w, http.StatusCreated, eventView{Event: ev, Access: eventpolicy.For(r, ev, nil)})
}

// Mine handles GET /events/mine: events the caller organizes plus those of
// teams they are an approved member or leader of. Drafts included.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	pg := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	teamIDs, err := h.Teams.ApprovedTeamIDs(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load caller teams failed", err, "")
		return
	}
	rows, err := h.Events.ListForUser(ctx, uid, teamIDs, pg.FetchLimit(), pg.Skip())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list caller events failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusOK, paging.Trim(rows, pg))
}

// Show handles GET /events/{id}. Drafts the caller cannot see are reported
// as missing.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
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
	httpjson.Write(w, http.StatusOK, eventView{Event: ev, Access: access})
}

// Update handles PATCH /events/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in eventPatch
	if !h.ErrLog.Decode(w, r, &in) {
		return
	}

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
	if !access.Edit {
		h.ErrLog.Forbidden(w, "You do not have permission to edit this event.")
		return
	}
	if ev.Status == models.EventCompleted {
		h.ErrLog.BadRequest(w, "Completed events cannot be edited.")
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
	applyPatch(&ev, in)
	if !windowOK(ev.StartsAt, ev.EndsAt) {
		h.ErrLog.BadRequest(w, msgBadWindow)
		return
	}
	if ev.Status == models.EventPublished && (ev.StartsAt == nil || ev.EndsAt == nil) {
		h.ErrLog.BadRequest(w, "Published events need a start and end time.")
		return
	}

	err := h.Events.Update(ctx, ev)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.NotFound(w, "Event not found.")
		return
	case errors.Is(err, eventstore.ErrStatusConflict):
		h.ErrLog.BadRequest(w, "Completed events cannot be edited.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update event failed", err, "")
		return
	}

	if ev.Status == models.EventPublished {
		h.Feed.Invalidate(ctx)
	}
	_, _, uid, _ := authz.UserCtx(r)
	h.Audit.EventUpdated(ctx, r, uid, ev.ID)
	h.Log.Debug("event updated", zap.String("event_id", ev.ID.Hex()))
	httpjson.Write(w, http.StatusOK, eventView{Event: ev, Access: access})
}

func applyPatch(ev *models.Event, in eventPatch) {
	if in.Title != nil {
		ev.Title = *in.Title
	}
	if in.Description != nil {
		ev.Description = htmlsanitize.Sanitize(*in.Description)
	}
	if in.Category != nil {
		ev.Category = strings.TrimSpace(*in.Category)
	}
	if in.Venue != nil {
		ev.Venue = strings.TrimSpace(*in.Venue)
	}
	if in.BannerURL != nil {
		ev.BannerURL = strings.TrimSpace(*in.BannerURL)
	}
	if in.Tags != nil {
		ev.Tags = cleanTags(in.Tags)
	}
	if in.StartsAt != nil {
		ev.StartsAt = in.StartsAt
	}
	if in.EndsAt != nil {
		ev.EndsAt = in.EndsAt
	}
}
