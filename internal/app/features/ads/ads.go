// internal/app/features/ads/ads.go
package ads

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/inputval"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type adInput struct {
	Title    string     `json:"title" label:"Title" validate:"required,max=120"`
	Body     string     `json:"body"`
	ImageURL string     `json:"image_url" label:"Image URL" validate:"httpurl"`
	LinkURL  string     `json:"link_url" label:"Link URL" validate:"httpurl"`
	EventID  string     `json:"event_id" label:"Event" validate:"omitempty,objectid"`
	Active   *bool      `json:"active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

type adPatch struct {
	Title    *string    `json:"title" label:"Title" validate:"omitnil,max=120"`
	Body     *string    `json:"body"`
	ImageURL *string    `json:"image_url" label:"Image URL" validate:"omitnil,httpurl"`
	LinkURL  *string    `json:"link_url" label:"Link URL" validate:"omitnil,httpurl"`
	EventID  *string    `json:"event_id"`
	Active   *bool      `json:"active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

const msgBadWindow = "End time cannot be before start time."

func windowOK(start, end *time.Time) bool {
	return start == nil || end == nil || !end.Before(*start)
}

// Active handles GET /ads/active: ads switched on whose window contains now.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ads, err := h.Ads.ListActive(ctx, h.now(), activeLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list active ads failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusOK, ads)
}

// Mine handles GET /ads/mine.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ads, err := h.Ads.ListBySponsor(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list sponsor ads failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusOK, ads)
}

// Create handles POST /ads. The caller becomes the ad's sponsor.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in adInput
	if !h.ErrLog.Decode(w, r, &in) {
		return
	}
	in.Title = htmlsanitize.StripTags(in.Title)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.LinkURL = strings.TrimSpace(in.LinkURL)
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

	ad := models.SponsorAd{
		SponsorID: uid,
		Title:     in.Title,
		Body:      htmlsanitize.Sanitize(in.Body),
		ImageURL:  in.ImageURL,
		LinkURL:   in.LinkURL,
		Active:    in.Active == nil || *in.Active,
		StartsAt:  in.StartsAt,
		EndsAt:    in.EndsAt,
	}
	if in.EventID != "" {
		eventID, ok := h.linkedEvent(ctx, w, r, in.EventID)
		if !ok {
			return
		}
		ad.EventID = &eventID
	}

	ad, err := h.Ads.Create(ctx, ad)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create ad failed", err, "")
		return
	}
	h.Audit.AdCreated(ctx, r, uid, ad.ID)
	httpjson.Write(w, http.StatusCreated, ad)
}

// Update handles PATCH /ads/{id}. Only the owning sponsor or an admin may edit.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in adPatch
	if !h.ErrLog.Decode(w, r, &in) {
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Invalid(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ad, ok := h.loadOwned(ctx, w, r)
	if !ok {
		return
	}

	if in.Title != nil {
		ad.Title = htmlsanitize.StripTags(*in.Title)
		if ad.Title == "" {
			h.ErrLog.BadRequest(w, "Title is required.")
			return
		}
	}
	if in.Body != nil {
		ad.Body = htmlsanitize.Sanitize(*in.Body)
	}
	if in.ImageURL != nil {
		ad.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.LinkURL != nil {
		ad.LinkURL = strings.TrimSpace(*in.LinkURL)
	}
	if in.Active != nil {
		ad.Active = *in.Active
	}
	if in.StartsAt != nil {
		ad.StartsAt = in.StartsAt
	}
	if in.EndsAt != nil {
		ad.EndsAt = in.EndsAt
	}
	if in.EventID != nil {
		if *in.EventID == "" {
			ad.EventID = nil
		} else {
			eventID, ok := h.linkedEvent(ctx, w, r, *in.EventID)
			if !ok {
				return
			}
			ad.EventID = &eventID
		}
	}
	if !windowOK(ad.StartsAt, ad.EndsAt) {
		h.ErrLog.BadRequest(w, msgBadWindow)
		return
	}

	if err := h.Ads.Update(ctx, ad); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.NotFound(w, "Ad not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update ad failed", err, "")
		return
	}
	h.Audit.AdUpdated(ctx, r, uid, ad.ID)

	updated, err := h.Ads.GetByID(ctx, ad.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload ad failed", err, "")
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

// Delete handles DELETE /ads/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ad, ok := h.loadOwned(ctx, w, r)
	if !ok {
		return
	}
	n, err := h.Ads.Delete(ctx, ad.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete ad failed", err, "")
		return
	}
	if n == 0 {
		h.ErrLog.NotFound(w, "Ad not found.")
		return
	}
	h.Audit.AdDeleted(ctx, r, uid, ad.ID)
	w.WriteHeader(http.StatusNoContent)
}

// loadOwned loads the {id} ad and checks the caller owns it or is an admin.
func (h *Handler) loadOwned(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.SponsorAd, bool) {
	_, _, uid, _ := authz.UserCtx(r)

	id, ok := h.ErrLog.PathID(w, r, "id")
	if !ok {
		return models.SponsorAd{}, false
	}
	ad, err := h.Ads.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.NotFound(w, "Ad not found.")
		return models.SponsorAd{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load ad failed", err, "")
		return models.SponsorAd{}, false
	}
	if ad.SponsorID != uid && !authz.IsAdmin(r) {
		h.ErrLog.Forbidden(w, "You can only change your own ads.")
		return models.SponsorAd{}, false
	}
	return ad, true
}

// linkedEvent resolves an ad's optional event link. The event must exist.
func (h *Handler) linkedEvent(ctx context.Context, w http.ResponseWriter, r *http.Request, hex string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		h.ErrLog.BadRequest(w, "Event is not a valid id.")
		return primitive.NilObjectID, false
	}
	if _, err := h.Events.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.NotFound(w, "Event not found.")
			return primitive.NilObjectID, false
		}
		h.ErrLog.LogServerError(w, r, "load ad event failed", err, "")
		return primitive.NilObjectID, false
	}
	return id, true
}
