// internal/app/features/dashboard/sponsor.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sponsorData struct {
	Role            string         `json:"role"`
	ActiveAds       int64          `json:"active_ads"`
	SponsoredEvents []models.Event `json:"sponsored_events"`
	PendingInbox    int64          `json:"pending_inbox"`
}

func (h *Handler) ServeSponsor(w http.ResponseWriter, r *http.Request) {
	role, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	active, err := h.Ads.CountActiveBySponsor(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count active ads failed", err, "")
		return
	}
	events, err := h.Events.Find(ctx, bson.M{"sponsor_ids": uid},
		options.Find().SetSort(bson.D{{Key: "starts_at", Value: -1}}).SetLimit(listLimit))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list sponsored events failed", err, "")
		return
	}
	pending, err := h.Inbox.CountPending(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count pending inbox failed", err, "")
		return
	}

	httpjson.Write(w, http.StatusOK, sponsorData{
		Role:            role,
		ActiveAds:       active,
		SponsoredEvents: events,
		PendingInbox:    pending,
	})
}
