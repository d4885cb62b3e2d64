// internal/app/features/dashboard/organizer.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/bson"
)

type organizerData struct {
	Role           string           `json:"role"`
	EventsByStatus map[string]int64 `json:"events_by_status"`
	TeamsLed       int64            `json:"teams_led"`
	PendingInbox   int64            `json:"pending_inbox"`
}

func (h *Handler) ServeOrganizer(w http.ResponseWriter, r *http.Request) {
	role, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	byStatus, err := h.Events.CountByStatusForOrganizer(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count organizer events failed", err, "")
		return
	}
	led, err := h.Teams.Count(ctx, bson.M{"leader_id": uid})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count teams led failed", err, "")
		return
	}
	pending, err := h.Inbox.CountPending(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count pending inbox failed", err, "")
		return
	}

	httpjson.Write(w, http.StatusOK, organizerData{
		Role:           role,
		EventsByStatus: byStatus,
		TeamsLed:       led,
		PendingInbox:   pending,
	})
}
