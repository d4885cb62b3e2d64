// internal/app/features/dashboard/student.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/domain/models"
)

type studentData struct {
	Role           string                 `json:"role"`
	Upcoming       []models.Event         `json:"upcoming"`
	Teams          []models.OrganizerTeam `json:"teams"`
	PendingInvites int64                  `json:"pending_invites"`
}

func (h *Handler) ServeStudent(w http.ResponseWriter, r *http.Request) {
	role, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	upcoming, err := h.Events.ListUpcoming(ctx, h.now(), listLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list upcoming events failed", err, "")
		return
	}
	teams, err := h.Teams.ListForUser(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list student teams failed", err, "")
		return
	}
	pending, err := h.Inbox.CountPending(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count pending invites failed", err, "")
		return
	}

	httpjson.Write(w, http.StatusOK, studentData{
		Role:           role,
		Upcoming:       upcoming,
		Teams:          teams,
		PendingInvites: pending,
	})
}
