// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/campusevents/internal/app/features/errors"
	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	inboxstore "github.com/dalemusser/campusevents/internal/app/store/inbox"
	adstore "github.com/dalemusser/campusevents/internal/app/store/sponsorads"
	teamstore "github.com/dalemusser/campusevents/internal/app/store/teams"
	"github.com/dalemusser/campusevents/internal/app/system/auth"
	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// dashboardTimeout bounds all the queries behind one dashboard.
const dashboardTimeout = 10 * time.Second

// listLimit caps each list shown on a dashboard.
const listLimit = 10

type Handler struct {
	DB     *mongo.Database
	Events *eventstore.Store
	Teams  *teamstore.Store
	Inbox  *inboxstore.Store
	Ads    *adstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	now func() time.Time
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Events: eventstore.New(db),
		Teams:  teamstore.New(db),
		Inbox:  inboxstore.New(db),
		Ads:    adstore.New(db),
		Log:    logger,
		ErrLog: errLog,
		now:    time.Now,
	}
}

// MountRoutes mounts GET /dashboard for signed-in users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(auth.RequireSignedIn).Get("/", h.ServeDashboard)
}

// ServeDashboard dispatches to the summary for the caller's role.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.Unauthorized(w, "Sign in required.")
		return
	}

	switch role {
	case models.RoleAdmin:
		h.ServeAdmin(w, r)
	case models.RoleOrganizer:
		h.ServeOrganizer(w, r)
	case models.RoleSponsor:
		h.ServeSponsor(w, r)
	case models.RoleStudent:
		h.ServeStudent(w, r)
	default:
		h.ErrLog.Forbidden(w, "")
	}
}
