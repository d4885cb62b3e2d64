// internal/app/features/ads/handler.go
package ads

import (
	"time"

	uierrors "github.com/dalemusser/campusevents/internal/app/features/errors"
	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	adstore "github.com/dalemusser/campusevents/internal/app/store/sponsorads"
	"github.com/dalemusser/campusevents/internal/app/system/auditlog"
	"github.com/dalemusser/campusevents/internal/app/system/auth"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// activeLimit caps GET /ads/active.
const activeLimit = 20

// Handler owns the /ads routes.
type Handler struct {
	DB     *mongo.Database
	Ads    *adstore.Store
	Events *eventstore.Store
	Audit  *auditlog.Logger
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	now func() time.Time
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Ads:    adstore.New(db),
		Events: eventstore.New(db),
		Audit:  audit,
		Log:    logger,
		ErrLog: errLog,
		now:    time.Now,
	}
}

// MountRoutes mounts the ad routes. Active ads are visible to anyone signed in;
// authoring is limited to sponsors and admins.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/active", h.Active)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleSponsor, models.RoleAdmin))
			r.Get("/mine", h.Mine)
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}
