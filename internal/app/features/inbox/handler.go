// internal/app/features/inbox/handler.go
package inbox

import (
	uierrors "github.com/dalemusser/campusevents/internal/app/features/errors"
	"github.com/dalemusser/campusevents/internal/app/features/shared/invites"
	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	inboxstore "github.com/dalemusser/campusevents/internal/app/store/inbox"
	"github.com/dalemusser/campusevents/internal/app/system/auditlog"
	"github.com/dalemusser/campusevents/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the /inbox routes.
type Handler struct {
	DB      *mongo.Database
	Inbox   *inboxstore.Store
	Events  *eventstore.Store
	Invites *invites.Service
	Audit   *auditlog.Logger
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

// NewHandler constructs an inbox Handler. audit may be nil.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Inbox:   inboxstore.New(db),
		Events:  eventstore.New(db),
		Invites: invites.New(db, audit, logger),
		Audit:   audit,
		Log:     logger,
		ErrLog:  errLog,
	}
}

// MountRoutes mounts the inbox routes for the signed-in user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/", h.List)
		r.Post("/{id}/respond", h.Respond)
	})
}
