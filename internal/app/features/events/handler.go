// internal/app/features/events/handler.go
package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/campusevents/internal/app/features/errors"
	"github.com/dalemusser/campusevents/internal/app/policy/eventpolicy"
	announcementstore "github.com/dalemusser/campusevents/internal/app/store/announcements"
	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	inboxstore "github.com/dalemusser/campusevents/internal/app/store/inbox"
	teamstore "github.com/dalemusser/campusevents/internal/app/store/teams"
	"github.com/dalemusser/campusevents/internal/app/system/auditlog"
	"github.com/dalemusser/campusevents/internal/app/system/feedcache"
	"github.com/dalemusser/campusevents/internal/app/system/recommend"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the /events routes, including announcements and the
// sub-event and sponsorship requests that hang off an event.
type Handler struct {
	DB            *mongo.Database
	Events        *eventstore.Store
	Teams         *teamstore.Store
	Inbox         *inboxstore.Store
	Announcements *announcementstore.Store
	Feed          *feedcache.Cache
	Notifier      *recommend.Notifier
	Audit         *auditlog.Logger
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger

	now func() time.Time
}

// NewHandler constructs an events Handler. feed, notifier and audit may be nil.
func NewHandler(db *mongo.Database, feed *feedcache.Cache, notifier *recommend.Notifier, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Events:        eventstore.New(db),
		Teams:         teamstore.New(db),
		Inbox:         inboxstore.New(db),
		Announcements: announcementstore.New(db),
		Feed:          feed,
		Notifier:      notifier,
		Audit:         audit,
		Log:           logger,
		ErrLog:        errLog,
		now:           time.Now,
	}
}

// eventView is an event plus what the caller may do with it.
type eventView struct {
	models.Event
	Access eventpolicy.Access `json:"access"`
}

// load fetches the event named by {id} with its linked team and the caller's
// access. It writes 404 or 500 itself and returns ok=false in that case.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Event, eventpolicy.Access, bool) {
	id, ok := h.ErrLog.PathID(w, r, "id")
	if !ok {
		return models.Event{}, eventpolicy.Access{}, false
	}
	ev, err := h.Events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.NotFound(w, "Event not found.")
		return models.Event{}, eventpolicy.Access{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load event failed", err, "")
		return models.Event{}, eventpolicy.Access{}, false
	}

	var team *models.OrganizerTeam
	if ev.TeamID != nil {
		t, err := h.Teams.GetByID(ctx, *ev.TeamID)
		switch {
		case err == nil:
			team = &t
		case !errors.Is(err, mongo.ErrNoDocuments):
			h.ErrLog.LogServerError(w, r, "load event team failed", err, "")
			return models.Event{}, eventpolicy.Access{}, false
		}
	}
	return ev, eventpolicy.For(r, ev, team), true
}
