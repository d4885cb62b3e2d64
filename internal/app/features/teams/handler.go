// internal/app/features/teams/handler.go
package teams

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/campusevents/internal/app/features/errors"
	"github.com/dalemusser/campusevents/internal/app/features/shared/invites"
	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	inboxstore "github.com/dalemusser/campusevents/internal/app/store/inbox"
	teamstore "github.com/dalemusser/campusevents/internal/app/store/teams"
	"github.com/dalemusser/campusevents/internal/app/system/auditlog"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the /teams routes.
type Handler struct {
	DB      *mongo.Database
	Teams   *teamstore.Store
	Events  *eventstore.Store
	Inbox   *inboxstore.Store
	Invites *invites.Service
	Audit   *auditlog.Logger
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

// NewHandler constructs a teams Handler. audit may be nil.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Teams:   teamstore.New(db),
		Events:  eventstore.New(db),
		Inbox:   inboxstore.New(db),
		Invites: invites.New(db, audit, logger),
		Audit:   audit,
		Log:     logger,
		ErrLog:  errLog,
	}
}

// loadTeam fetches the team named by {teamId}, writing 404 or 500 itself.
func (h *Handler) loadTeam(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.OrganizerTeam, bool) {
	id, ok := h.ErrLog.PathID(w, r, "teamId")
	if !ok {
		return models.OrganizerTeam{}, false
	}
	team, err := h.Teams.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.NotFound(w, "Team not found.")
		return models.OrganizerTeam{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load team failed", err, "")
		return models.OrganizerTeam{}, false
	}
	return team, true
}

// writeMemberErr maps membership errors from the store and invites service
// to responses. Anything unrecognized is a 500.
func (h *Handler) writeMemberErr(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, invites.ErrBadRole):
		h.ErrLog.BadRequest(w, "Role must be volunteer, editor, or co-organizer.")
	case errors.Is(err, invites.ErrLeaderAsMember):
		h.ErrLog.BadRequest(w, "The team leader cannot be added to or removed from members.")
	case errors.Is(err, invites.ErrDuplicateMember):
		h.ErrLog.BadRequest(w, "Each user can appear in members only once.")
	case errors.Is(err, invites.ErrAlreadyAnswered):
		h.ErrLog.BadRequest(w, "This invitation has already been answered.")
	case errors.Is(err, invites.ErrUnknownUser):
		h.ErrLog.NotFound(w, "User not found.")
	case errors.Is(err, invites.ErrNotInvited):
		h.ErrLog.NotFound(w, "That user is not on this team.")
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.NotFound(w, "Team not found.")
	case errors.Is(err, invites.ErrAlreadyMember):
		h.ErrLog.Conflict(w, "That user is already a member of this team.")
	case errors.Is(err, invites.ErrInvitePending):
		h.ErrLog.Conflict(w, "That user already has a pending invitation to this team.")
	case errors.Is(err, teamstore.ErrDuplicateTeamName):
		h.ErrLog.Conflict(w, "A team with that name already exists.")
	default:
		h.ErrLog.LogServerError(w, r, msg, err, "")
	}
}
