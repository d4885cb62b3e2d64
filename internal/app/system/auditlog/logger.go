// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/campusevents/internal/app/store/audit"
	"github.com/dalemusser/campusevents/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (register, login).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for state changes (events, teams, invites, ads).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.SubjectID != nil {
		fields = append(fields, zap.String("subject_id", event.SubjectID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so handlers and tests can run without one.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// requestMeta fills IP and user agent. r may be nil for background work.
func requestMeta(e *audit.Event, r *http.Request) {
	if r == nil {
		e.IP = "internal"
		return
	}
	e.IP = ratelimit.ClientIP(r)
	e.UserAgent = r.UserAgent()
}

func (l *Logger) auth(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, success bool, reason string, details map[string]string) {
	e := audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		Success:       success,
		FailureReason: reason,
		Details:       details,
	}
	requestMeta(&e, r)
	l.Log(ctx, e)
}

func (l *Logger) admin(ctx context.Context, r *http.Request, eventType string, actorID *primitive.ObjectID, subjectID primitive.ObjectID, details map[string]string) {
	e := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   actorID,
		SubjectID: &subjectID,
		Success:   true,
		Details:   details,
	}
	requestMeta(&e, r)
	l.Log(ctx, e)
}

// --- Authentication Events ---

// Registered logs a new account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, role string) {
	l.auth(ctx, r, audit.EventRegistered, &userID, true, "", map[string]string{"role": role})
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.auth(ctx, r, audit.EventLoginSuccess, &userID, true, "", map[string]string{"email": email})
}

// LoginFailedUserNotFound logs a login attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	l.auth(ctx, r, audit.EventLoginFailedUserNotFound, nil, false, "user not found",
		map[string]string{"attempted_email": email})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.auth(ctx, r, audit.EventLoginFailedWrongPassword, &userID, false, "wrong password",
		map[string]string{"email": email})
}

// LoginFailedUserDisabled logs a failed login due to disabled account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.auth(ctx, r, audit.EventLoginFailedUserDisabled, &userID, false, "user disabled",
		map[string]string{"email": email})
}

// LoginFailedRateLimit logs a login rejected by the limiter. reason is "ip" or "email".
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, reason string) {
	l.auth(ctx, r, audit.EventLoginFailedRateLimit, nil, false, "rate limited by "+reason,
		map[string]string{"attempted_email": email})
}

// --- Events ---

// EventCreated logs creation of a draft event.
func (l *Logger) EventCreated(ctx context.Context, r *http.Request, actorID, eventID primitive.ObjectID, title string) {
	l.admin(ctx, r, audit.EventEventCreated, &actorID, eventID, map[string]string{"title": title})
}

// EventUpdated logs an edit.
func (l *Logger) EventUpdated(ctx context.Context, r *http.Request, actorID, eventID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventEventUpdated, &actorID, eventID, nil)
}

// EventPublished logs draft -> published.
func (l *Logger) EventPublished(ctx context.Context, r *http.Request, actorID, eventID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventEventPublished, &actorID, eventID, nil)
}

// EventCompleted logs published -> completed. actorID is nil when the
// autocomplete worker made the transition.
func (l *Logger) EventCompleted(ctx context.Context, r *http.Request, actorID *primitive.ObjectID, eventID primitive.ObjectID, source string) {
	l.admin(ctx, r, audit.EventEventCompleted, actorID, eventID, map[string]string{"source": source})
}

// EventDeleted logs a delete.
func (l *Logger) EventDeleted(ctx context.Context, r *http.Request, actorID, eventID primitive.ObjectID, status string) {
	l.admin(ctx, r, audit.EventEventDeleted, &actorID, eventID, map[string]string{"status": status})
}

// SubEventRequested logs a request to attach childID under parentID.
func (l *Logger) SubEventRequested(ctx context.Context, r *http.Request, actorID, parentID, childID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventSubEventRequested, &actorID, parentID, map[string]string{"child_event_id": childID.Hex()})
}

// SponsorshipRequested logs a sponsorship request sent to sponsorID.
func (l *Logger) SponsorshipRequested(ctx context.Context, r *http.Request, actorID, eventID, sponsorID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventSponsorshipRequested, &actorID, eventID, map[string]string{"sponsor_id": sponsorID.Hex()})
}

// --- Teams ---

// TeamCreated logs a new organizer team.
func (l *Logger) TeamCreated(ctx context.Context, r *http.Request, actorID, teamID primitive.ObjectID, name string) {
	l.admin(ctx, r, audit.EventTeamCreated, &actorID, teamID, map[string]string{"name": name})
}

// TeamUpdated logs a rename or member list replacement.
func (l *Logger) TeamUpdated(ctx context.Context, r *http.Request, actorID, teamID primitive.ObjectID, change string) {
	l.admin(ctx, r, audit.EventTeamUpdated, &actorID, teamID, map[string]string{"change": change})
}

// TeamDeleted logs a team delete.
func (l *Logger) TeamDeleted(ctx context.Context, r *http.Request, actorID, teamID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventTeamDeleted, &actorID, teamID, nil)
}

// MemberRemoved logs removal of userID from teamID.
func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorID, teamID, userID primitive.ObjectID) {
	e := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberRemoved,
		ActorID:   &actorID,
		UserID:    &userID,
		SubjectID: &teamID,
		Success:   true,
	}
	requestMeta(&e, r)
	l.Log(ctx, e)
}

// InviteSent logs a team invitation.
func (l *Logger) InviteSent(ctx context.Context, r *http.Request, actorID, teamID, inviteeID primitive.ObjectID, role string) {
	e := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventInviteSent,
		ActorID:   &actorID,
		UserID:    &inviteeID,
		SubjectID: &teamID,
		Success:   true,
		Details:   map[string]string{"role": role},
	}
	requestMeta(&e, r)
	l.Log(ctx, e)
}

// InviteResponded logs an accept or reject. subjectID is the inbox item, or
// the team when answered from the team route.
func (l *Logger) InviteResponded(ctx context.Context, r *http.Request, userID, subjectID primitive.ObjectID, kind, decision string) {
	l.admin(ctx, r, audit.EventInviteResponded, &userID, subjectID, map[string]string{
		"kind":     kind,
		"decision": decision,
	})
}

// --- Sponsor ads ---

// AdCreated logs a new sponsor ad.
func (l *Logger) AdCreated(ctx context.Context, r *http.Request, actorID, adID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventAdCreated, &actorID, adID, nil)
}

// AdUpdated logs an ad edit.
func (l *Logger) AdUpdated(ctx context.Context, r *http.Request, actorID, adID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventAdUpdated, &actorID, adID, nil)
}

// AdDeleted logs an ad delete.
func (l *Logger) AdDeleted(ctx context.Context, r *http.Request, actorID, adID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventAdDeleted, &actorID, adID, nil)
}
