// Package invites owns team membership changes that must keep
// organizer_teams.members and the inbox in step. Both the teams and inbox
// features go through it.
package invites

import (
	"context"
	"errors"
	"net/http"
	"time"

	inboxstore "github.com/dalemusser/campusevents/internal/app/store/inbox"
	teamstore "github.com/dalemusser/campusevents/internal/app/store/teams"
	userstore "github.com/dalemusser/campusevents/internal/app/store/users"
	"github.com/dalemusser/campusevents/internal/app/system/auditlog"
	"github.com/dalemusser/campusevents/internal/app/system/metrics"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrBadRole         = errors.New("role must be volunteer, editor, or co-organizer")
	ErrLeaderAsMember  = errors.New("the team leader cannot be a member of their own team")
	ErrDuplicateMember = errors.New("a user appears more than once in members")
	ErrUnknownUser     = errors.New("user not found")
	ErrAlreadyMember   = errors.New("user is already an approved member of this team")
	ErrInvitePending   = errors.New("user already has a pending invitation to this team")
	ErrNotInvited      = errors.New("you have not been invited to this team")
	ErrAlreadyAnswered = errors.New("this invitation has already been answered")
)

// MemberSpec is one requested member in a create or replace.
type MemberSpec struct {
	UserID primitive.ObjectID
	Role   string
}

type Service struct {
	teams *teamstore.Store
	inbox *inboxstore.Store
	users *userstore.Store
	audit *auditlog.Logger
	log   *zap.Logger
}

func New(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{
		teams: teamstore.New(db),
		inbox: inboxstore.New(db),
		users: userstore.New(db),
		audit: audit,
		log:   logger,
	}
}

// ValidateMembers checks a requested member list against leaderID.
func (s *Service) ValidateMembers(ctx context.Context, leaderID primitive.ObjectID, specs []MemberSpec) error {
	seen := make(map[primitive.ObjectID]bool, len(specs))
	ids := make([]primitive.ObjectID, 0, len(specs))
	for _, m := range specs {
		if m.UserID == leaderID {
			return ErrLeaderAsMember
		}
		if seen[m.UserID] {
			return ErrDuplicateMember
		}
		if !models.IsMemberRole(m.Role) {
			return ErrBadRole
		}
		seen[m.UserID] = true
		ids = append(ids, m.UserID)
	}
	if len(ids) == 0 {
		return nil
	}
	found, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return ErrUnknownUser
	}
	return nil
}

// NewMembers builds Pending entries for specs.
func NewMembers(specs []MemberSpec, now time.Time) []models.TeamMember {
	out := make([]models.TeamMember, 0, len(specs))
	for _, m := range specs {
		out = append(out, models.TeamMember{
			UserID:    m.UserID,
			Role:      m.Role,
			Status:    models.StatusPending,
			InvitedAt: now,
		})
	}
	return out
}

// SendInvites creates a team_invite inbox item for each Pending member in
// members. An invite that is already pending is left alone.
func (s *Service) SendInvites(ctx context.Context, r *http.Request, team models.OrganizerTeam, inviterID primitive.ObjectID, members []models.TeamMember) error {
	for _, m := range members {
		if m.Status != models.StatusPending {
			continue
		}
		if err := s.sendInvite(ctx, r, team, inviterID, m.UserID, m.Role); err != nil && !errors.Is(err, inboxstore.ErrDuplicateInvite) {
			return err
		}
	}
	return nil
}

func (s *Service) sendInvite(ctx context.Context, r *http.Request, team models.OrganizerTeam, inviterID, userID primitive.ObjectID, role string) error {
	teamID := team.ID
	_, err := s.inbox.Create(ctx, models.InboxItem{
		Kind:       models.InboxTeamInvite,
		FromUserID: inviterID,
		ToUserID:   userID,
		SubjectID:  teamID,
		TeamID:     &teamID,
		EventID:    team.EventID,
		Role:       role,
		Message:    "You have been invited to join " + team.Name + " as " + role + ".",
	})
	if err != nil {
		return err
	}
	s.audit.InviteSent(ctx, r, inviterID, teamID, userID, role)
	return nil
}

// Invite adds userID to the team as a Pending member and notifies them.
// A user who previously rejected is absent from members and can be invited again.
func (s *Service) Invite(ctx context.Context, r *http.Request, team models.OrganizerTeam, inviterID, userID primitive.ObjectID, role string) error {
	if !models.IsMemberRole(role) {
		return ErrBadRole
	}
	if userID == team.LeaderID {
		return ErrLeaderAsMember
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownUser
	}
	if m, found := team.Member(userID); found {
		if m.Status == models.StatusApproved {
			return ErrAlreadyMember
		}
		return ErrInvitePending
	}

	if err := s.teams.AddPendingMember(ctx, team.ID, userID, role); err != nil {
		if errors.Is(err, teamstore.ErrAlreadyMember) {
			return ErrInvitePending
		}
		return err
	}
	// A leftover pending item for this member already serves as the invite.
	if err := s.sendInvite(ctx, r, team, inviterID, userID, role); err != nil && !errors.Is(err, inboxstore.ErrDuplicateInvite) {
		return err
	}
	return nil
}

// Respond records userID's answer to a pending team invitation. Accepting
// approves the membership. Rejecting removes the member so they can be
// invited again later. The inbox item is resolved either way.
func (s *Service) Respond(ctx context.Context, r *http.Request, teamID, userID primitive.ObjectID, accept bool) error {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	m, ok := team.Member(userID)
	if !ok {
		return ErrNotInvited
	}
	if m.Status != models.StatusPending {
		return ErrAlreadyAnswered
	}

	status := models.StatusRejected
	decision := "reject"
	if accept {
		status = models.StatusApproved
		decision = "accept"
		err = s.teams.SetMemberStatus(ctx, teamID, userID, models.StatusApproved)
	} else {
		err = s.teams.RemoveMember(ctx, teamID, userID)
	}
	switch {
	case errors.Is(err, teamstore.ErrNotPending):
		return ErrAlreadyAnswered
	case errors.Is(err, teamstore.ErrNotMember):
		return ErrNotInvited
	case err != nil:
		return err
	}

	if _, err := s.inbox.ResolvePending(ctx, models.InboxTeamInvite, userID, teamID, status); err != nil {
		s.log.Warn("resolve team invite inbox item failed",
			zap.String("team_id", teamID.Hex()),
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
	}
	metrics.InboxResponses.WithLabelValues(models.InboxTeamInvite, decision).Inc()
	return nil
}

// Remove takes userID off the team and withdraws any pending invitation.
func (s *Service) Remove(ctx context.Context, team models.OrganizerTeam, userID primitive.ObjectID) error {
	if userID == team.LeaderID {
		return ErrLeaderAsMember
	}
	if err := s.teams.RemoveMember(ctx, team.ID, userID); err != nil {
		if errors.Is(err, teamstore.ErrNotMember) {
			return ErrNotInvited
		}
		return err
	}
	if _, err := s.inbox.DeletePending(ctx, models.InboxTeamInvite, userID, team.ID); err != nil {
		s.log.Warn("withdraw team invite failed", zap.String("team_id", team.ID.Hex()), zap.Error(err))
	}
	return nil
}

// Replace makes desired the full member list. Existing members keep their
// status and take the new role; new users start Pending and are invited;
// dropped users are removed and their pending invitations withdrawn.
func (s *Service) Replace(ctx context.Context, r *http.Request, team models.OrganizerTeam, inviterID primitive.ObjectID, desired []MemberSpec) ([]models.TeamMember, error) {
	if err := s.ValidateMembers(ctx, team.LeaderID, desired); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	keep := make(map[primitive.ObjectID]bool, len(desired))
	next := make([]models.TeamMember, 0, len(desired))
	var added []models.TeamMember
	for _, d := range desired {
		keep[d.UserID] = true
		if cur, ok := team.Member(d.UserID); ok {
			cur.Role = d.Role
			next = append(next, cur)
			continue
		}
		m := models.TeamMember{UserID: d.UserID, Role: d.Role, Status: models.StatusPending, InvitedAt: now}
		next = append(next, m)
		added = append(added, m)
	}

	if err := s.teams.ReplaceMembers(ctx, team.ID, next); err != nil {
		return nil, err
	}

	for _, m := range team.Members {
		if keep[m.UserID] {
			continue
		}
		if _, err := s.inbox.DeletePending(ctx, models.InboxTeamInvite, m.UserID, team.ID); err != nil {
			s.log.Warn("withdraw team invite failed", zap.String("team_id", team.ID.Hex()), zap.Error(err))
		}
		s.audit.MemberRemoved(ctx, r, inviterID, team.ID, m.UserID)
	}
	if err := s.SendInvites(ctx, r, team, inviterID, added); err != nil {
		return nil, err
	}
	return next, nil
}
