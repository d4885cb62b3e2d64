// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles inside an organizer team.
const (
	MemberVolunteer   = "volunteer"
	MemberEditor      = "editor"
	MemberCoOrganizer = "co-organizer"
)

// Member invitation statuses. The same values are used for inbox items.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// MemberRoles lists the valid member roles in display order.
var MemberRoles = []string{MemberVolunteer, MemberEditor, MemberCoOrganizer}

// IsMemberRole reports whether role is one of MemberRoles.
func IsMemberRole(role string) bool {
	for _, r := range MemberRoles {
		if r == role {
			return true
		}
	}
	return false
}

// TeamMember is an entry in OrganizerTeam.Members. The leader is never a member.
type TeamMember struct {
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role        string             `bson:"role" json:"role"`
	Status      string             `bson:"status" json:"status"` // Pending | Approved
	InvitedAt   time.Time          `bson:"invited_at" json:"invited_at"`
	RespondedAt *time.Time         `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

// OrganizerTeam groups a leader and invited members who jointly manage an event.
// Team names are unique across the site (case/diacritics-folded via name_ci).
type OrganizerTeam struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name     string              `bson:"name" json:"name"`
	NameCI   string              `bson:"name_ci" json:"-"`
	LeaderID primitive.ObjectID  `bson:"leader_id" json:"leader_id"`
	EventID  *primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	Members  []TeamMember        `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Member returns the member entry for userID, if present.
func (t OrganizerTeam) Member(userID primitive.ObjectID) (TeamMember, bool) {
	for _, m := range t.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return TeamMember{}, false
}

// ApprovedRole returns the member role for userID when the membership is Approved.
func (t OrganizerTeam) ApprovedRole(userID primitive.ObjectID) string {
	if m, ok := t.Member(userID); ok && m.Status == StatusApproved {
		return m.Role
	}
	return ""
}
