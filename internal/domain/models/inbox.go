// internal/domain/models/inbox.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inbox item kinds.
const (
	InboxTeamInvite  = "team_invite"
	InboxSubEvent    = "sub_event"
	InboxSponsorship = "sponsorship"
)

// InboxItem is a request addressed to one user that they accept or reject.
//
// SubjectID is the thing the request is about (team for team_invite, the child
// event for sub_event, the event for sponsorship). There is at most one Pending
// item per (kind, from_user_id, to_user_id, subject_id); see indexes.ensureInbox.
type InboxItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind       string             `bson:"kind" json:"kind"`
	FromUserID primitive.ObjectID `bson:"from_user_id" json:"from_user_id"`
	ToUserID   primitive.ObjectID `bson:"to_user_id" json:"to_user_id"`
	SubjectID  primitive.ObjectID `bson:"subject_id" json:"subject_id"`

	TeamID       *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`
	EventID      *primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	ChildEventID *primitive.ObjectID `bson:"child_event_id,omitempty" json:"child_event_id,omitempty"`
	Role         string              `bson:"role,omitempty" json:"role,omitempty"`
	Message      string              `bson:"message,omitempty" json:"message,omitempty"`

	Status      string     `bson:"status" json:"status"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	RespondedAt *time.Time `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}
