// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event lifecycle: draft → published → completed. There is no way back.
const (
	EventDraft     = "draft"
	EventPublished = "published"
	EventCompleted = "completed"
)

// Event is a college event owned by a single organizer and optionally
// managed by an organizer team.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Description string             `bson:"description" json:"description"` // sanitized HTML
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Venue       string             `bson:"venue,omitempty" json:"venue,omitempty"`
	BannerURL   string             `bson:"banner_url,omitempty" json:"banner_url,omitempty"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`

	StartsAt *time.Time `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	EndsAt   *time.Time `bson:"ends_at,omitempty" json:"ends_at,omitempty"`

	Status      string             `bson:"status" json:"status"`
	OrganizerID primitive.ObjectID `bson:"organizer_id" json:"organizer_id"`

	TeamID        *primitive.ObjectID  `bson:"team_id,omitempty" json:"team_id,omitempty"`
	ParentEventID *primitive.ObjectID  `bson:"parent_event_id,omitempty" json:"parent_event_id,omitempty"`
	SponsorIDs    []primitive.ObjectID `bson:"sponsor_ids,omitempty" json:"sponsor_ids,omitempty"`

	PublishedAt *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// HasSponsor reports whether sponsorID already sponsors the event.
func (e Event) HasSponsor(sponsorID primitive.ObjectID) bool {
	for _, id := range e.SponsorIDs {
		if id == sponsorID {
			return true
		}
	}
	return false
}
