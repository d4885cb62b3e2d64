// internal/domain/models/sponsorad.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SponsorAd is a sponsor-authored ad shown on student dashboards while active
// and inside its optional [StartsAt, EndsAt] window.
type SponsorAd struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SponsorID primitive.ObjectID  `bson:"sponsor_id" json:"sponsor_id"`
	EventID   *primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	Title     string              `bson:"title" json:"title"`
	Body      string              `bson:"body" json:"body"` // sanitized HTML
	ImageURL  string              `bson:"image_url,omitempty" json:"image_url,omitempty"`
	LinkURL   string              `bson:"link_url,omitempty" json:"link_url,omitempty"`
	Active    bool                `bson:"active" json:"active"`
	StartsAt  *time.Time          `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	EndsAt    *time.Time          `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}
