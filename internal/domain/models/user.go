// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleStudent   = "student"
	RoleOrganizer = "organizer"
	RoleSponsor   = "sponsor"
	RoleAdmin     = "admin"
)

// User statuses.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// User is any account that can sign in: students, organizers, sponsors, and admins.
//
// NOTE:
//   - Team membership is not embedded on User. Use organizer_teams.members to
//     discover a user's teams.
//   - PasswordHash never leaves the server (json:"-").
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Status       string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
