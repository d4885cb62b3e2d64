// Package teamroster joins a team's members to their user records.
package teamroster

import (
	"context"
	"time"

	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Entry is one member with the user fields a roster shows.
type Entry struct {
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	FullName    string             `bson:"full_name" json:"full_name"`
	Email       string             `bson:"email" json:"email"`
	Role        string             `bson:"role" json:"role"`
	Status      string             `bson:"status" json:"status"`
	InvitedAt   time.Time          `bson:"invited_at" json:"invited_at"`
	RespondedAt *time.Time         `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

// List returns the team's members ordered co-organizers, editors, volunteers,
// then Approved before Pending, then by name. Members whose user record is
// gone are skipped.
func List(ctx context.Context, db *mongo.Database, teamID primitive.ObjectID) ([]Entry, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": teamID}}},
		bson.D{{Key: "$unwind", Value: "$members"}},
		bson.D{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$members"}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		bson.D{{Key: "$unwind", Value: "$user"}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"role_rank": bson.M{"$switch": bson.M{
				"branches": bson.A{
					bson.M{"case": bson.M{"$eq": bson.A{"$role", models.MemberCoOrganizer}}, "then": 0},
					bson.M{"case": bson.M{"$eq": bson.A{"$role", models.MemberEditor}}, "then": 1},
				},
				"default": 2,
			}},
			"status_rank": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.StatusApproved}}, 0, 1,
			}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "role_rank", Value: 1},
			{Key: "status_rank", Value: 1},
			{Key: "user.full_name_ci", Value: 1},
			{Key: "user_id", Value: 1},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"_id":          0,
			"user_id":      1,
			"role":         1,
			"status":       1,
			"invited_at":   1,
			"responded_at": 1,
			"full_name":    "$user.full_name",
			"email":        "$user.email",
		}}},
	}

	cur, err := db.Collection("organizer_teams").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Entry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
