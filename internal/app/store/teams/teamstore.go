// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/campusevents/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateTeamName is returned when name_ci collides with another team.
	ErrDuplicateTeamName = errors.New("a team with this name already exists")
	// ErrAlreadyMember is returned when adding a user who is already in members.
	ErrAlreadyMember = errors.New("user is already a member of this team")
	// ErrNotMember is returned when the user is not in members.
	ErrNotMember = errors.New("user is not a member of this team")
	// ErrNotPending is returned when a member status change expects Pending.
	ErrNotPending = errors.New("membership is not pending")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizer_teams")}
}

// Create inserts a team. Members are stored exactly as given.
func (s *Store) Create(ctx context.Context, team models.OrganizerTeam) (models.OrganizerTeam, error) {
	now := time.Now().UTC()
	team.ID = primitive.NewObjectID()
	team.Name = strings.TrimSpace(team.Name)
	team.NameCI = text.Fold(team.Name)
	if team.Members == nil {
		team.Members = []models.TeamMember{}
	}
	team.CreatedAt = now
	team.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, team); err != nil {
		if wafflemongo.IsDup(err) {
			return models.OrganizerTeam{}, ErrDuplicateTeamName
		}
		return models.OrganizerTeam{}, err
	}
	return team, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.OrganizerTeam, error) {
	var t models.OrganizerTeam
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.OrganizerTeam{}, err
	}
	return t, nil
}

// GetByEvent returns the team linked to eventID.
func (s *Store) GetByEvent(ctx context.Context, eventID primitive.ObjectID) (models.OrganizerTeam, error) {
	var t models.OrganizerTeam
	if err := s.c.FindOne(ctx, bson.M{"event_id": eventID}).Decode(&t); err != nil {
		return models.OrganizerTeam{}, err
	}
	return t, nil
}

// Rename changes the team name. Returns ErrDuplicateTeamName on collision.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	name = strings.TrimSpace(name)
	return s.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
}

// ReplaceMembers overwrites the member array.
func (s *Store) ReplaceMembers(ctx context.Context, id primitive.ObjectID, members []models.TeamMember) error {
	if members == nil {
		members = []models.TeamMember{}
	}
	return s.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"members":    members,
		"updated_at": time.Now().UTC(),
	}})
}

// SetEvent links the team to eventID, or clears the link when eventID is nil.
func (s *Store) SetEvent(ctx context.Context, id primitive.ObjectID, eventID *primitive.ObjectID) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if eventID != nil {
		set["event_id"] = *eventID
	} else {
		update["$unset"] = bson.M{"event_id": ""}
	}
	return s.update(ctx, bson.M{"_id": id}, update)
}

// AddPendingMember appends a Pending member unless the user is already present.
func (s *Store) AddPendingMember(ctx context.Context, teamID, userID primitive.ObjectID, role string) error {
	m := models.TeamMember{
		UserID:    userID,
		Role:      role,
		Status:    models.StatusPending,
		InvitedAt: time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": teamID, "members.user_id": bson.M{"$ne": userID}},
		bson.M{
			"$push": bson.M{"members": m},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, teamID); err != nil {
			return err
		}
		return ErrAlreadyMember
	}
	return nil
}

// SetMemberStatus moves a Pending member to status (Approved or Rejected).
func (s *Store) SetMemberStatus(ctx context.Context, teamID, userID primitive.ObjectID, status string) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":     teamID,
			"members": bson.M{"$elemMatch": bson.M{"user_id": userID, "status": models.StatusPending}},
		},
		bson.M{"$set": bson.M{
			"members.$.status":       status,
			"members.$.responded_at": now,
			"updated_at":             now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		t, err := s.GetByID(ctx, teamID)
		if err != nil {
			return err
		}
		if _, ok := t.Member(userID); !ok {
			return ErrNotMember
		}
		return ErrNotPending
	}
	return nil
}

// RemoveMember pulls userID from members. Returns ErrNotMember if absent.
func (s *Store) RemoveMember(ctx context.Context, teamID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": teamID, "members.user_id": userID},
		bson.M{
			"$pull": bson.M{"members": bson.M{"user_id": userID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, teamID); err != nil {
			return err
		}
		return ErrNotMember
	}
	return nil
}

// Delete removes a team by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListForUser returns teams the user leads or appears in (any status), by name.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.OrganizerTeam, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	return s.Find(ctx, bson.M{"$or": []bson.M{
		{"leader_id": userID},
		{"members.user_id": userID},
	}}, opts)
}

// ApprovedTeamIDs returns the IDs of teams the user leads or is an Approved member of.
func (s *Store) ApprovedTeamIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"$or": []bson.M{
		{"leader_id": userID},
		{"members": bson.M{"$elemMatch": bson.M{"user_id": userID, "status": models.StatusApproved}}},
	}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// Find returns teams matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.OrganizerTeam, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	teams := []models.OrganizerTeam{}
	if err := cur.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// Count returns the number of teams matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

func (s *Store) update(ctx context.Context, filter, update bson.M) error {
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateTeamName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
