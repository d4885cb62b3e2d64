// internal/app/store/inbox/inboxstore.go
package inboxstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/campusevents/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateInvite is returned when an identical request is already Pending.
	ErrDuplicateInvite = errors.New("an identical request is already pending")
	// ErrNotPending is returned when resolving an item that was already answered.
	ErrNotPending = errors.New("request has already been answered")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("inbox")}
}

// Create inserts a Pending item.
func (s *Store) Create(ctx context.Context, item models.InboxItem) (models.InboxItem, error) {
	item.ID = primitive.NewObjectID()
	item.Status = models.StatusPending
	item.CreatedAt = time.Now().UTC()
	item.RespondedAt = nil
	if _, err := s.c.InsertOne(ctx, item); err != nil {
		if wafflemongo.IsDup(err) {
			return models.InboxItem{}, ErrDuplicateInvite
		}
		return models.InboxItem{}, err
	}
	return item, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.InboxItem, error) {
	var item models.InboxItem
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return models.InboxItem{}, err
	}
	return item, nil
}

// ListForUser returns the user's items newest first. An empty status lists all.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, status string, limit, offset int64) ([]models.InboxItem, error) {
	filter := bson.M{"to_user_id": userID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := []models.InboxItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Resolve answers a Pending item with status (Approved or Rejected).
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": bson.M{"status": status, "responded_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// ResolvePending answers every Pending item of kind addressed to toUserID
// about subjectID. Returns the number resolved.
func (s *Store) ResolvePending(ctx context.Context, kind string, toUserID, subjectID primitive.ObjectID, status string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"kind": kind, "to_user_id": toUserID, "subject_id": subjectID, "status": models.StatusPending},
		bson.M{"$set": bson.M{"status": status, "responded_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// HasPending reports whether any Pending item of kind links toUserID and subjectID.
func (s *Store) HasPending(ctx context.Context, kind string, toUserID, subjectID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"kind":       kind,
		"to_user_id": toUserID,
		"subject_id": subjectID,
		"status":     models.StatusPending,
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeletePending removes Pending items of kind addressed to toUserID about subjectID.
func (s *Store) DeletePending(ctx context.Context, kind string, toUserID, subjectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"kind":       kind,
		"to_user_id": toUserID,
		"subject_id": subjectID,
		"status":     models.StatusPending,
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeletePendingReferencing removes every Pending item that mentions id as its
// subject, team, event, or child event. Used when a team is deleted.
func (s *Store) DeletePendingReferencing(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"status": models.StatusPending,
		"$or": []bson.M{
			{"subject_id": id},
			{"team_id": id},
			{"event_id": id},
			{"child_event_id": id},
		},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeletePendingForEvent removes the Pending sub-event and sponsorship requests
// that mention eventID. Team invites are left alone: the team outlives the
// event and its members still need to answer.
func (s *Store) DeletePendingForEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"status": models.StatusPending,
		"kind":   bson.M{"$in": []string{models.InboxSubEvent, models.InboxSponsorship}},
		"$or": []bson.M{
			{"subject_id": eventID},
			{"event_id": eventID},
			{"child_event_id": eventID},
		},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountPending returns how many Pending items await userID.
func (s *Store) CountPending(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"to_user_id": userID, "status": models.StatusPending})
}
