// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStatusConflict is returned when a conditional status update finds the
// event in a different status than required (e.g. publishing a non-draft).
var ErrStatusConflict = errors.New("event is not in the required status")

// ErrTeamTaken is returned by ClaimTeam when the event already has a team.
var ErrTeamTaken = errors.New("event already has a team")

// ErrNestingTooDeep is returned by HasAncestor when a parent chain runs past
// MaxNesting links.
var ErrNestingTooDeep = errors.New("sub-events are nested too deeply")

// MaxNesting bounds how many parent links HasAncestor follows.
const MaxNesting = 8

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Create inserts ev as a draft.
func (s *Store) Create(ctx context.Context, ev models.Event) (models.Event, error) {
	now := time.Now().UTC()
	ev.ID = primitive.NewObjectID()
	ev.TitleCI = text.Fold(ev.Title)
	ev.Status = models.EventDraft
	ev.PublishedAt = nil
	ev.CompletedAt = nil
	ev.CreatedAt = now
	ev.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var ev models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// Update writes the editable fields of ev. Completed events are frozen and
// return ErrStatusConflict.
func (s *Store) Update(ctx context.Context, ev models.Event) error {
	set := bson.M{
		"title":       ev.Title,
		"title_ci":    text.Fold(ev.Title),
		"description": ev.Description,
		"category":    ev.Category,
		"venue":       ev.Venue,
		"banner_url":  ev.BannerURL,
		"tags":        ev.Tags,
		"updated_at":  time.Now().UTC(),
	}
	unset := bson.M{}
	if ev.StartsAt != nil {
		set["starts_at"] = ev.StartsAt
	} else {
		unset["starts_at"] = ""
	}
	if ev.EndsAt != nil {
		set["ends_at"] = ev.EndsAt
	} else {
		unset["ends_at"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	filter := bson.M{"_id": ev.ID, "status": bson.M{"$ne": models.EventCompleted}}
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missingOrConflict(ctx, ev.ID)
	}
	return nil
}

// Publish moves a draft to published.
func (s *Store) Publish(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.transition(ctx, id, models.EventDraft, models.EventPublished, "published_at", at)
}

// Complete moves a published event to completed.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.transition(ctx, id, models.EventPublished, models.EventCompleted, "completed_at", at)
}

func (s *Store) transition(ctx context.Context, id primitive.ObjectID, from, to, stampField string, at time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{
			"status":     to,
			stampField:   at.UTC(),
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

// missingOrConflict distinguishes a missing event from a failed status guard.
func (s *Store) missingOrConflict(ctx context.Context, id primitive.ObjectID) error {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return mongo.ErrNoDocuments
	}
	if err != nil {
		return err
	}
	return ErrStatusConflict
}

// Delete removes an event by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// FeedFilter narrows the public feed.
type FeedFilter struct {
	Status   string // published (default) or completed
	Category string
	Q        string // title prefix
}

// ListPublished returns the public feed ordered by start time. Drafts are never
// included regardless of filter.
func (s *Store) ListPublished(ctx context.Context, f FeedFilter, limit, offset int64) ([]models.Event, error) {
	status := f.Status
	if status != models.EventCompleted {
		status = models.EventPublished
	}
	filter := bson.M{"status": status}
	if c := strings.TrimSpace(f.Category); c != "" {
		filter["category"] = c
	}
	if q := text.Fold(strings.TrimSpace(f.Q)); q != "" {
		filter["title_ci"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q)}
	}
	sortDir := 1
	if status == models.EventCompleted {
		sortDir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "starts_at", Value: sortDir}, {Key: "_id", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	return s.Find(ctx, filter, opts)
}

// ListForUser returns every event the user organizes or that belongs to one of
// teamIDs, drafts included, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, teamIDs []primitive.ObjectID, limit, offset int64) ([]models.Event, error) {
	or := []bson.M{{"organizer_id": userID}}
	if len(teamIDs) > 0 {
		or = append(or, bson.M{"team_id": bson.M{"$in": teamIDs}})
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	return s.Find(ctx, bson.M{"$or": or}, opts)
}

// ListUpcoming returns published events starting at or after now.
func (s *Store) ListUpcoming(ctx context.Context, now time.Time, limit int64) ([]models.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "starts_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	return s.Find(ctx, bson.M{
		"status":    models.EventPublished,
		"starts_at": bson.M{"$gte": now.UTC()},
	}, opts)
}

// ListEndedPublished returns published events whose ends_at is before now.
func (s *Store) ListEndedPublished(ctx context.Context, now time.Time, limit int64) ([]models.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "ends_at", Value: 1}}).
		SetLimit(limit).
		SetProjection(bson.M{"_id": 1, "title": 1, "ends_at": 1, "status": 1, "organizer_id": 1})
	return s.Find(ctx, bson.M{
		"status":  models.EventPublished,
		"ends_at": bson.M{"$lt": now.UTC()},
	}, opts)
}

// SetParent links child under parent.
func (s *Store) SetParent(ctx context.Context, childID, parentID primitive.ObjectID) error {
	return s.setOne(ctx, childID, bson.M{"$set": bson.M{
		"parent_event_id": parentID,
		"updated_at":      time.Now().UTC(),
	}})
}

// HasAncestor reports whether ancestorID appears in the parent chain above
// eventID. A missing link ends the chain.
func (s *Store) HasAncestor(ctx context.Context, eventID, ancestorID primitive.ObjectID) (bool, error) {
	cur := eventID
	for i := 0; i < MaxNesting; i++ {
		var doc struct {
			ParentEventID *primitive.ObjectID `bson:"parent_event_id"`
		}
		opts := options.FindOne().SetProjection(bson.M{"parent_event_id": 1})
		err := s.c.FindOne(ctx, bson.M{"_id": cur}, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if doc.ParentEventID == nil {
			return false, nil
		}
		if *doc.ParentEventID == ancestorID {
			return true, nil
		}
		cur = *doc.ParentEventID
	}
	return false, ErrNestingTooDeep
}

// AddSponsor adds sponsorID to sponsor_ids. Adding twice is a no-op.
func (s *Store) AddSponsor(ctx context.Context, eventID, sponsorID primitive.ObjectID) error {
	return s.setOne(ctx, eventID, bson.M{
		"$addToSet": bson.M{"sponsor_ids": sponsorID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

// SetTeam links the event to teamID, or clears the link when teamID is nil.
func (s *Store) SetTeam(ctx context.Context, eventID primitive.ObjectID, teamID *primitive.ObjectID) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if teamID != nil {
		set["team_id"] = *teamID
	} else {
		update["$unset"] = bson.M{"team_id": ""}
	}
	return s.setOne(ctx, eventID, update)
}

// ClaimTeam links the event to teamID only if it has no team yet. It returns
// ErrTeamTaken when another team got there first.
func (s *Store) ClaimTeam(ctx context.Context, eventID, teamID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": eventID, "team_id": nil},
		bson.M{"$set": bson.M{"team_id": teamID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": eventID})
	if err != nil {
		return err
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}
	return ErrTeamTaken
}

// ClearTeam unlinks every event that points at teamID.
func (s *Store) ClearTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{"team_id": teamID}, bson.M{
		"$unset": bson.M{"team_id": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ClearParent detaches every sub-event of parentID.
func (s *Store) ClearParent(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{"parent_event_id": parentID}, bson.M{
		"$unset": bson.M{"parent_event_id": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) setOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CountByStatusForOrganizer returns draft/published/completed counts for the
// events organizerID owns. Missing statuses are zero.
func (s *Store) CountByStatusForOrganizer(ctx context.Context, organizerID primitive.ObjectID) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"organizer_id": organizerID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := map[string]int64{
		models.EventDraft:     0,
		models.EventPublished: 0,
		models.EventCompleted: 0,
	}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Status] = row.N
	}
	return counts, cur.Err()
}

// Find returns events matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Event, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
