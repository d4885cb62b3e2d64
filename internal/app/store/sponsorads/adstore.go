// internal/app/store/sponsorads/adstore.go
package adstore

import (
	"context"
	"time"

	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sponsor_ads")}
}

func (s *Store) Create(ctx context.Context, ad models.SponsorAd) (models.SponsorAd, error) {
	now := time.Now().UTC()
	ad.ID = primitive.NewObjectID()
	ad.CreatedAt = now
	ad.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ad); err != nil {
		return models.SponsorAd{}, err
	}
	return ad, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.SponsorAd, error) {
	var ad models.SponsorAd
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ad); err != nil {
		return models.SponsorAd{}, err
	}
	return ad, nil
}

// Update writes every editable field of ad. SponsorID is not editable.
func (s *Store) Update(ctx context.Context, ad models.SponsorAd) error {
	set := bson.M{
		"title":      ad.Title,
		"body":       ad.Body,
		"image_url":  ad.ImageURL,
		"link_url":   ad.LinkURL,
		"active":     ad.Active,
		"updated_at": time.Now().UTC(),
	}
	unset := bson.M{}
	optional := func(key string, v any, isNil bool) {
		if isNil {
			unset[key] = ""
		} else {
			set[key] = v
		}
	}
	optional("event_id", ad.EventID, ad.EventID == nil)
	optional("starts_at", ad.StartsAt, ad.StartsAt == nil)
	optional("ends_at", ad.EndsAt, ad.EndsAt == nil)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.c.UpdateByID(ctx, ad.ID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an ad by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListBySponsor returns the sponsor's ads newest first.
func (s *Store) ListBySponsor(ctx context.Context, sponsorID primitive.ObjectID) ([]models.SponsorAd, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{"sponsor_id": sponsorID}, opts)
}

// ListActive returns ads that are active and whose optional window contains now.
func (s *Store) ListActive(ctx context.Context, now time.Time, limit int64) ([]models.SponsorAd, error) {
	now = now.UTC()
	filter := bson.M{
		"active": true,
		"$and": []bson.M{
			{"$or": []bson.M{{"starts_at": bson.M{"$exists": false}}, {"starts_at": nil}, {"starts_at": bson.M{"$lte": now}}}},
			{"$or": []bson.M{{"ends_at": bson.M{"$exists": false}}, {"ends_at": nil}, {"ends_at": bson.M{"$gte": now}}}},
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	return s.find(ctx, filter, opts)
}

// CountActiveBySponsor counts the sponsor's ads currently flagged active.
func (s *Store) CountActiveBySponsor(ctx context.Context, sponsorID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"sponsor_id": sponsorID, "active": true})
}

// Count returns the number of ads matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.SponsorAd, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ads := []models.SponsorAd{}
	if err := cur.All(ctx, &ads); err != nil {
		return nil, err
	}
	return ads, nil
}
