package adstore_test

import (
	"testing"
	"time"

	adstore "github.com/dalemusser/campusevents/internal/app/store/sponsorads"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/dalemusser/campusevents/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateUpdateDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := adstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sponsor := primitive.NewObjectID()
	start := time.Now().UTC().Add(-time.Hour)
	ad, err := store.Create(ctx, models.SponsorAd{
		SponsorID: sponsor,
		Title:     "Free Coffee",
		Body:      "<p>Every Monday</p>",
		Active:    true,
		StartsAt:  &start,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ad.Title = "Free Tea"
	ad.StartsAt = nil
	ad.Active = false
	if err := store.Update(ctx, ad); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := store.GetByID(ctx, ad.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Free Tea" || got.Active || got.StartsAt != nil {
		t.Errorf("unexpected ad after update: %+v", got)
	}
	if got.SponsorID != sponsor {
		t.Error("sponsor must not change")
	}

	n, err := store.Delete(ctx, ad.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	if err := store.Update(ctx, ad); err != mongo.ErrNoDocuments {
		t.Errorf("update deleted: expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := adstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sponsor := primitive.NewObjectID()
	now := time.Now().UTC()
	past := now.Add(-48 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	mk := func(title string, active bool, start, end *time.Time) models.SponsorAd {
		ad, err := store.Create(ctx, models.SponsorAd{SponsorID: sponsor, Title: title, Active: active, StartsAt: start, EndsAt: end})
		if err != nil {
			t.Fatalf("Create %s failed: %v", title, err)
		}
		return ad
	}

	open := mk("open", true, nil, nil)
	inWindow := mk("in window", true, &yesterday, &tomorrow)
	mk("inactive", false, nil, nil)
	mk("expired", true, &past, &yesterday)
	mk("future", true, &tomorrow, nil)

	got, err := store.ListActive(ctx, now, 50)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	ids := map[primitive.ObjectID]bool{}
	for _, a := range got {
		ids[a.ID] = true
	}
	if len(got) != 2 || !ids[open.ID] || !ids[inWindow.ID] {
		t.Errorf("expected open and in-window ads, got %d", len(got))
	}

	mine, err := store.ListBySponsor(ctx, sponsor)
	if err != nil {
		t.Fatalf("ListBySponsor failed: %v", err)
	}
	if len(mine) != 5 {
		t.Errorf("expected 5 ads for sponsor, got %d", len(mine))
	}

	n, err := store.CountActiveBySponsor(ctx, sponsor)
	if err != nil || n != 4 {
		t.Errorf("CountActiveBySponsor = %d, %v", n, err)
	}
}
