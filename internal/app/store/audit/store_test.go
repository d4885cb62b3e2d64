package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/campusevents/internal/app/store/audit"
	"github.com/dalemusser/campusevents/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestStore_GetBySubject_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	subject := primitive.NewObjectID()
	other := primitive.NewObjectID()
	base := time.Now().Add(-time.Hour)

	for i, et := range []string{audit.EventEventCreated, audit.EventEventPublished, audit.EventEventCompleted} {
		if err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Category:  audit.CategoryAdmin,
			EventType: et,
			SubjectID: &subject,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, EventType: audit.EventEventCreated, SubjectID: &other}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetBySubject(ctx, subject, 10)
	if err != nil {
		t.Fatalf("GetBySubject failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventEventCompleted {
		t.Errorf("first event = %s, want %s", events[0].EventType, audit.EventEventCompleted)
	}
	if events[2].EventType != audit.EventEventCreated {
		t.Errorf("last event = %s, want %s", events[2].EventType, audit.EventEventCreated)
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := primitive.NewObjectID()
	now := time.Now()
	old := now.Add(-48 * time.Hour)

	events := []audit.Event{
		{Timestamp: old, Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &actor, Success: true},
		{Timestamp: now, Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, UserID: &actor},
		{Timestamp: now, Category: audit.CategoryAdmin, EventType: audit.EventTeamCreated, ActorID: &actor, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	got, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("category filter: expected 2, got %d", len(got))
	}

	got, err = store.Query(ctx, audit.QueryFilter{ActorID: &actor})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].EventType != audit.EventTeamCreated {
		t.Errorf("actor filter: got %+v", got)
	}

	since := now.Add(-time.Hour)
	count, err := store.CountByFilter(ctx, audit.QueryFilter{UserID: &actor, StartTime: &since})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if count != 1 {
		t.Errorf("time filter: expected 1, got %d", count)
	}
}

func TestStore_Query_LimitAndOffset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, EventType: audit.EventAdCreated}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	got, err := store.Query(ctx, audit.QueryFilter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 event after offset, got %d", len(got))
	}

	recent, err := store.GetRecent(ctx, 3)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("expected 3 recent events, got %d", len(recent))
	}
}
