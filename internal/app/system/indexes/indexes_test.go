package indexes_test

import (
	"testing"
	"time"

	"github.com/dalemusser/campusevents/internal/app/system/indexes"
	"github.com/dalemusser/campusevents/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, coll *mongo.Collection) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	// SetupTestDB has already run EnsureAll once.
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)

	expected := map[string][]string{
		"users":           {"uniq_users_emailci", "idx_users_fullnameci_id"},
		"events":          {"idx_events_status_startsat", "idx_events_organizer_status"},
		"organizer_teams": {"uniq_teams_nameci", "idx_teams_member_user"},
		"inbox":           {"uniq_inbox_pending_kind_from_to_subject", "idx_inbox_to_status_created"},
		"sponsor_ads":     {"idx_ads_active_window"},
		"announcements":   {"idx_announcements_event_pinned_created"},
		"audit_events":    {"idx_audit_timestamp"},
	}
	for coll, want := range expected {
		names := indexNames(t, db.Collection(coll))
		for _, n := range want {
			if !names[n] {
				t.Errorf("%s: expected index %q to exist", coll, n)
			}
		}
	}
}

func TestEnsureAll_ReplacesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teams := db.Collection("organizer_teams")
	if _, err := teams.Indexes().DropOne(ctx, "uniq_teams_nameci"); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	// Same keys, not unique, different name.
	_, err := teams.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_ci", Value: 1}},
		Options: options.Index().SetName("legacy_name"),
	})
	if err != nil {
		t.Fatalf("create legacy index failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, teams)
	if names["legacy_name"] {
		t.Error("expected legacy index to be dropped")
	}
	if !names["uniq_teams_nameci"] {
		t.Error("expected unique team name index to be recreated")
	}
}

func TestInboxPendingIndex_AllowsResolvedDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inbox := db.Collection("inbox")
	from := primitive.NewObjectID()
	to := primitive.NewObjectID()
	subject := primitive.NewObjectID()
	doc := func(status string) bson.M {
		return bson.M{
			"_id":          primitive.NewObjectID(),
			"kind":         "team_invite",
			"from_user_id": from,
			"to_user_id":   to,
			"subject_id":   subject,
			"status":       status,
			"created_at":   time.Now(),
		}
	}

	if _, err := inbox.InsertOne(ctx, doc("Rejected")); err != nil {
		t.Fatalf("insert rejected: %v", err)
	}
	if _, err := inbox.InsertOne(ctx, doc("Pending")); err != nil {
		t.Fatalf("insert pending: %v", err)
	}
	_, err := inbox.InsertOne(ctx, doc("Pending"))
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error for second pending item, got %v", err)
	}
}
