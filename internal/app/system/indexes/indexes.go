// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, step := range []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"events", ensureEvents},
		{"organizer_teams", ensureTeams},
		{"inbox", ensureInbox},
		{"sponsor_ads", ensureSponsorAds},
		{"announcements", ensureAnnouncements},
		{"audit_events", ensureAuditEvents},
	} {
		if err := step.fn(ctx, db); err != nil {
			problems = append(problems, step.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.D `bson:"partialFilterExpression,omitempty"`
}

// spec is the comparable shape of an index: key pattern plus the options we set.
type spec struct {
	name    string
	keys    string
	unique  bool
	partial string
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func desiredSpec(m mongo.IndexModel) spec {
	s := spec{keys: keySig(m.Keys.(bson.D))}
	if m.Options == nil {
		return s
	}
	if m.Options.Name != nil {
		s.name = *m.Options.Name
	}
	if m.Options.Unique != nil {
		s.unique = *m.Options.Unique
	}
	if pf, ok := m.Options.PartialFilterExpression.(bson.D); ok {
		s.partial = keySig(pf)
	}
	return s
}

func (e existingIndex) spec() spec {
	return spec{
		name:    e.Name,
		keys:    keySig(e.Key),
		unique:  e.Unique != nil && *e.Unique,
		partial: keySig(e.Partial),
	}
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{} // key sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet makes each desired index exist with the desired name and
// options. An index on the same keys with different options or a different
// name is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes.
		existing = map[string]existingIndex{}
	}

	for _, m := range models {
		want := desiredSpec(m)
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", want.name),
			zap.String("keys", want.keys),
			zap.Bool("unique", want.unique))

		if ex, ok := existing[want.keys]; ok {
			have := ex.spec()
			if have == want || (want.name == "" && have.unique == want.unique && have.partial == want.partial) {
				log.Debug("reusing existing index", zap.Duration("took", time.Since(start)))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), want.name, err))
				continue
			}
			log.Info("dropped index with mismatched options", zap.String("existing", ex.Name))
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if want.unique && mongo.IsDuplicateKeyError(err) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), want.name, want.keys))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), want.name, err))
			}
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                  */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// One account per email (case/diacritics folded).
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
		// Invite picker: prefix search by folded name.
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_fullnameci_id"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_users_role_status"),
		},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("events"), []mongo.IndexModel{
		// Public feed and the auto-complete sweep.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "starts_at", Value: 1}},
			Options: options.Index().SetName("idx_events_status_startsat"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "ends_at", Value: 1}},
			Options: options.Index().SetName("idx_events_status_endsat"),
		},
		// "My events" and the organizer dashboard counts.
		{
			Keys:    bson.D{{Key: "organizer_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_events_organizer_status"),
		},
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: options.Index().SetName("idx_events_team"),
		},
		{
			Keys:    bson.D{{Key: "parent_event_id", Value: 1}},
			Options: options.Index().SetName("idx_events_parent"),
		},
		{
			Keys:    bson.D{{Key: "sponsor_ids", Value: 1}},
			Options: options.Index().SetName("idx_events_sponsors"),
		},
	})
}

func ensureTeams(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("organizer_teams"), []mongo.IndexModel{
		// Team names are unique site-wide (case/diacritics folded).
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_teams_nameci"),
		},
		{
			Keys:    bson.D{{Key: "leader_id", Value: 1}},
			Options: options.Index().SetName("idx_teams_leader"),
		},
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}},
			Options: options.Index().SetName("idx_teams_member_user"),
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetName("idx_teams_event"),
		},
	})
}

func ensureInbox(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("inbox"), []mongo.IndexModel{
		// At most one Pending request per (kind, sender, recipient, subject).
		// Resolved items fall out of the index so the same request can be sent again.
		{
			Keys: bson.D{
				{Key: "kind", Value: 1},
				{Key: "from_user_id", Value: 1},
				{Key: "to_user_id", Value: 1},
				{Key: "subject_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "Pending"}}).
				SetName("uniq_inbox_pending_kind_from_to_subject"),
		},
		// Recipient's inbox, newest first, optionally by status.
		{
			Keys: bson.D{
				{Key: "to_user_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_inbox_to_status_created"),
		},
		{
			Keys:    bson.D{{Key: "subject_id", Value: 1}},
			Options: options.Index().SetName("idx_inbox_subject"),
		},
	})
}

func ensureSponsorAds(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("sponsor_ads"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "active", Value: 1},
				{Key: "starts_at", Value: 1},
				{Key: "ends_at", Value: 1},
			},
			Options: options.Index().SetName("idx_ads_active_window"),
		},
		{
			Keys:    bson.D{{Key: "sponsor_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_ads_sponsor_created"),
		},
	})
}

func ensureAnnouncements(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("announcements"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "pinned", Value: -1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_announcements_event_pinned_created"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "subject_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_subject_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
