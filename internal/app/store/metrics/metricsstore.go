package metricsstore

import (
	"context"

	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of site-wide totals shown on the admin dashboard.
type Counts struct {
	Users         int64            `json:"users"`
	UsersByRole   map[string]int64 `json:"users_by_role"`
	Events        int64            `json:"events"`
	EventsByState map[string]int64 `json:"events_by_status"`
	Teams         int64            `json:"teams"`
	PendingInbox  int64            `json:"pending_inbox"`
	Ads           int64            `json:"ads"`
	Announcements int64            `json:"announcements"`
}

// FetchDashboardCounts returns the high-level counts used by dashboards.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database) Counts {
	out := Counts{
		UsersByRole:   map[string]int64{},
		EventsByState: map[string]int64{},
	}

	count := func(coll string, filter bson.M) int64 {
		n, err := db.Collection(coll).CountDocuments(ctx, filter)
		if err != nil {
			return 0
		}
		return n
	}

	for _, role := range []string{models.RoleStudent, models.RoleOrganizer, models.RoleSponsor, models.RoleAdmin} {
		n := count("users", bson.M{"role": role})
		out.UsersByRole[role] = n
		out.Users += n
	}
	for _, status := range []string{models.EventDraft, models.EventPublished, models.EventCompleted} {
		n := count("events", bson.M{"status": status})
		out.EventsByState[status] = n
		out.Events += n
	}
	out.Teams = count("organizer_teams", bson.M{})
	out.PendingInbox = count("inbox", bson.M{"status": models.StatusPending})
	out.Ads = count("sponsor_ads", bson.M{})
	out.Announcements = count("announcements", bson.M{})

	return out
}
