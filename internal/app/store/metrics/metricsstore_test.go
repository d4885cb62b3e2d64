package metricsstore_test

import (
	"testing"

	metricsstore "github.com/dalemusser/campusevents/internal/app/store/metrics"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/dalemusser/campusevents/internal/testutil"
)

func TestFetchDashboardCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, db)

	if counts.Users != 0 || counts.Events != 0 || counts.Teams != 0 {
		t.Errorf("expected zero counts, got %+v", counts)
	}
	if counts.EventsByState[models.EventDraft] != 0 {
		t.Errorf("drafts: got %d, want 0", counts.EventsByState[models.EventDraft])
	}
}

func TestFetchDashboardCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganizer(ctx, "Org")
	fixtures.CreateStudent(ctx, "Student One")
	fixtures.CreateStudent(ctx, "Student Two")
	sponsor := fixtures.CreateSponsor(ctx, "Sponsor")

	fixtures.CreateEvent(ctx, "Draft", org.ID, models.EventDraft)
	fixtures.CreateEvent(ctx, "Live", org.ID, models.EventPublished)
	fixtures.CreateEvent(ctx, "Done", org.ID, models.EventCompleted)
	fixtures.CreateTeam(ctx, "Crew", org.ID)
	fixtures.CreateAd(ctx, "Ad", sponsor.ID)

	counts := metricsstore.FetchDashboardCounts(ctx, db)

	if counts.Users != 4 {
		t.Errorf("Users: got %d, want 4", counts.Users)
	}
	if counts.UsersByRole[models.RoleStudent] != 2 {
		t.Errorf("students: got %d, want 2", counts.UsersByRole[models.RoleStudent])
	}
	if counts.Events != 3 || counts.EventsByState[models.EventPublished] != 1 {
		t.Errorf("events: got %+v", counts.EventsByState)
	}
	if counts.Teams != 1 {
		t.Errorf("Teams: got %d, want 1", counts.Teams)
	}
	if counts.Ads != 1 {
		t.Errorf("Ads: got %d, want 1", counts.Ads)
	}
}
