package teamroster_test

import (
	"testing"

	"github.com/dalemusser/campusevents/internal/app/store/queries/teamroster"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/dalemusser/campusevents/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestList_Ordering(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	vol := fixtures.CreateStudent(ctx, "Aaron Volunteer")
	ed := fixtures.CreateStudent(ctx, "Zed Editor")
	coPending := fixtures.CreateStudent(ctx, "Amy Pending")
	coApproved := fixtures.CreateStudent(ctx, "Zoe Approved")

	team := fixtures.CreateTeam(ctx, "Crew", primitive.NewObjectID(),
		testutil.Member(vol.ID, models.MemberVolunteer, models.StatusApproved),
		testutil.Member(ed.ID, models.MemberEditor, models.StatusApproved),
		testutil.Member(coPending.ID, models.MemberCoOrganizer, models.StatusPending),
		testutil.Member(coApproved.ID, models.MemberCoOrganizer, models.StatusApproved),
		testutil.Member(primitive.NewObjectID(), models.MemberVolunteer, models.StatusApproved), // no user record
	)

	got, err := teamroster.List(ctx, db, team.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []primitive.ObjectID{coApproved.ID, coPending.ID, ed.ID, vol.ID}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].UserID != id {
			t.Errorf("position %d: got %s (%s), want %s", i, got[i].FullName, got[i].UserID.Hex(), id.Hex())
		}
	}
	if got[0].Email != coApproved.Email || got[0].FullName != "Zoe Approved" {
		t.Errorf("user fields not joined: %+v", got[0])
	}
}

func TestList_EmptyTeam(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Solo", primitive.NewObjectID())
	got, err := teamroster.List(ctx, db, team.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty roster, got %d", len(got))
	}
}
