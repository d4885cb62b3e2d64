package inboxstore_test

import (
	"testing"

	inboxstore "github.com/dalemusser/campusevents/internal/app/store/inbox"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/dalemusser/campusevents/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func invite(from, to, team primitive.ObjectID) models.InboxItem {
	return models.InboxItem{
		Kind:       models.InboxTeamInvite,
		FromUserID: from,
		ToUserID:   to,
		SubjectID:  team,
		TeamID:     &team,
		Role:       models.MemberVolunteer,
	}
}

func TestStore_Create_DuplicatePending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := inboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	from, to, team := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	first, err := store.Create(ctx, invite(from, to, team))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.Status != models.StatusPending {
		t.Errorf("expected Pending, got %q", first.Status)
	}

	if _, err := store.Create(ctx, invite(from, to, team)); err != inboxstore.ErrDuplicateInvite {
		t.Errorf("expected ErrDuplicateInvite, got %v", err)
	}

	// Once answered, the same request can be sent again.
	if err := store.Resolve(ctx, first.ID, models.StatusRejected); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, err := store.Create(ctx, invite(from, to, team)); err != nil {
		t.Errorf("re-invite after rejection failed: %v", err)
	}
}

func TestStore_Create_DifferentSendersDoNotCollide(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := inboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer, event := primitive.NewObjectID(), primitive.NewObjectID()
	for i := 0; i < 2; i++ {
		_, err := store.Create(ctx, models.InboxItem{
			Kind:       models.InboxSponsorship,
			FromUserID: primitive.NewObjectID(),
			ToUserID:   organizer,
			SubjectID:  event,
			EventID:    &event,
		})
		if err != nil {
			t.Fatalf("sponsorship request %d failed: %v", i, err)
		}
	}
	n, err := store.CountPending(ctx, organizer)
	if err != nil {
		t.Fatalf("CountPending failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 pending, got %d", n)
	}
}

func TestStore_Resolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := inboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	item, err := store.Create(ctx, invite(primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Resolve(ctx, item.ID, models.StatusApproved); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	got, _ := store.GetByID(ctx, item.ID)
	if got.Status != models.StatusApproved || got.RespondedAt == nil {
		t.Errorf("unexpected item after resolve: %+v", got)
	}

	if err := store.Resolve(ctx, item.ID, models.StatusRejected); err != inboxstore.ErrNotPending {
		t.Errorf("second resolve: expected ErrNotPending, got %v", err)
	}
	if err := store.Resolve(ctx, primitive.NewObjectID(), models.StatusApproved); err != mongo.ErrNoDocuments {
		t.Errorf("missing: expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := inboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	a, _ := store.Create(ctx, invite(primitive.NewObjectID(), me, primitive.NewObjectID()))
	b, _ := store.Create(ctx, invite(primitive.NewObjectID(), me, primitive.NewObjectID()))
	store.Create(ctx, invite(primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()))

	if err := store.Resolve(ctx, a.ID, models.StatusApproved); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	all, err := store.ListForUser(ctx, me, "", 10, 0)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}
	if all[0].ID != b.ID {
		t.Error("expected newest first")
	}

	pending, err := store.ListForUser(ctx, me, models.StatusPending, 10, 0)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Errorf("pending filter: got %d items", len(pending))
	}
}

func TestStore_PendingHelpers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := inboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	from, to, team := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	if _, err := store.Create(ctx, invite(from, to, team)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ok, err := store.HasPending(ctx, models.InboxTeamInvite, to, team)
	if err != nil || !ok {
		t.Fatalf("HasPending = %v, %v", ok, err)
	}

	n, err := store.ResolvePending(ctx, models.InboxTeamInvite, to, team, models.StatusApproved)
	if err != nil || n != 1 {
		t.Fatalf("ResolvePending = %d, %v", n, err)
	}
	ok, _ = store.HasPending(ctx, models.InboxTeamInvite, to, team)
	if ok {
		t.Error("expected no pending after resolve")
	}

	if _, err := store.Create(ctx, invite(from, to, team)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	n, err = store.DeletePending(ctx, models.InboxTeamInvite, to, team)
	if err != nil || n != 1 {
		t.Errorf("DeletePending = %d, %v", n, err)
	}
}

func TestStore_DeletePendingReferencing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := inboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	parent, child := primitive.NewObjectID(), primitive.NewObjectID()
	subEvent := models.InboxItem{
		Kind:         models.InboxSubEvent,
		FromUserID:   primitive.NewObjectID(),
		ToUserID:     primitive.NewObjectID(),
		SubjectID:    child,
		EventID:      &parent,
		ChildEventID: &child,
	}
	if _, err := store.Create(ctx, subEvent); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	answered, _ := store.Create(ctx, models.InboxItem{
		Kind:       models.InboxSponsorship,
		FromUserID: primitive.NewObjectID(),
		ToUserID:   primitive.NewObjectID(),
		SubjectID:  parent,
		EventID:    &parent,
	})
	if err := store.Resolve(ctx, answered.ID, models.StatusApproved); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	n, err := store.DeletePendingReferencing(ctx, parent)
	if err != nil {
		t.Fatalf("DeletePendingReferencing failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pending item removed, got %d", n)
	}
	if _, err := store.GetByID(ctx, answered.ID); err != nil {
		t.Error("answered items are history and must be kept")
	}
}

func TestStore_DeletePendingForEvent_KeepsTeamInvites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := inboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event, team := primitive.NewObjectID(), primitive.NewObjectID()
	if _, err := store.Create(ctx, models.InboxItem{
		Kind:       models.InboxSponsorship,
		FromUserID: primitive.NewObjectID(),
		ToUserID:   primitive.NewObjectID(),
		SubjectID:  event,
		EventID:    &event,
	}); err != nil {
		t.Fatalf("Create sponsorship failed: %v", err)
	}
	teamInvite := invite(primitive.NewObjectID(), primitive.NewObjectID(), team)
	teamInvite.EventID = &event
	kept, err := store.Create(ctx, teamInvite)
	if err != nil {
		t.Fatalf("Create invite failed: %v", err)
	}

	n, err := store.DeletePendingForEvent(ctx, event)
	if err != nil {
		t.Fatalf("DeletePendingForEvent failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 request removed, got %d", n)
	}
	got, err := store.GetByID(ctx, kept.ID)
	if err != nil {
		t.Fatalf("team invite was removed: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("team invite status = %q, want Pending", got.Status)
	}
}
