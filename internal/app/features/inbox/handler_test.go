package inbox_test

import (
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/campusevents/internal/app/features/errors"
	"github.com/dalemusser/campusevents/internal/app/features/inbox"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/dalemusser/campusevents/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*inbox.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return inbox.NewHandler(db, nil, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

func respond(h *inbox.Handler, user testutil.TestUser, id primitive.ObjectID, decision string) *testutil.ResponseRecorder {
	req := testutil.NewJSONRequest("POST", "/inbox/x/respond", map[string]string{"decision": decision})
	req = testutil.WithChiURLParam(testutil.WithUser(req, user), "id", id.Hex())
	rec := testutil.NewRecorder()
	h.Respond(rec, req)
	return rec
}

func TestList_FiltersByStatus(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := fx.CreateOrganizer(ctx, "Me")
	first, err := h.Inbox.Create(ctx, models.InboxItem{Kind: models.InboxSponsorship, FromUserID: primitive.NewObjectID(), ToUserID: me.ID, SubjectID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := h.Inbox.Create(ctx, models.InboxItem{Kind: models.InboxSponsorship, FromUserID: primitive.NewObjectID(), ToUserID: me.ID, SubjectID: primitive.NewObjectID()}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := h.Inbox.Create(ctx, models.InboxItem{Kind: models.InboxSponsorship, FromUserID: primitive.NewObjectID(), ToUserID: primitive.NewObjectID(), SubjectID: primitive.NewObjectID()}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := h.Inbox.Resolve(ctx, first.ID, models.StatusRejected); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	var page struct {
		Items []models.InboxItem `json:"items"`
	}
	rec := testutil.NewRecorder()
	h.List(rec, testutil.NewAuthenticatedRequest("GET", "/inbox", testutil.AsTestUser(me)))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &page)
	if len(page.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(page.Items))
	}

	rec = testutil.NewRecorder()
	h.List(rec, testutil.NewAuthenticatedRequest("GET", "/inbox?status=Pending", testutil.AsTestUser(me)))
	rec.DecodeJSON(t, &page)
	if len(page.Items) != 1 || page.Items[0].Status != models.StatusPending {
		t.Errorf("pending items = %+v", page.Items)
	}

	rec = testutil.NewRecorder()
	h.List(rec, testutil.NewAuthenticatedRequest("GET", "/inbox?status=maybe", testutil.AsTestUser(me)))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestRespond_Guards(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganizer(ctx, "Owner")
	sponsor := fx.CreateSponsor(ctx, "Acme")
	ev := fx.CreateEvent(ctx, "Gala", org.ID, models.EventPublished)
	item, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind: models.InboxSponsorship, FromUserID: sponsor.ID, ToUserID: org.ID, SubjectID: ev.ID, EventID: &ev.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	respond(h, testutil.AsTestUser(sponsor), item.ID, "accept").AssertStatus(t, http.StatusForbidden)
	respond(h, testutil.AsTestUser(org), primitive.NewObjectID(), "accept").AssertStatus(t, http.StatusNotFound)
	respond(h, testutil.AsTestUser(org), item.ID, "later").AssertStatus(t, http.StatusBadRequest)
	respond(h, testutil.AsTestUser(org), item.ID, "reject").AssertStatus(t, http.StatusOK)
	respond(h, testutil.AsTestUser(org), item.ID, "accept").AssertStatus(t, http.StatusBadRequest)

	got, err := h.Events.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.HasSponsor(sponsor.ID) {
		t.Error("rejected sponsorship must not add the sponsor")
	}
}

func TestRespond_AcceptSponsorship(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganizer(ctx, "Owner")
	sponsor := fx.CreateSponsor(ctx, "Acme")
	ev := fx.CreateEvent(ctx, "Gala", org.ID, models.EventPublished)
	item, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind: models.InboxSponsorship, FromUserID: sponsor.ID, ToUserID: org.ID, SubjectID: ev.ID, EventID: &ev.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rec := respond(h, testutil.AsTestUser(org), item.ID, "accept")
	rec.AssertStatus(t, http.StatusOK)
	var resolved models.InboxItem
	rec.DecodeJSON(t, &resolved)
	if resolved.Status != models.StatusApproved || resolved.RespondedAt == nil {
		t.Errorf("item = %+v, want Approved", resolved)
	}

	got, err := h.Events.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.HasSponsor(sponsor.ID) {
		t.Error("expected sponsor added to event")
	}
}

func TestRespond_AcceptSubEvent(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	parentOrg := fx.CreateOrganizer(ctx, "Parent")
	childOrg := fx.CreateOrganizer(ctx, "Child")
	parent := fx.CreateEvent(ctx, "Festival", parentOrg.ID, models.EventPublished)
	child := fx.CreateEvent(ctx, "Stage", childOrg.ID, models.EventDraft)
	item, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind: models.InboxSubEvent, FromUserID: parentOrg.ID, ToUserID: childOrg.ID,
		SubjectID: child.ID, EventID: &parent.ID, ChildEventID: &child.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	respond(h, testutil.AsTestUser(childOrg), item.ID, "accept").AssertStatus(t, http.StatusOK)

	got, err := h.Events.GetByID(ctx, child.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ParentEventID == nil || *got.ParentEventID != parent.ID {
		t.Error("expected child linked under parent")
	}
}

func TestRespond_SubEventThatWouldLoop(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	parentOrg := fx.CreateOrganizer(ctx, "Parent")
	childOrg := fx.CreateOrganizer(ctx, "Child")
	parent := fx.CreateEvent(ctx, "Festival", parentOrg.ID, models.EventPublished)
	child := fx.CreateEvent(ctx, "Stage", childOrg.ID, models.EventDraft)
	middle := fx.CreateEvent(ctx, "Tent", childOrg.ID, models.EventDraft)
	item, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind: models.InboxSubEvent, FromUserID: parentOrg.ID, ToUserID: childOrg.ID,
		SubjectID: child.ID, EventID: &parent.ID, ChildEventID: &child.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// While the request waits, the parent ends up below the child: child > middle > parent.
	if err := h.Events.SetParent(ctx, middle.ID, child.ID); err != nil {
		t.Fatalf("SetParent(middle) failed: %v", err)
	}
	if err := h.Events.SetParent(ctx, parent.ID, middle.ID); err != nil {
		t.Fatalf("SetParent(parent) failed: %v", err)
	}

	respond(h, testutil.AsTestUser(childOrg), item.ID, "accept").AssertStatus(t, http.StatusBadRequest)

	got, _ := h.Events.GetByID(ctx, child.ID)
	if got.ParentEventID != nil {
		t.Error("child must not be linked into a loop")
	}
	stored, _ := h.Inbox.GetByID(ctx, item.ID)
	if stored.Status != models.StatusRejected {
		t.Errorf("item status = %q, want Rejected", stored.Status)
	}
}

func TestRespond_SubEventWithDeletedParent(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	childOrg := fx.CreateOrganizer(ctx, "Child")
	child := fx.CreateEvent(ctx, "Stage", childOrg.ID, models.EventDraft)
	gone := primitive.NewObjectID()
	item, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind: models.InboxSubEvent, FromUserID: primitive.NewObjectID(), ToUserID: childOrg.ID,
		SubjectID: child.ID, EventID: &gone, ChildEventID: &child.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	respond(h, testutil.AsTestUser(childOrg), item.ID, "accept").AssertStatus(t, http.StatusNotFound)

	got, err := h.Inbox.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.StatusRejected {
		t.Errorf("stale item status = %q, want Rejected", got.Status)
	}
}

func TestRespond_TeamInvite(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	user := fx.CreateStudent(ctx, "Joiner")
	invited := fx.CreateTeam(ctx, "Joinable", leader.ID, testutil.Member(user.ID, models.MemberEditor, models.StatusPending))
	item, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind: models.InboxTeamInvite, FromUserID: leader.ID, ToUserID: user.ID, SubjectID: invited.ID, TeamID: &invited.ID, Role: models.MemberEditor,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rec := respond(h, testutil.AsTestUser(user), item.ID, "accept")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"Approved"`)

	var stored models.OrganizerTeam
	if err := fx.DB().Collection("organizer_teams").FindOne(ctx, bson.M{"_id": invited.ID}).Decode(&stored); err != nil {
		t.Fatalf("load team failed: %v", err)
	}
	if stored.ApprovedRole(user.ID) != models.MemberEditor {
		t.Errorf("expected approved editor membership, got %+v", stored.Members)
	}
}

func TestRespond_TeamInviteForDeletedTeam(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateStudent(ctx, "Joiner")
	gone := primitive.NewObjectID()
	item, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind: models.InboxTeamInvite, FromUserID: primitive.NewObjectID(), ToUserID: user.ID, SubjectID: gone, TeamID: &gone, Role: models.MemberVolunteer,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	respond(h, testutil.AsTestUser(user), item.ID, "accept").AssertStatus(t, http.StatusNotFound)

	got, err := h.Inbox.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.StatusRejected {
		t.Errorf("stale invite status = %q, want Rejected", got.Status)
	}
}
