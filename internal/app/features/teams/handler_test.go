package teams_test

import (
	"bytes"
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/campusevents/internal/app/features/errors"
	"github.com/dalemusser/campusevents/internal/app/features/teams"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/dalemusser/campusevents/internal/testutil"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*teams.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := teams.NewHandler(db, nil, uierrors.NewErrorLogger(logger), logger)
	return h, testutil.NewFixtures(t, db)
}

func serve(fn http.HandlerFunc, r *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	fn(rec, r)
	return rec
}

func withTeam(r *http.Request, id primitive.ObjectID) *http.Request {
	return testutil.WithChiURLParam(r, "teamId", id.Hex())
}

func pendingInvites(t *testing.T, fx *testutil.Fixtures, teamID, userID primitive.ObjectID) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := fx.DB().Collection("inbox").CountDocuments(ctx, bson.M{
		"kind": models.InboxTeamInvite, "subject_id": teamID, "to_user_id": userID, "status": models.StatusPending,
	})
	if err != nil {
		t.Fatalf("count inbox failed: %v", err)
	}
	return n
}

func TestCreate_InvitesMembers(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	a := fx.CreateStudent(ctx, "Ann")
	b := fx.CreateStudent(ctx, "Bo")

	req := testutil.NewJSONRequest("POST", "/teams", map[string]any{
		"name": "Stage Crew",
		"members": []map[string]string{
			{"user_id": a.ID.Hex(), "role": models.MemberEditor},
			{"user_id": b.ID.Hex(), "role": models.MemberVolunteer},
		},
	})
	rec := serve(h.Create, testutil.WithUser(req, testutil.AsTestUser(leader)))
	rec.AssertStatus(t, http.StatusCreated)

	var team models.OrganizerTeam
	rec.DecodeJSON(t, &team)
	if team.LeaderID != leader.ID || len(team.Members) != 2 {
		t.Fatalf("team = %+v", team)
	}
	for _, m := range team.Members {
		if m.Status != models.StatusPending {
			t.Errorf("member %s status = %q, want Pending", m.UserID.Hex(), m.Status)
		}
		if pendingInvites(t, fx, team.ID, m.UserID) != 1 {
			t.Errorf("expected one pending invite for %s", m.UserID.Hex())
		}
	}
}

func TestCreate_DuplicateNameConflict(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	fx.CreateTeam(ctx, "Tech Crew", primitive.NewObjectID())

	req := testutil.NewJSONRequest("POST", "/teams", map[string]any{"name": "tech crew"})
	serve(h.Create, testutil.WithUser(req, testutil.AsTestUser(leader))).AssertStatus(t, http.StatusConflict)
}

func TestCreate_Validation(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	student := fx.CreateStudent(ctx, "Stu")
	other := fx.CreateOrganizer(ctx, "Other")
	othersEvent := fx.CreateEvent(ctx, "Not Yours", other.ID, models.EventDraft)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing name", map[string]any{"name": ""}, http.StatusBadRequest},
		{"leader as member", map[string]any{"name": "A", "members": []map[string]string{
			{"user_id": leader.ID.Hex(), "role": models.MemberEditor},
		}}, http.StatusBadRequest},
		{"duplicate member", map[string]any{"name": "B", "members": []map[string]string{
			{"user_id": student.ID.Hex(), "role": models.MemberEditor},
			{"user_id": student.ID.Hex(), "role": models.MemberVolunteer},
		}}, http.StatusBadRequest},
		{"bad role", map[string]any{"name": "C", "members": []map[string]string{
			{"user_id": student.ID.Hex(), "role": "captain"},
		}}, http.StatusBadRequest},
		{"unknown user", map[string]any{"name": "D", "members": []map[string]string{
			{"user_id": primitive.NewObjectID().Hex(), "role": models.MemberEditor},
		}}, http.StatusNotFound},
		{"event not organized by caller", map[string]any{"name": "E", "event_id": othersEvent.ID.Hex()}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest("POST", "/teams", tt.body)
			serve(h.Create, testutil.WithUser(req, testutil.AsTestUser(leader))).AssertStatus(t, tt.want)
		})
	}
}

func TestCreate_LinksEvent(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	ev := fx.CreateEvent(ctx, "Mine", leader.ID, models.EventDraft)

	req := testutil.NewJSONRequest("POST", "/teams", map[string]any{"name": "Linked", "event_id": ev.ID.Hex()})
	rec := serve(h.Create, testutil.WithUser(req, testutil.AsTestUser(leader)))
	rec.AssertStatus(t, http.StatusCreated)

	var team models.OrganizerTeam
	rec.DecodeJSON(t, &team)
	got, err := h.Events.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.TeamID == nil || *got.TeamID != team.ID {
		t.Error("expected event team_id set to the new team")
	}

	req = testutil.NewJSONRequest("POST", "/teams", map[string]any{"name": "Second", "event_id": ev.ID.Hex()})
	serve(h.Create, testutil.WithUser(req, testutil.AsTestUser(leader))).AssertStatus(t, http.StatusConflict)

	if n, _ := h.Teams.Count(ctx, bson.M{"name_ci": "second"}); n != 0 {
		t.Errorf("a refused link must not leave a team behind, found %d", n)
	}
	got, _ = h.Events.GetByID(ctx, ev.ID)
	if got.TeamID == nil || *got.TeamID != team.ID {
		t.Error("event should still point at the first team")
	}
}

func TestShow_Visibility(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	invitee := fx.CreateStudent(ctx, "Pending Pat")
	team := fx.CreateTeam(ctx, "Private", leader.ID, testutil.Member(invitee.ID, models.MemberVolunteer, models.StatusPending))

	tests := []struct {
		name string
		user testutil.TestUser
		want int
	}{
		{"leader", testutil.AsTestUser(leader), http.StatusOK},
		{"pending invitee", testutil.AsTestUser(invitee), http.StatusOK},
		{"admin", testutil.AdminUser(), http.StatusOK},
		{"stranger", testutil.StudentUser(), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withTeam(testutil.NewAuthenticatedRequest("GET", "/teams/x", tt.user), team.ID)
			serve(h.Show, req).AssertStatus(t, tt.want)
		})
	}

	req := withTeam(testutil.NewAuthenticatedRequest("GET", "/teams/x", testutil.AdminUser()), primitive.NewObjectID())
	serve(h.Show, req).AssertStatus(t, http.StatusNotFound)
}

func TestList(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateStudent(ctx, "Sam")
	fx.CreateTeam(ctx, "Alpha", primitive.NewObjectID(), testutil.Member(user.ID, models.MemberEditor, models.StatusApproved))
	fx.CreateTeam(ctx, "Beta", user.ID)
	fx.CreateTeam(ctx, "Gamma", primitive.NewObjectID())

	rec := serve(h.List, testutil.NewAuthenticatedRequest("GET", "/teams", testutil.AsTestUser(user)))
	rec.AssertStatus(t, http.StatusOK)
	var got []models.OrganizerTeam
	rec.DecodeJSON(t, &got)
	if len(got) != 2 || got[0].Name != "Alpha" || got[1].Name != "Beta" {
		t.Errorf("teams = %+v, want Alpha and Beta", got)
	}
}

func TestUpdate_Members(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	kept := fx.CreateStudent(ctx, "Kept")
	dropped := fx.CreateStudent(ctx, "Dropped")
	added := fx.CreateStudent(ctx, "Added")
	team := fx.CreateTeam(ctx, "Rotating", leader.ID,
		testutil.Member(kept.ID, models.MemberVolunteer, models.StatusApproved),
		testutil.Member(dropped.ID, models.MemberVolunteer, models.StatusPending))
	if _, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind: models.InboxTeamInvite, FromUserID: leader.ID, ToUserID: dropped.ID, SubjectID: team.ID, TeamID: &team.ID,
	}); err != nil {
		t.Fatalf("inbox Create failed: %v", err)
	}

	patch := func(user testutil.TestUser, body any) *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest("PATCH", "/teams/x", body)
		return serve(h.Update, withTeam(testutil.WithUser(req, user), team.ID))
	}

	patch(testutil.AsTestUser(kept), map[string]any{"name": "Hijack"}).AssertStatus(t, http.StatusForbidden)

	// listing the leader among members is rejected
	patch(testutil.AsTestUser(leader), map[string]any{"members": []map[string]string{
		{"user_id": leader.ID.Hex(), "role": models.MemberCoOrganizer},
	}}).AssertStatus(t, http.StatusBadRequest)

	rec := patch(testutil.AsTestUser(leader), map[string]any{
		"name": "Rotated",
		"members": []map[string]string{
			{"user_id": kept.ID.Hex(), "role": models.MemberEditor},
			{"user_id": added.ID.Hex(), "role": models.MemberVolunteer},
		},
	})
	rec.AssertStatus(t, http.StatusOK)

	var got models.OrganizerTeam
	rec.DecodeJSON(t, &got)
	if got.Name != "Rotated" {
		t.Errorf("name = %q", got.Name)
	}
	if m, ok := got.Member(kept.ID); !ok || m.Status != models.StatusApproved || m.Role != models.MemberEditor {
		t.Errorf("kept member = %+v, want Approved editor", m)
	}
	if m, ok := got.Member(added.ID); !ok || m.Status != models.StatusPending {
		t.Errorf("added member = %+v, want Pending", m)
	}
	if _, ok := got.Member(dropped.ID); ok {
		t.Error("expected dropped member removed")
	}
	if pendingInvites(t, fx, team.ID, dropped.ID) != 0 {
		t.Error("expected dropped member's invite withdrawn")
	}
	if pendingInvites(t, fx, team.ID, added.ID) != 1 {
		t.Error("expected added member invited")
	}
}

func TestUpdate_DuplicateName(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	fx.CreateTeam(ctx, "Taken", primitive.NewObjectID())
	team := fx.CreateTeam(ctx, "Mine", leader.ID)

	req := testutil.NewJSONRequest("PATCH", "/teams/x", map[string]any{"name": "TAKEN"})
	serve(h.Update, withTeam(testutil.WithUser(req, testutil.AsTestUser(leader)), team.ID)).AssertStatus(t, http.StatusConflict)
}

func TestInvite(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	approved := fx.CreateStudent(ctx, "In")
	fresh := fx.CreateStudent(ctx, "New")
	team := fx.CreateTeam(ctx, "Inviters", leader.ID, testutil.Member(approved.ID, models.MemberEditor, models.StatusApproved))

	invite := func(user testutil.TestUser, target, role string) *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest("POST", "/teams/x/invite", map[string]string{"user_id": target, "role": role})
		return serve(h.Invite, withTeam(testutil.WithUser(req, user), team.ID))
	}
	lead := testutil.AsTestUser(leader)

	invite(testutil.AsTestUser(approved), fresh.ID.Hex(), models.MemberVolunteer).AssertStatus(t, http.StatusForbidden)
	invite(lead, fresh.ID.Hex(), "boss").AssertStatus(t, http.StatusBadRequest)
	invite(lead, leader.ID.Hex(), models.MemberVolunteer).AssertStatus(t, http.StatusBadRequest)
	invite(lead, primitive.NewObjectID().Hex(), models.MemberVolunteer).AssertStatus(t, http.StatusNotFound)
	invite(lead, approved.ID.Hex(), models.MemberVolunteer).AssertStatus(t, http.StatusConflict)

	invite(lead, fresh.ID.Hex(), models.MemberVolunteer).AssertStatus(t, http.StatusCreated)
	invite(lead, fresh.ID.Hex(), models.MemberVolunteer).AssertStatus(t, http.StatusConflict)
	if pendingInvites(t, fx, team.ID, fresh.ID) != 1 {
		t.Error("expected exactly one pending invite")
	}
}

func TestRespond_RejectThenReinvite(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	user := fx.CreateStudent(ctx, "Maybe")
	team := fx.CreateTeam(ctx, "Choosy", leader.ID)
	lead := testutil.AsTestUser(leader)
	me := testutil.AsTestUser(user)

	invite := func() *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest("POST", "/teams/x/invite", map[string]string{"user_id": user.ID.Hex(), "role": models.MemberEditor})
		return serve(h.Invite, withTeam(testutil.WithUser(req, lead), team.ID))
	}
	respond := func(decision string) *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest("POST", "/teams/x/respond", map[string]string{"decision": decision})
		return serve(h.Respond, withTeam(testutil.WithUser(req, me), team.ID))
	}

	respond("accept").AssertStatus(t, http.StatusNotFound)
	invite().AssertStatus(t, http.StatusCreated)
	respond("maybe").AssertStatus(t, http.StatusBadRequest)
	respond("reject").AssertStatus(t, http.StatusOK)

	got, err := h.Teams.GetByID(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if _, ok := got.Member(user.ID); ok {
		t.Error("expected rejecting user removed from members")
	}

	invite().AssertStatus(t, http.StatusCreated)
	rec := respond("accept")
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &got)
	if got.ApprovedRole(user.ID) != models.MemberEditor {
		t.Errorf("expected Approved editor, got %+v", got.Members)
	}
	if pendingInvites(t, fx, team.ID, user.ID) != 0 {
		t.Error("expected invite resolved")
	}
}

func TestRemoveMember(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	a := fx.CreateStudent(ctx, "A")
	b := fx.CreateStudent(ctx, "B")
	team := fx.CreateTeam(ctx, "Shrinking", leader.ID,
		testutil.Member(a.ID, models.MemberVolunteer, models.StatusApproved),
		testutil.Member(b.ID, models.MemberVolunteer, models.StatusApproved))

	remove := func(user testutil.TestUser, target primitive.ObjectID) *testutil.ResponseRecorder {
		req := withTeam(testutil.NewAuthenticatedRequest("DELETE", "/teams/x/members/y", user), team.ID)
		return serve(h.RemoveMember, testutil.WithChiURLParam(req, "userId", target.Hex()))
	}

	remove(testutil.AsTestUser(a), b.ID).AssertStatus(t, http.StatusForbidden)
	remove(testutil.AsTestUser(leader), leader.ID).AssertStatus(t, http.StatusBadRequest)
	remove(testutil.AdminUser(), leader.ID).AssertStatus(t, http.StatusBadRequest)
	remove(testutil.AsTestUser(a), a.ID).AssertStatus(t, http.StatusNoContent)
	remove(testutil.AsTestUser(leader), b.ID).AssertStatus(t, http.StatusNoContent)
	remove(testutil.AsTestUser(leader), b.ID).AssertStatus(t, http.StatusNotFound)
}

func TestDelete(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	invitee := fx.CreateStudent(ctx, "Inv")
	ev := fx.CreateEvent(ctx, "Owned", leader.ID, models.EventDraft)
	team := fx.CreateTeam(ctx, "Ephemeral", leader.ID, testutil.Member(invitee.ID, models.MemberEditor, models.StatusPending))
	if err := h.Events.SetTeam(ctx, ev.ID, &team.ID); err != nil {
		t.Fatalf("SetTeam failed: %v", err)
	}
	if _, err := h.Inbox.Create(ctx, models.InboxItem{
		Kind: models.InboxTeamInvite, FromUserID: leader.ID, ToUserID: invitee.ID, SubjectID: team.ID, TeamID: &team.ID,
	}); err != nil {
		t.Fatalf("inbox Create failed: %v", err)
	}

	req := withTeam(testutil.NewAuthenticatedRequest("DELETE", "/teams/x", testutil.AsTestUser(invitee)), team.ID)
	serve(h.Delete, req).AssertStatus(t, http.StatusForbidden)

	req = withTeam(testutil.NewAuthenticatedRequest("DELETE", "/teams/x", testutil.AsTestUser(leader)), team.ID)
	serve(h.Delete, req).AssertStatus(t, http.StatusNoContent)

	if pendingInvites(t, fx, team.ID, invitee.ID) != 0 {
		t.Error("expected pending invites deleted with the team")
	}
	got, err := h.Events.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.TeamID != nil {
		t.Error("expected event team link cleared")
	}
}

func TestRoster_Excel(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateOrganizer(ctx, "Lead")
	co := fx.CreateStudent(ctx, "Cora Co")
	vol := fx.CreateStudent(ctx, "Val Vol")
	team := fx.CreateTeam(ctx, "Export Me", leader.ID,
		testutil.Member(vol.ID, models.MemberVolunteer, models.StatusPending),
		testutil.Member(co.ID, models.MemberCoOrganizer, models.StatusApproved))

	req := withTeam(testutil.NewAuthenticatedRequest("GET", "/teams/x/roster.xlsx", testutil.AsTestUser(vol)), team.ID)
	serve(h.Roster, req).AssertStatus(t, http.StatusForbidden)

	req = withTeam(testutil.NewAuthenticatedRequest("GET", "/teams/x/roster.xlsx", testutil.AsTestUser(leader)), team.ID)
	rec := serve(h.Roster, req)
	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="Export_Me-roster.xlsx"` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Roster")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Name" || rows[1][0] != "Cora Co" || rows[1][2] != models.MemberCoOrganizer {
		t.Errorf("unexpected rows: %v", rows)
	}
}
