package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plaintext password of every fixture user.
const FixturePassword = "password123"

// fixtureHash is computed once; bcrypt at MinCost keeps fixtures fast.
var fixtureHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calling it again on the same request adds to the existing params.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user whose password is FixturePassword.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	email = strings.ToLower(strings.TrimSpace(email))
	user := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: fixtureHash,
		Role:         role,
		Status:       models.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateOrganizer creates an organizer with a generated email.
func (f *Fixtures) CreateOrganizer(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, uniqueEmail("organizer"), models.RoleOrganizer)
}

// CreateStudent creates a student with a generated email.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, uniqueEmail("student"), models.RoleStudent)
}

// CreateSponsor creates a sponsor with a generated email.
func (f *Fixtures) CreateSponsor(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, uniqueEmail("sponsor"), models.RoleSponsor)
}

// CreateAdmin creates an admin with a generated email.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, uniqueEmail("admin"), models.RoleAdmin)
}

func uniqueEmail(prefix string) string {
	return prefix + "-" + primitive.NewObjectID().Hex() + "@test.edu"
}

// CreateEvent inserts an event with the given status. Published and completed
// events get a start/end window around now so they satisfy publish rules.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, organizerID primitive.ObjectID, status string) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	start := now.Add(24 * time.Hour)
	end := start.Add(2 * time.Hour)
	ev := models.Event{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		Description: "<p>" + title + "</p>",
		Category:    "general",
		Venue:       "Main Hall",
		StartsAt:    &start,
		EndsAt:      &end,
		Status:      status,
		OrganizerID: organizerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch status {
	case models.EventPublished:
		ev.PublishedAt = &now
	case models.EventCompleted:
		ev.PublishedAt = &now
		ev.CompletedAt = &now
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, ev); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return ev
}

// SetEventWindow overwrites an event's starts_at/ends_at.
func (f *Fixtures) SetEventWindow(ctx context.Context, eventID primitive.ObjectID, start, end time.Time) {
	f.t.Helper()
	_, err := f.db.Collection("events").UpdateByID(ctx, eventID, map[string]any{
		"$set": map[string]any{"starts_at": start, "ends_at": end},
	})
	if err != nil {
		f.t.Fatalf("failed to set event window: %v", err)
	}
}

// CreateTeam inserts a team led by leaderID with the given members as-is.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, leaderID primitive.ObjectID, members ...models.TeamMember) models.OrganizerTeam {
	f.t.Helper()

	now := time.Now().UTC()
	for i := range members {
		if members[i].InvitedAt.IsZero() {
			members[i].InvitedAt = now
		}
		if members[i].Status == "" {
			members[i].Status = models.StatusApproved
		}
	}
	if members == nil {
		members = []models.TeamMember{}
	}
	team := models.OrganizerTeam{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		LeaderID:  leaderID,
		Members:   members,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("organizer_teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	return team
}

// Member is shorthand for building a TeamMember in fixtures.
func Member(userID primitive.ObjectID, role, status string) models.TeamMember {
	return models.TeamMember{UserID: userID, Role: role, Status: status}
}

// CreateAd inserts an active sponsor ad with an open window.
func (f *Fixtures) CreateAd(ctx context.Context, title string, sponsorID primitive.ObjectID) models.SponsorAd {
	f.t.Helper()

	now := time.Now().UTC()
	ad := models.SponsorAd{
		ID:        primitive.NewObjectID(),
		SponsorID: sponsorID,
		Title:     title,
		Body:      "<p>" + title + "</p>",
		LinkURL:   "https://sponsor.example.com",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("sponsor_ads").InsertOne(ctx, ad); err != nil {
		f.t.Fatalf("failed to create test ad: %v", err)
	}
	return ad
}
