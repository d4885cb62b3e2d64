// internal/app/policy/eventpolicy/eventpolicy.go
package eventpolicy

import (
	"net/http"

	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Access is what one user may do with one event.
type Access struct {
	View     bool `json:"can_view"`
	Edit     bool `json:"can_edit"`    // PATCH fields
	Publish  bool `json:"can_publish"` // publish and complete
	Delete   bool `json:"can_delete"`
	Announce bool `json:"can_announce"` // create, edit, delete announcements
}

// For computes access for the request's user. team is the event's linked team
// and may be nil.
func For(r *http.Request, ev models.Event, team *models.OrganizerTeam) Access {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return Access{}
	}
	return Compute(role, uid, ev, team)
}

// Compute is For without a request:
//   - admin and the event's organizer may do everything
//   - the team leader and approved co-organizers may edit, publish and announce
//   - approved editors may edit and announce
//   - approved volunteers may view drafts
//   - everyone signed in may view published and completed events
func Compute(role string, userID primitive.ObjectID, ev models.Event, team *models.OrganizerTeam) Access {
	if role == models.RoleAdmin || ev.OrganizerID == userID {
		return Access{View: true, Edit: true, Publish: true, Delete: true, Announce: true}
	}

	a := Access{View: ev.Status != models.EventDraft}
	if team == nil || ev.TeamID == nil || *ev.TeamID != team.ID {
		return a
	}

	memberRole := team.ApprovedRole(userID)
	if team.LeaderID == userID {
		memberRole = models.MemberCoOrganizer
	}
	switch memberRole {
	case models.MemberCoOrganizer:
		a.View, a.Edit, a.Publish, a.Announce = true, true, true, true
	case models.MemberEditor:
		a.View, a.Edit, a.Announce = true, true, true
	case models.MemberVolunteer:
		a.View = true
	}
	return a
}
