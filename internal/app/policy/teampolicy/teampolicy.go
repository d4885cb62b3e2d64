// internal/app/policy/teampolicy/teampolicy.go
package teampolicy

import (
	"net/http"

	"github.com/dalemusser/campusevents/internal/app/system/authz"
	"github.com/dalemusser/campusevents/internal/domain/models"
)

// CanManage reports whether the request user may rename, invite to, remove
// from, export, or delete the team: the leader or an admin.
func CanManage(r *http.Request, team models.OrganizerTeam) bool {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	return role == models.RoleAdmin || team.LeaderID == uid
}

// CanView reports whether the request user may see the team: managers plus
// anyone listed in members, including Pending invitees.
func CanView(r *http.Request, team models.OrganizerTeam) bool {
	if CanManage(r, team) {
		return true
	}
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	_, isMember := team.Member(uid)
	return isMember
}
