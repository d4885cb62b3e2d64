// internal/app/system/authz/roles.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/campusevents/internal/domain/models"
)

// HasAnyRole reports whether the signed-in user holds one of roles.
// Anonymous requests never match.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

func IsAdmin(r *http.Request) bool     { return HasAnyRole(r, models.RoleAdmin) }
func IsOrganizer(r *http.Request) bool { return HasAnyRole(r, models.RoleOrganizer) }
func IsSponsor(r *http.Request) bool   { return HasAnyRole(r, models.RoleSponsor) }
func IsStudent(r *http.Request) bool   { return HasAnyRole(r, models.RoleStudent) }
