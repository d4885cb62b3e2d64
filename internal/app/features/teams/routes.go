// internal/app/features/teams/routes.go
package teams

import (
	"github.com/dalemusser/campusevents/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes mounts the team routes. Every route requires a signed-in user;
// per-team permissions are checked in the handlers.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{teamId}", h.Show)
		r.Patch("/{teamId}", h.Update)
		r.Delete("/{teamId}", h.Delete)

		r.Post("/{teamId}/invite", h.Invite)
		r.Post("/{teamId}/respond", h.Respond)
		r.Delete("/{teamId}/members/{userId}", h.RemoveMember)
		r.Get("/{teamId}/roster.xlsx", h.Roster)
	})
}
