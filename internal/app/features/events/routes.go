// internal/app/features/events/routes.go
package events

import (
	"github.com/dalemusser/campusevents/internal/app/system/auth"
	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// MountRoutes mounts the event routes. The feed is public; everything else
// requires a signed-in user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.ListFeed)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)

		r.With(auth.RequireRole(models.RoleOrganizer, models.RoleAdmin)).Post("/", h.Create)
		r.Get("/mine", h.Mine)
		r.Get("/{id}", h.Show)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/publish", h.Publish)
		r.Post("/{id}/complete", h.Complete)

		r.Post("/{id}/sub-events", h.RequestSubEvent)
		r.With(auth.RequireRole(models.RoleSponsor)).Post("/{id}/sponsorship-requests", h.RequestSponsorship)

		r.Get("/{id}/announcements", h.ListAnnouncements)
		r.Post("/{id}/announcements", h.CreateAnnouncement)
		r.Patch("/{id}/announcements/{annID}", h.UpdateAnnouncement)
		r.Delete("/{id}/announcements/{annID}", h.DeleteAnnouncement)
	})
}
