// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/campusevents/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes mounts /auth. Register and login are public.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.With(auth.RequireSignedIn).Get("/me", h.Me)
}
