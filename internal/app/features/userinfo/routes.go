// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/dalemusser/campusevents/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers GET /users for signed-in callers.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(auth.RequireSignedIn).Get("/", h.Search)
}
