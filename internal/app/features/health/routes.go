// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// MountRoutes serves the health check on GET and HEAD.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Serve)
	r.Head("/", h.Serve)
}
