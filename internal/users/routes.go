package users

import (
	"github.com/go-chi/chi/v5"

	"github.com/fleetops/fleet-manager/internal/rbac"
)

// MountRoutes registers user routes. User administration is ADMIN only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(rbac.RoleAdmin))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{id}/role", h.UpdateRole)
		r.Delete("/{id}", h.Deactivate)
	})
}
