package vehicles

import (
	"github.com/go-chi/chi/v5"

	"github.com/fleetops/fleet-manager/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceVehicles, shared.ActionRead))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.With(h.rbac.Require(shared.ResourceVehicles, shared.ActionCreate)).Post("/", h.Create)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceVehicles, shared.ActionUpdate))
		r.Put("/{id}", h.Update)
		r.Post("/{id}/assign", h.Assign)
	})
	r.With(h.rbac.Require(shared.ResourceVehicles, shared.ActionDelete)).Delete("/{id}", h.Delete)
}
