// Package fleet wires the vehicle, driver, expense and document routes.
package fleet

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fleet-manager/internal/fleet/documents"
	"github.com/fleetops/fleet-manager/internal/fleet/drivers"
	"github.com/fleetops/fleet-manager/internal/fleet/expenses"
	"github.com/fleetops/fleet-manager/internal/fleet/vehicles"
	"github.com/fleetops/fleet-manager/internal/platform/objectstore"
	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

// Deps groups what the fleet domain needs from the runtime.
type Deps struct {
	Pool           *pgxpool.Pool
	Logger         *slog.Logger
	RBAC           rbac.Middleware
	Store          objectstore.Store
	Activity       shared.ActivityRecorder
	MaxUploadBytes int64
}

// Module holds the fleet handlers and the vehicle ownership resolver
// shared with other domains.
type Module struct {
	ownership *vehicles.Ownership

	vehicles  *vehicles.Handler
	drivers   *drivers.Handler
	expenses  *expenses.Handler
	documents *documents.Handler
}

// New builds repositories, services and handlers for the fleet domain.
func New(deps Deps) *Module {
	vehiclesSvc := vehicles.NewService(vehicles.NewRepository(deps.Pool), deps.Activity, deps.Logger)
	ownership := vehiclesSvc.Ownership()

	driversSvc := drivers.NewService(drivers.NewRepository(deps.Pool))
	expensesSvc := expenses.NewService(expenses.NewRepository(deps.Pool), ownership, deps.Activity, deps.Logger)
	documentsSvc := documents.NewService(documents.NewRepository(deps.Pool), deps.Store, ownership, deps.Activity, deps.Logger)

	return &Module{
		ownership: ownership,
		vehicles:  vehicles.NewHandler(deps.Logger, vehiclesSvc, deps.RBAC),
		drivers:   drivers.NewHandler(deps.Logger, driversSvc, deps.RBAC),
		expenses:  expenses.NewHandler(deps.Logger, expensesSvc, deps.RBAC),
		documents: documents.NewHandler(deps.Logger, documentsSvc, deps.RBAC, deps.MaxUploadBytes),
	}
}

// Ownership resolves vehicle ownership for principals.
func (m *Module) Ownership() *vehicles.Ownership {
	return m.ownership
}

// MountRoutes wires all fleet domain routes.
func (m *Module) MountRoutes(r chi.Router) {
	r.Route("/vehicles", m.vehicles.MountRoutes)
	r.Route("/drivers", m.drivers.MountRoutes)
	r.Route("/expenses", m.expenses.MountRoutes)
	r.Route("/documents", m.documents.MountRoutes)
}
