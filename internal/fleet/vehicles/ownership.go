package vehicles

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

// Ownership resolves GrantedIfOwner decisions for anything scoped by
// vehicle: a principal owns a vehicle while actively assigned to it.
type Ownership struct {
	assignments AssignmentReader
}

func NewOwnership(assignments AssignmentReader) *Ownership {
	return &Ownership{assignments: assignments}
}

// Owns implements rbac.OwnershipChecker.
func (o *Ownership) Owns(ctx context.Context, principal *shared.Principal, vehicleID uuid.UUID) (bool, error) {
	return o.assignments.IsAssigned(ctx, principal.UserID, vehicleID)
}

// VehicleIDs lists the vehicles principal currently owns. The result is
// never nil so callers can pass it straight into list filters.
func (o *Ownership) VehicleIDs(ctx context.Context, principal *shared.Principal) ([]uuid.UUID, error) {
	ids, err := o.assignments.AssignedVehicleIDs(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

var _ rbac.OwnershipChecker = (*Ownership)(nil)
