package vehicles

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-manager/internal/platform/httpx"
	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

type Service struct {
	repo      Repository
	ownership *Ownership
	activity  shared.ActivityRecorder
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ownership: NewOwnership(repo), activity: activity, logger: logger, now: time.Now}
}

// Ownership exposes the checker other vehicle scoped modules share.
func (s *Service) Ownership() *Ownership {
	return s.ownership
}

// List returns the organization's vehicles. Under GrantedIfOwner only
// vehicles assigned to principal are returned.
func (s *Service) List(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, status *string) ([]Vehicle, error) {
	req := ListVehiclesRequest{OrganizationID: principal.OrganizationID, Status: status}
	if authz.NeedsOwnership() {
		ids, err := s.ownership.VehicleIDs(ctx, principal)
		if err != nil {
			return nil, fmt.Errorf("resolve assigned vehicles: %w", err)
		}
		req.VehicleIDs = ids
	}
	return s.repo.List(ctx, req)
}

// Get loads one vehicle. Vehicles outside the organization are not found;
// vehicles the principal may only see as owner require an active assignment.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, id uuid.UUID) (*Vehicle, error) {
	vehicle, err := s.repo.Get(ctx, principal.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Enforce(ctx, s.ownership, principal, id); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// Create adds a vehicle. A new vehicle has no assignment yet, so an
// ownership-qualified grant can never be satisfied here.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, req CreateVehicleRequest) (*Vehicle, error) {
	if err := authz.Enforce(ctx, nil, principal, uuid.Nil); err != nil {
		return nil, err
	}
	if maxYear := s.now().Year() + 1; req.Year > maxYear {
		return nil, fmt.Errorf("%w: year must be between 1900 and %d", httpx.ErrValidation, maxYear)
	}
	vehicle := Vehicle{
		ID:             uuid.New(),
		OrganizationID: principal.OrganizationID,
		VIN:            req.VIN,
		PlateNumber:    req.PlateNumber,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Mileage:        req.Mileage,
		FuelType:       req.FuelType,
		Color:          req.Color,
		OwnershipType:  req.OwnershipType,
		Status:         StatusActive,
		PurchasePrice:  req.PurchasePrice,
	}
	if req.PurchaseDate != nil {
		d, err := time.Parse(time.DateOnly, *req.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("%w: purchase_date: %v", httpx.ErrValidation, err)
		}
		vehicle.PurchaseDate = &d
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	s.record(ctx, principal, "created", vehicle.ID, map[string]any{"plate_number": vehicle.PlateNumber})

	created, err := s.repo.Get(ctx, principal.OrganizationID, vehicle.ID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, id uuid.UUID, req UpdateVehicleRequest) (*Vehicle, error) {
	existing, err := s.Get(ctx, principal, authz, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.PlateNumber != nil {
		updates["plate_number"] = *req.PlateNumber
	}
	if req.Make != nil {
		updates["make"] = *req.Make
	}
	if req.Model != nil {
		updates["model"] = *req.Model
	}
	if req.Mileage != nil {
		updates["mileage"] = *req.Mileage
	}
	if req.FuelType != nil {
		updates["fuel_type"] = *req.FuelType
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.OwnershipType != nil {
		updates["ownership_type"] = *req.OwnershipType
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, principal.OrganizationID, id, updates); err != nil {
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	s.record(ctx, principal, "updated", id, map[string]any{"changes": updates})
	return s.repo.Get(ctx, principal.OrganizationID, id)
}

// Delete retires the vehicle by marking it SOLD; history stays intact.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, id uuid.UUID) error {
	if _, err := s.Get(ctx, principal, authz, id); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, principal.OrganizationID, id, map[string]any{"status": StatusSold}); err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	s.record(ctx, principal, "deleted", id, nil)
	return nil
}

// Assign ends the vehicle's active assignment and hands it to driverID.
func (s *Service) Assign(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, id uuid.UUID, req AssignVehicleRequest) (*Assignment, error) {
	if _, err := s.Get(ctx, principal, authz, id); err != nil {
		return nil, err
	}
	userID, err := s.repo.DriverUserID(ctx, principal.OrganizationID, req.DriverID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	assignment := Assignment{
		ID:           uuid.New(),
		VehicleID:    id,
		DriverID:     req.DriverID,
		UserID:       userID,
		AssignedBy:   principal.UserID,
		AssignedDate: now,
		IsActive:     true,
		Notes:        req.Notes,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.EndActiveAssignments(ctx, id, now); err != nil {
			return err
		}
		return repo.CreateAssignment(ctx, assignment)
	})
	if err != nil {
		return nil, fmt.Errorf("assign vehicle: %w", err)
	}
	s.record(ctx, principal, "assigned", id, map[string]any{"driver_id": req.DriverID.String()})
	return &assignment, nil
}

func (s *Service) record(ctx context.Context, principal *shared.Principal, action string, id uuid.UUID, details map[string]any) {
	if s.activity == nil {
		return
	}
	err := s.activity.Record(ctx, shared.ActivityLog{
		UserID:   principal.UserID,
		Action:   action,
		Entity:   "vehicle",
		EntityID: id.String(),
		Details:  details,
	})
	if err != nil {
		s.logger.Warn("activity log failed", slog.String("entity", "vehicle"), slog.Any("error", err))
	}
}
