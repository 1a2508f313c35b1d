package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

// VehicleOwnership resolves which vehicles a principal owns.
type VehicleOwnership interface {
	rbac.OwnershipChecker
	VehicleIDs(ctx context.Context, principal *shared.Principal) ([]uuid.UUID, error)
}

type Service struct {
	repo      Repository
	ownership VehicleOwnership
	now       func() time.Time
}

func NewService(repo Repository, ownership VehicleOwnership) *Service {
	return &Service{repo: repo, ownership: ownership, now: time.Now}
}

// ExpenseSummary totals expenses per category. Owners only see their own
// vehicles, and asking for someone else's vehicle is forbidden.
func (s *Service) ExpenseSummary(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, filter SummaryFilter) (*ExpenseSummary, error) {
	filter.OrganizationID = principal.OrganizationID
	if authz.NeedsOwnership() {
		if filter.VehicleID != nil {
			if err := authz.Enforce(ctx, s.ownership, principal, *filter.VehicleID); err != nil {
				return nil, err
			}
		}
		ids, err := s.ownership.VehicleIDs(ctx, principal)
		if err != nil {
			return nil, fmt.Errorf("resolve assigned vehicles: %w", err)
		}
		filter.VehicleIDs = ids
	}

	summary := &ExpenseSummary{Categories: []CategoryTotal{}}
	if filter.VehicleIDs != nil && len(filter.VehicleIDs) == 0 {
		return summary, nil
	}
	totals, err := s.repo.ExpenseTotals(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, t := range totals {
		summary.Categories = append(summary.Categories, t)
		summary.Total += t.Total
	}
	return summary, nil
}

// Utilization reports assignment and expense activity over the last
// UtilizationWindow.
func (s *Service) Utilization(ctx context.Context, principal *shared.Principal, authz rbac.Authorization) ([]VehicleUtilization, error) {
	var ids []uuid.UUID
	if authz.NeedsOwnership() {
		var err error
		if ids, err = s.ownership.VehicleIDs(ctx, principal); err != nil {
			return nil, fmt.Errorf("resolve assigned vehicles: %w", err)
		}
		if len(ids) == 0 {
			return []VehicleUtilization{}, nil
		}
	}
	out, err := s.repo.Utilization(ctx, principal.OrganizationID, ids, s.now().Add(-UtilizationWindow))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []VehicleUtilization{}
	}
	return out, nil
}
