package expenses

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-manager/internal/platform/httpx"
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
	activity  shared.ActivityRecorder
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, ownership VehicleOwnership, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ownership: ownership, activity: activity, logger: logger, now: time.Now}
}

// CreateQuery is the permission needed to record an expense of category.
// Fuel expenses use the narrowed query so roles granted only
// expenses:create:fuel can log them.
func CreateQuery(category string) rbac.Query {
	q := rbac.Query{Resource: shared.ResourceExpenses, Action: shared.ActionCreate}
	if strings.EqualFold(category, CategoryFuel) {
		q.Qualifier = "fuel"
	}
	return q
}

func (s *Service) List(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, req ListExpensesRequest) ([]Expense, error) {
	req.OrganizationID = principal.OrganizationID
	if authz.NeedsOwnership() {
		ids, err := s.ownership.VehicleIDs(ctx, principal)
		if err != nil {
			return nil, fmt.Errorf("resolve assigned vehicles: %w", err)
		}
		req.VehicleIDs = ids
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, req CreateExpenseRequest) (*Expense, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.VehicleInOrganization(ctx, principal.OrganizationID, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVehicleNotFound
	}
	if err := authz.Enforce(ctx, s.ownership, principal, req.VehicleID); err != nil {
		return nil, err
	}

	expense := Expense{
		ID:          uuid.New(),
		VehicleID:   req.VehicleID,
		Category:    req.Category,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
		Odometer:    req.Odometer,
		Supplier:    req.Supplier,
		CreatedByID: principal.UserID,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	if s.activity != nil {
		err := s.activity.Record(ctx, shared.ActivityLog{
			UserID:   principal.UserID,
			Action:   "created",
			Entity:   "expense",
			EntityID: expense.ID.String(),
			Details:  map[string]any{"category": expense.Category, "amount": expense.Amount},
		})
		if err != nil {
			s.logger.Warn("activity log failed", slog.String("entity", "expense"), slog.Any("error", err))
		}
	}
	return &expense, nil
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", httpx.ErrValidation, raw)
	}
	return t, nil
}
