package users

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

// PendingSubjectPrefix marks accounts that have not signed in yet. The
// identity provider subject replaces it on first login.
const PendingSubjectPrefix = "pending_"

const driverLicenseGrace = 365 * 24 * time.Hour

// PrincipalInvalidator drops cached principals after account changes.
type PrincipalInvalidator interface {
	Invalidate(ctx context.Context, subject string) error
}

type Service struct {
	repo     Repository
	cache    PrincipalInvalidator
	activity shared.ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, cache PrincipalInvalidator, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, activity: activity, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context, organizationID uuid.UUID) ([]User, error) {
	return s.repo.List(ctx, organizationID)
}

// Create registers a user in the actor's organization. DRIVER accounts get a
// driver record whose license expiry is a one-year placeholder.
func (s *Service) Create(ctx context.Context, actor *shared.Principal, req CreateUserRequest) (*User, error) {
	role, ok := rbac.ParseRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, req.Role)
	}

	now := s.now()
	user := User{
		ID:             uuid.New(),
		OrganizationID: actor.OrganizationID,
		Auth0ID:        fmt.Sprintf("%s%d", PendingSubjectPrefix, now.UnixNano()),
		Email:          req.Email,
		Name:           req.Name,
		Role:           string(role),
		PhoneNumber:    req.PhoneNumber,
	}

	var created *User
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		created, err = repo.Create(ctx, user)
		if err != nil {
			return err
		}
		if role != rbac.RoleDriver {
			return nil
		}
		driverID := uuid.New()
		if err := repo.CreateDriver(ctx, DriverProfile{
			ID:            driverID,
			UserID:        created.ID,
			LicenseExpiry: now.Add(driverLicenseGrace),
		}); err != nil {
			return fmt.Errorf("create driver record: %w", err)
		}
		created.DriverID = &driverID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.record(ctx, actor, "created", created, map[string]any{"role": created.Role})
	return created, nil
}

// UpdateRole replaces the user's role wholesale.
func (s *Service) UpdateRole(ctx context.Context, actor *shared.Principal, id uuid.UUID, req UpdateRoleRequest) (*User, error) {
	role, ok := rbac.ParseRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, req.Role)
	}
	user, err := s.repo.UpdateRole(ctx, actor.OrganizationID, id, string(role))
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, user)
	s.record(ctx, actor, "role_changed", user, map[string]any{"role": user.Role})
	return user, nil
}

// Deactivate soft deletes the user. Outstanding tokens stop resolving once
// the cached principal is dropped.
func (s *Service) Deactivate(ctx context.Context, actor *shared.Principal, id uuid.UUID) error {
	user, err := s.repo.Deactivate(ctx, actor.OrganizationID, id)
	if err != nil {
		return err
	}
	s.invalidate(ctx, user)
	s.record(ctx, actor, "deactivated", user, nil)
	return nil
}

func (s *Service) invalidate(ctx context.Context, user *User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, user.Auth0ID); err != nil {
		s.logger.Warn("principal cache invalidation failed", slog.String("user_id", user.ID.String()), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actor *shared.Principal, action string, user *User, details map[string]any) {
	if s.activity == nil {
		return
	}
	err := s.activity.Record(ctx, shared.ActivityLog{
		UserID:   actor.UserID,
		Action:   action,
		Entity:   "user",
		EntityID: user.ID.String(),
		Details:  details,
	})
	if err != nil {
		s.logger.Warn("activity log failed", slog.String("entity", "user"), slog.Any("error", err))
	}
}
