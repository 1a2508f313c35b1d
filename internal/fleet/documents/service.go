package documents

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-manager/internal/platform/httpx"
	"github.com/fleetops/fleet-manager/internal/platform/objectstore"
	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

type Service struct {
	repo      Repository
	store     objectstore.Store
	ownership rbac.OwnershipChecker
	activity  shared.ActivityRecorder
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, store objectstore.Store, ownership rbac.OwnershipChecker, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, ownership: ownership, activity: activity, logger: logger, now: time.Now}
}

// authorizeVehicle checks the vehicle belongs to the principal's
// organization and settles any ownership obligation on it.
func (s *Service) authorizeVehicle(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, vehicleID uuid.UUID) error {
	ok, err := s.repo.VehicleInOrganization(ctx, principal.OrganizationID, vehicleID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVehicleNotFound
	}
	return authz.Enforce(ctx, s.ownership, principal, vehicleID)
}

func (s *Service) ListByVehicle(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, vehicleID uuid.UUID) ([]Document, error) {
	if err := s.authorizeVehicle(ctx, principal, authz, vehicleID); err != nil {
		return nil, err
	}
	return s.repo.ListByVehicle(ctx, vehicleID)
}

// Upload stores the file and records it. The stored object is removed again
// when the record cannot be written.
func (s *Service) Upload(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, req UploadRequest) (*Document, error) {
	if err := s.authorizeVehicle(ctx, principal, authz, req.VehicleID); err != nil {
		return nil, err
	}

	doc := Document{
		ID:         uuid.New(),
		VehicleID:  req.VehicleID,
		Type:       strings.ToUpper(req.Type),
		Name:       req.Name,
		UploadedBy: principal.UserID,
		CreatedAt:  s.now(),
	}
	if doc.Name == "" {
		doc.Name = req.Filename
	}
	if req.ExpiryDate != "" {
		d, err := time.Parse(time.DateOnly, req.ExpiryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: expiry_date: %v", httpx.ErrValidation, err)
		}
		doc.ExpiryDate = &d
	}

	doc.StorageKey = objectKey(req.VehicleID, doc.ID, req.Filename)
	url, err := s.store.Put(ctx, doc.StorageKey, req.Body, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	doc.DocumentURL = url

	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, doc.StorageKey); delErr != nil {
			s.logger.Error("orphaned document object", slog.String("key", doc.StorageKey), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.record(ctx, principal, "uploaded", doc.ID, map[string]any{"vehicle_id": doc.VehicleID.String(), "type": doc.Type})
	return &doc, nil
}

func (s *Service) Delete(ctx context.Context, principal *shared.Principal, authz rbac.Authorization, id uuid.UUID) error {
	doc, err := s.repo.Get(ctx, principal.OrganizationID, id)
	if err != nil {
		return err
	}
	if err := authz.Enforce(ctx, s.ownership, principal, doc.VehicleID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if doc.StorageKey != "" {
		if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
			s.logger.Warn("document object delete failed", slog.String("key", doc.StorageKey), slog.Any("error", err))
		}
	}
	s.record(ctx, principal, "deleted", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, principal *shared.Principal, action string, id uuid.UUID, details map[string]any) {
	if s.activity == nil {
		return
	}
	err := s.activity.Record(ctx, shared.ActivityLog{
		UserID:   principal.UserID,
		Action:   action,
		Entity:   "document",
		EntityID: id.String(),
		Details:  details,
	})
	if err != nil {
		s.logger.Warn("activity log failed", slog.String("entity", "document"), slog.Any("error", err))
	}
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func objectKey(vehicleID, documentID uuid.UUID, filename string) string {
	base := unsafeKeyChars.ReplaceAllString(path.Base(filename), "_")
	if base == "" || base == "." || base == "_" {
		base = "file"
	}
	return "vehicles/" + vehicleID.String() + "/" + documentID.String() + "-" + base
}
