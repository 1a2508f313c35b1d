package drivers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the organization's drivers with their current vehicles.
func (s *Service) List(ctx context.Context, organizationID uuid.UUID) ([]Driver, error) {
	drivers, err := s.repo.List(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(drivers))
	for i, d := range drivers {
		ids[i] = d.ID
	}
	assignments, err := s.repo.Assignments(ctx, ids, true)
	if err != nil {
		return nil, fmt.Errorf("load driver assignments: %w", err)
	}
	for i := range drivers {
		drivers[i].Assignments = nonNil(assignments[drivers[i].ID])
	}
	return drivers, nil
}

// Get returns one driver with the full assignment history.
func (s *Service) Get(ctx context.Context, organizationID, id uuid.UUID) (*Driver, error) {
	driver, err := s.repo.Get(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	assignments, err := s.repo.Assignments(ctx, []uuid.UUID{id}, false)
	if err != nil {
		return nil, fmt.Errorf("load driver assignments: %w", err)
	}
	driver.Assignments = nonNil(assignments[id])
	return driver, nil
}

func nonNil(in []AssignmentSummary) []AssignmentSummary {
	if in == nil {
		return []AssignmentSummary{}
	}
	return in
}
