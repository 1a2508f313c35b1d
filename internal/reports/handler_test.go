package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

type expense struct {
	vehicle  uuid.UUID
	category string
	amount   float64
	date     time.Time
}

type memoryRepository struct {
	org       uuid.UUID
	expenses  []expense
	lastSince time.Time
	vehicles  []VehicleUtilization
}

func (m *memoryRepository) ExpenseTotals(_ context.Context, f SummaryFilter) ([]CategoryTotal, error) {
	if f.OrganizationID != m.org {
		return nil, nil
	}
	allowed := map[uuid.UUID]bool{}
	for _, id := range f.VehicleIDs {
		allowed[id] = true
	}
	byCategory := map[string]*CategoryTotal{}
	var order []string
	for _, e := range m.expenses {
		if f.VehicleIDs != nil && !allowed[e.vehicle] {
			continue
		}
		if f.VehicleID != nil && *f.VehicleID != e.vehicle {
			continue
		}
		if f.From != nil && e.date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.date.After(*f.To) {
			continue
		}
		c, ok := byCategory[e.category]
		if !ok {
			c = &CategoryTotal{Category: e.category}
			byCategory[e.category] = c
			order = append(order, e.category)
		}
		c.Total += e.amount
		c.Count++
	}
	var out []CategoryTotal
	for _, k := range order {
		out = append(out, *byCategory[k])
	}
	return out, nil
}

func (m *memoryRepository) Utilization(_ context.Context, _ uuid.UUID, vehicleIDs []uuid.UUID, since time.Time) ([]VehicleUtilization, error) {
	m.lastSince = since
	if vehicleIDs == nil {
		return m.vehicles, nil
	}
	var out []VehicleUtilization
	for _, v := range m.vehicles {
		for _, id := range vehicleIDs {
			if v.VehicleID == id {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

type fixedOwnership struct {
	owner uuid.UUID
	owned uuid.UUID
}

func (f fixedOwnership) Owns(_ context.Context, p *shared.Principal, id uuid.UUID) (bool, error) {
	return p.UserID == f.owner && id == f.owned, nil
}

func (f fixedOwnership) VehicleIDs(_ context.Context, p *shared.Principal) ([]uuid.UUID, error) {
	if p.UserID == f.owner {
		return []uuid.UUID{f.owned}, nil
	}
	return []uuid.UUID{}, nil
}

type env struct {
	router chi.Router
	repo   *memoryRepository
	svc    *Service
	owner  *shared.Principal
	mine   uuid.UUID
	theirs uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	policy, err := rbac.DefaultPolicy()
	require.NoError(t, err)

	org := uuid.New()
	e := &env{mine: uuid.New(), theirs: uuid.New()}
	e.owner = &shared.Principal{UserID: uuid.New(), OrganizationID: org, Role: "VEHICLE_OWNER"}
	day := func(d int) time.Time { return time.Date(2024, 5, d, 10, 0, 0, 0, time.UTC) }
	e.repo = &memoryRepository{
		org: org,
		expenses: []expense{
			{e.mine, "FUEL", 100, day(1)},
			{e.mine, "FUEL", 50, day(10)},
			{e.theirs, "TOLLS", 20, day(10)},
			{e.theirs, "FUEL", 30, day(20)},
		},
		vehicles: []VehicleUtilization{
			{VehicleID: e.mine, PlateNumber: "B 1", AssignmentCount: 2, TotalExpenses: 150},
			{VehicleID: e.theirs, PlateNumber: "B 2", AssignmentCount: 1, TotalExpenses: 50},
		},
	}
	e.svc = NewService(e.repo, fixedOwnership{owner: e.owner.UserID, owned: e.mine})
	e.svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	e.router = chi.NewRouter()
	e.router.Route("/reports", NewHandler(nil, e.svc, rbac.Middleware{Policy: policy}).MountRoutes)
	return e
}

func (e *env) get(t *testing.T, p *shared.Principal, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	if out != nil && rr.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
	}
	return rr.Code
}

func (e *env) as(role string) *shared.Principal {
	return &shared.Principal{UserID: uuid.New(), OrganizationID: e.owner.OrganizationID, Role: role}
}

func TestExpenseSummaryTotals(t *testing.T) {
	e := newEnv(t)

	var summary ExpenseSummary
	require.Equal(t, http.StatusOK, e.get(t, e.as("FLEET_MANAGER"), "/reports/expenses/summary", &summary))
	assert.Equal(t, 200.0, summary.Total)
	require.Len(t, summary.Categories, 2)
	assert.Equal(t, CategoryTotal{Category: "FUEL", Total: 180, Count: 3}, summary.Categories[0])

	summary = ExpenseSummary{}
	require.Equal(t, http.StatusOK, e.get(t, e.as("ACCOUNTANT"), "/reports/expenses/summary?start_date=2024-05-10&end_date=2024-05-10", &summary))
	assert.Equal(t, 70.0, summary.Total, "end_date covers the whole day")

	summary = ExpenseSummary{}
	require.Equal(t, http.StatusOK, e.get(t, e.as("ADMIN"), "/reports/expenses/summary?vehicle_id="+e.theirs.String(), &summary))
	assert.Equal(t, 50.0, summary.Total)
}

func TestExpenseSummaryOwnerScope(t *testing.T) {
	e := newEnv(t)

	var summary ExpenseSummary
	require.Equal(t, http.StatusOK, e.get(t, e.owner, "/reports/expenses/summary", &summary))
	assert.Equal(t, 150.0, summary.Total)

	assert.Equal(t, http.StatusForbidden, e.get(t, e.owner, "/reports/expenses/summary?vehicle_id="+e.theirs.String(), nil))

	stranger := e.as("VEHICLE_OWNER")
	summary = ExpenseSummary{}
	require.Equal(t, http.StatusOK, e.get(t, stranger, "/reports/expenses/summary", &summary))
	assert.Zero(t, summary.Total)
	assert.Empty(t, summary.Categories)
}

func TestExpenseSummaryRejects(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusForbidden, e.get(t, e.as("DRIVER"), "/reports/expenses/summary", nil))
	assert.Equal(t, http.StatusBadRequest, e.get(t, e.as("ADMIN"), "/reports/expenses/summary?start_date=may", nil))
	assert.Equal(t, http.StatusBadRequest, e.get(t, e.as("ADMIN"), "/reports/expenses/summary?vehicle_id=1", nil))
}

func TestUtilization(t *testing.T) {
	e := newEnv(t)

	var all []VehicleUtilization
	require.Equal(t, http.StatusOK, e.get(t, e.as("FLEET_MANAGER"), "/reports/vehicles/utilization", &all))
	assert.Len(t, all, 2)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), e.repo.lastSince)

	var mine []VehicleUtilization
	require.Equal(t, http.StatusOK, e.get(t, e.owner, "/reports/vehicles/utilization", &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, e.mine, mine[0].VehicleID)

	assert.Equal(t, http.StatusForbidden, e.get(t, e.as("ACCOUNTANT"), "/reports/vehicles/utilization", nil))
}
