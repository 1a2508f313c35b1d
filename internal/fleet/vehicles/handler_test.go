package vehicles

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

func newTestRouter(t *testing.T, f *fixture) chi.Router {
	t.Helper()
	policy, err := rbac.DefaultPolicy()
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Route("/vehicles", NewHandler(nil, f.svc, rbac.Middleware{Policy: policy}).MountRoutes)
	return r
}

func serveAs(r http.Handler, principal *shared.Principal, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandlerDriverSeesOnlyAssignedVehicles(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)

	rr := serveAs(r, f.driver, http.MethodGet, "/vehicles", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []Vehicle
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, f.assigned.ID, listed[0].ID)

	assert.Equal(t, http.StatusOK, serveAs(r, f.driver, http.MethodGet, "/vehicles/"+f.assigned.ID.String(), "").Code)
	assert.Equal(t, http.StatusForbidden, serveAs(r, f.driver, http.MethodGet, "/vehicles/"+f.unrelated.ID.String(), "").Code)
	assert.Equal(t, http.StatusNotFound, serveAs(r, f.manager, http.MethodGet, "/vehicles/"+uuid.NewString(), "").Code)
}

func TestHandlerPermissionGates(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)
	admin := &shared.Principal{UserID: uuid.New(), OrganizationID: f.org, Role: "ADMIN"}

	assert.Equal(t, http.StatusForbidden, serveAs(r, f.manager, http.MethodDelete, "/vehicles/"+f.unrelated.ID.String(), "").Code)
	assert.Equal(t, http.StatusForbidden, serveAs(r, f.driver, http.MethodPut, "/vehicles/"+f.assigned.ID.String(), `{"mileage": 10}`).Code)
	assert.Equal(t, http.StatusNoContent, serveAs(r, admin, http.MethodDelete, "/vehicles/"+f.unrelated.ID.String(), "").Code)

	accountant := &shared.Principal{UserID: uuid.New(), OrganizationID: f.org, Role: "ACCOUNTANT"}
	assert.Equal(t, http.StatusOK, serveAs(r, accountant, http.MethodGet, "/vehicles", "").Code)
	assert.Equal(t, http.StatusForbidden, serveAs(r, accountant, http.MethodPost, "/vehicles", `{}`).Code)

	owner := &shared.Principal{UserID: uuid.New(), OrganizationID: f.org, Role: "VEHICLE_OWNER"}
	body := `{"vin":"JH4KA7561PC008269","plate_number":"B 2","make":"Isuzu","model":"Elf","year":2020,"mileage":0,"fuel_type":"DIESEL","ownership_type":"OWNED"}`
	rr := serveAs(r, owner, http.MethodPost, "/vehicles", body)
	assert.Equal(t, http.StatusForbidden, rr.Code, rr.Body.String())
}

func TestHandlerCreateValidation(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)
	admin := &shared.Principal{UserID: uuid.New(), OrganizationID: f.org, Role: "ADMIN"}
	assert.Equal(t, http.StatusForbidden, serveAs(r, f.manager, http.MethodPost, "/vehicles", `{}`).Code)

	bad := `{"vin":"SHORT","plate_number":"B 1","make":"Isuzu","model":"Elf","year":2020,"mileage":0,"fuel_type":"DIESEL","ownership_type":"OWNED"}`
	assert.Equal(t, http.StatusBadRequest, serveAs(r, admin, http.MethodPost, "/vehicles", bad).Code)

	badOwnership := `{"vin":"JH4KA7561PC008269","plate_number":"B 1","make":"Isuzu","model":"Elf","year":2020,"mileage":0,"fuel_type":"DIESEL","ownership_type":"BORROWED"}`
	assert.Equal(t, http.StatusBadRequest, serveAs(r, admin, http.MethodPost, "/vehicles", badOwnership).Code)

	good := `{"vin":"JH4KA7561PC008269","plate_number":"B 1","make":"Isuzu","model":"Elf","year":2020,"mileage":0,"fuel_type":"DIESEL","ownership_type":"LEASED"}`
	rr := serveAs(r, admin, http.MethodPost, "/vehicles", good)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestHandlerAssign(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)

	rr := serveAs(r, f.manager, http.MethodPost, "/vehicles/"+f.unrelated.ID.String()+"/assign", `{"driver_id":"`+f.driverID.String()+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, http.StatusBadRequest, serveAs(r, f.manager, http.MethodPost, "/vehicles/"+f.unrelated.ID.String()+"/assign", `{}`).Code)
}
