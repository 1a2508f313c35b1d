package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleet-manager/internal/observability"
	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

func testRouter(t *testing.T, role string) http.Handler {
	t.Helper()
	policy, err := rbac.DefaultPolicy()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authenticate := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			p := &shared.Principal{UserID: uuid.New(), OrganizationID: uuid.New(), Role: role}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
		})
	}
	return NewRouter(RouterParams{
		Logger:             logger,
		Config:             &Config{RateLimitPerMin: 1000},
		Metrics:            observability.NewMetrics(),
		Authenticate:       authenticate,
		PermissionsHandler: rbac.NewPermissionsHandler(logger, policy),
	})
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	testRouter(t, "").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestAPIRequiresAuthentication(t *testing.T) {
	rr := httptest.NewRecorder()
	testRouter(t, "").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me/permissions", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	testRouter(t, "DRIVER").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me/permissions", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t, "ADMIN")
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "fleet_http_requests_total")
}

func TestUnknownRouteIsProblem(t *testing.T) {
	rr := httptest.NewRecorder()
	testRouter(t, "ADMIN").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/vehicles", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	router := NewRouter(RouterParams{Config: &Config{CORSOrigin: "http://localhost:5173"}})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}
