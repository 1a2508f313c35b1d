package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetops/fleet-manager/internal/fleet"
	"github.com/fleetops/fleet-manager/internal/observability"
	"github.com/fleetops/fleet-manager/internal/platform/httpx"
	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/reports"
	"github.com/fleetops/fleet-manager/internal/users"
	"github.com/fleetops/fleet-manager/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	// Authenticate resolves the bearer token into a principal.
	Authenticate func(http.Handler) http.Handler

	PermissionsHandler *rbac.PermissionsHandler
	UsersHandler       *users.Handler
	Fleet              *fleet.Module
	ReportsHandler     *reports.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with fleet defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.Authenticate != nil {
			r.Use(params.Authenticate)
		}
		if params.PermissionsHandler != nil {
			params.PermissionsHandler.MountRoutes(r)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.Fleet != nil {
			params.Fleet.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "method not allowed", "")
	})

	return r
}
