package drivers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetops/fleet-manager/internal/platform/httpx"
	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceDrivers, shared.ActionRead))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	drivers, err := h.service.List(r.Context(), principal.OrganizationID)
	if err != nil {
		h.logger.Error("list drivers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if drivers == nil {
		drivers = []Driver{}
	}
	httpx.JSON(w, http.StatusOK, drivers)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid driver id")
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	driver, err := h.service.Get(r.Context(), principal.OrganizationID, id)
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("get driver failed", slog.Any("error", err), slog.String("id", id.String()))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, driver)
}
