package vehicles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fleetops/fleet-manager/internal/platform/httpx"
	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)

	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		status = &s
	}
	vehicles, err := h.service.List(ctx, shared.PrincipalFromContext(ctx), authz, status)
	if err != nil {
		h.fail(w, "list vehicles failed", err)
		return
	}
	if vehicles == nil {
		vehicles = []Vehicle{}
	}
	httpx.JSON(w, http.StatusOK, vehicles)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)
	vehicle, err := h.service.Get(ctx, shared.PrincipalFromContext(ctx), authz, id)
	if err != nil {
		h.fail(w, "get vehicle failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVehicleRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)
	vehicle, err := h.service.Create(ctx, shared.PrincipalFromContext(ctx), authz, req)
	if err != nil {
		h.fail(w, "create vehicle failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, vehicle)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdateVehicleRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)
	vehicle, err := h.service.Update(ctx, shared.PrincipalFromContext(ctx), authz, id, req)
	if err != nil {
		h.fail(w, "update vehicle failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)
	if err := h.service.Delete(ctx, shared.PrincipalFromContext(ctx), authz, id); err != nil {
		h.fail(w, "delete vehicle failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req AssignVehicleRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)
	assignment, err := h.service.Assign(ctx, shared.PrincipalFromContext(ctx), authz, id, req)
	if err != nil {
		h.fail(w, "assign vehicle failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, assignment)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid vehicle id")
		return uuid.Nil, false
	}
	return id, true
}
