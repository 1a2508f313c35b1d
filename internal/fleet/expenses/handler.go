package expenses

import (
	"log/slog"
	"net/http"
	"time"

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

func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(shared.ResourceExpenses, shared.ActionRead)).Get("/", h.List)
	// The required permission depends on the category in the body.
	r.Post("/", h.Create)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)

	query := r.URL.Query()
	var req ListExpensesRequest
	if raw := query.Get("vehicle_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid vehicle_id")
			return
		}
		req.VehicleID = &id
	}
	if c := query.Get("category"); c != "" {
		req.Category = &c
	}
	for _, bound := range []struct {
		key string
		dst **time.Time
	}{{"from", &req.From}, {"to", &req.To}} {
		raw := query.Get(bound.key)
		if raw == "" {
			continue
		}
		t, err := ParseDate(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		*bound.dst = &t
	}

	expenses, err := h.service.List(ctx, shared.PrincipalFromContext(ctx), authz, req)
	if err != nil {
		h.logger.Error("list expenses failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if expenses == nil {
		expenses = []Expense{}
	}
	httpx.JSON(w, http.StatusOK, expenses)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := shared.PrincipalFromContext(ctx)
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req CreateExpenseRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	authz := h.rbac.Authorize(principal, CreateQuery(req.Category))
	if authz.Decision == rbac.Denied {
		httpx.RespondError(w, rbac.ErrForbidden)
		return
	}

	expense, err := h.service.Create(ctx, principal, authz, req)
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("create expense failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, expense)
}
