package reports

import (
	"log/slog"
	"net/http"
	"time"

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
	r.With(h.rbac.RequireAny(
		rbac.Query{Resource: shared.ResourceReports, Action: shared.ActionRead},
		rbac.Query{Resource: shared.ResourceReports, Action: shared.ActionFinancial},
	)).Get("/expenses/summary", h.ExpenseSummary)
	r.With(h.rbac.Require(shared.ResourceReports, shared.ActionRead)).Get("/vehicles/utilization", h.Utilization)
}

func (h *Handler) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter SummaryFilter
	if raw := query.Get("vehicle_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid vehicle_id")
			return
		}
		filter.VehicleID = &id
	}
	var err error
	if filter.From, err = parseDay(query.Get("start_date")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid start_date")
		return
	}
	if filter.To, err = parseDay(query.Get("end_date")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid end_date")
		return
	}
	if filter.To != nil {
		// end_date is inclusive of the whole day.
		end := filter.To.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}

	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)
	summary, err := h.service.ExpenseSummary(ctx, shared.PrincipalFromContext(ctx), authz, filter)
	if err != nil {
		h.fail(w, "expense summary failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) Utilization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authz, _ := rbac.AuthorizationFromContext(ctx)
	report, err := h.service.Utilization(ctx, shared.PrincipalFromContext(ctx), authz)
	if err != nil {
		h.fail(w, "utilization report failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseDay(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
