package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fleetops/fleet-manager/internal/platform/httpx"
	"github.com/fleetops/fleet-manager/internal/shared"
)

// Handler authenticates API requests from their bearer token.
type Handler struct {
	logger   *slog.Logger
	verifier *Verifier
	service  *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, verifier *Verifier, service *Service) *Handler {
	return &Handler{logger: logger, verifier: verifier, service: service}
}

// Middleware resolves the principal and stores it in the request context.
// Requests without a valid token for an active user get 401.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		subject, err := h.verifier.Verify(raw)
		if err != nil {
			h.logger.Debug("auth verify", slog.Any("error", err))
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		principal, err := h.service.Resolve(r.Context(), subject)
		switch {
		case err == nil:
		case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrInactiveUser):
			h.logger.Warn("auth principal rejected", slog.String("subject", subject), slog.Any("error", err))
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		default:
			h.logger.Error("auth resolve principal", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
