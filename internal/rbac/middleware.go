package rbac

import (
	"log/slog"
	"net/http"

	"github.com/fleetops/fleet-manager/internal/platform/httpx"
	"github.com/fleetops/fleet-manager/internal/shared"
)

// DecisionObserver receives every evaluation made by the middleware.
type DecisionObserver interface {
	ObserveDecision(resource, action, decision string)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Policy   *Policy
	Logger   *slog.Logger
	Observer DecisionObserver
}

// Authorize evaluates q for the principal and records the outcome.
func (m Middleware) Authorize(principal *shared.Principal, q Query) Authorization {
	decision := Denied
	if principal != nil {
		decision = m.Policy.EvaluateQuery(Role(principal.Role), q)
	}
	if m.Observer != nil {
		m.Observer.ObserveDecision(q.Resource, q.Action, decision.String())
	}
	if decision == Denied && m.Logger != nil {
		attrs := []any{slog.String("permission", q.String())}
		if principal != nil {
			attrs = append(attrs, slog.String("user_id", principal.UserID.String()), slog.String("role", principal.Role))
		}
		m.Logger.Warn("rbac denied", attrs...)
	}
	return Authorization{Query: q, Decision: decision}
}

// Require rejects requests whose principal is denied resource:action and
// records the decision in the request context. GrantedIfOwner requests pass
// through; the handler owns the ownership check.
func (m Middleware) Require(resource, action string) func(http.Handler) http.Handler {
	q := Query{Resource: resource, Action: action}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			authz := m.Authorize(principal, q)
			if authz.Decision == Denied {
				httpx.RespondError(w, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithAuthorization(r.Context(), authz)))
		})
	}
}

// RequireAny admits requests granted any of queries and records the
// strongest decision reached: Granted beats GrantedIfOwner.
func (m Middleware) RequireAny(queries ...Query) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			best := Authorization{Decision: Denied}
			for _, q := range queries {
				authz := m.Authorize(principal, q)
				if authz.Decision == Granted {
					best = authz
					break
				}
				if authz.Decision == GrantedIfOwner && best.Decision == Denied {
					best = authz
				}
			}
			if best.Decision == Denied {
				httpx.RespondError(w, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithAuthorization(r.Context(), best)))
		})
	}
}

// RequireRole admits only principals holding one of roles.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if _, ok := allowed[Role(principal.Role)]; !ok {
				if m.Logger != nil {
					m.Logger.Warn("rbac role rejected", slog.String("role", principal.Role), slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
