package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-manager/internal/platform/httpx"
	"github.com/fleetops/fleet-manager/internal/shared"
)

// ErrForbidden is returned when a request fails authorization, including a
// failed ownership check after GrantedIfOwner.
var ErrForbidden = fmt.Errorf("%w: insufficient permissions", httpx.ErrForbidden)

// Authorization carries the decision reached for a request down to the
// handler. A GrantedIfOwner decision is an obligation: the handler must
// resolve it through Enforce or an equivalent instance-level filter.
type Authorization struct {
	Query    Query
	Decision Decision
}

// NeedsOwnership reports whether the handler must verify ownership.
func (a Authorization) NeedsOwnership() bool {
	return a.Decision == GrantedIfOwner
}

// OwnershipChecker answers whether principal owns or is assigned to the
// resource instance identified by resourceID.
type OwnershipChecker interface {
	Owns(ctx context.Context, principal *shared.Principal, resourceID uuid.UUID) (bool, error)
}

// OwnershipFunc adapts a function to OwnershipChecker.
type OwnershipFunc func(ctx context.Context, principal *shared.Principal, resourceID uuid.UUID) (bool, error)

// Owns implements OwnershipChecker.
func (f OwnershipFunc) Owns(ctx context.Context, principal *shared.Principal, resourceID uuid.UUID) (bool, error) {
	return f(ctx, principal, resourceID)
}

// Enforce completes the authorization for one resource instance. Granted
// passes, Denied fails, and GrantedIfOwner passes only when checker confirms
// ownership.
func (a Authorization) Enforce(ctx context.Context, checker OwnershipChecker, principal *shared.Principal, resourceID uuid.UUID) error {
	switch a.Decision {
	case Granted:
		return nil
	case GrantedIfOwner:
		if checker == nil || principal == nil {
			return ErrForbidden
		}
		owns, err := checker.Owns(ctx, principal, resourceID)
		if err != nil {
			return fmt.Errorf("rbac: ownership check %s: %w", a.Query, err)
		}
		if !owns {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

type authorizationContextKey struct{}

// ContextWithAuthorization stores the decision for downstream handlers.
func ContextWithAuthorization(ctx context.Context, a Authorization) context.Context {
	return context.WithValue(ctx, authorizationContextKey{}, a)
}

// AuthorizationFromContext returns the recorded decision. Without one the
// zero value is returned, whose Decision is Denied.
func AuthorizationFromContext(ctx context.Context) (Authorization, bool) {
	a, ok := ctx.Value(authorizationContextKey{}).(Authorization)
	return a, ok
}
