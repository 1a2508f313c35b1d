package rbac

import (
	"fmt"
	"strings"
)

// Role is the coarse category assigned to a user.
type Role string

// Known roles.
const (
	RoleAdmin        Role = "ADMIN"
	RoleFleetManager Role = "FLEET_MANAGER"
	RoleAccountant   Role = "ACCOUNTANT"
	RoleDriver       Role = "DRIVER"
	RoleVehicleOwner Role = "VEHICLE_OWNER"
)

// Roles lists every known role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleFleetManager, RoleAccountant, RoleDriver, RoleVehicleOwner}
}

// ParseRole normalises raw input and reports whether it names a known role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Roles() {
		if role == known {
			return role, true
		}
	}
	return role, false
}

// Decision is the outcome of evaluating a query against the policy.
type Decision int

const (
	// Denied rejects the request.
	Denied Decision = iota
	// Granted allows the request without further checks.
	Granted
	// GrantedIfOwner allows the request only after the caller verifies that
	// the principal owns or is assigned to the concrete resource instance.
	GrantedIfOwner
)

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case GrantedIfOwner:
		return "granted_if_owner"
	default:
		return "denied"
	}
}

// MarshalText renders the decision for JSON payloads.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Wildcard matches any value in the resource or action position.
const Wildcard = "*"

// QualifierOwn restricts a grant to resource instances the principal owns.
const QualifierOwn = "own"

// Grant is one parsed entry of a role's permission set.
//
// Resource and Action may hold Wildcard. Qualifier is empty, QualifierOwn,
// or a narrowing sub-scope such as "fuel"; it is never a wildcard.
type Grant struct {
	Resource  string
	Action    string
	Qualifier string
}

// Owned reports whether the grant carries the ownership qualifier.
func (g Grant) Owned() bool {
	return g.Qualifier == QualifierOwn
}

// String renders the grant in its textual form.
func (g Grant) String() string {
	if g.Resource == Wildcard && g.Action == Wildcard && g.Qualifier == "" {
		return Wildcard
	}
	if g.Qualifier == "" {
		return g.Resource + ":" + g.Action
	}
	return g.Resource + ":" + g.Action + ":" + g.Qualifier
}

// ParseGrant parses "*", "resource:action" or "resource:action:qualifier".
func ParseGrant(raw string) (Grant, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == Wildcard {
		return Grant{Resource: Wildcard, Action: Wildcard}, nil
	}
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Grant{}, fmt.Errorf("rbac: malformed grant %q", raw)
	}
	for _, p := range parts {
		if p == "" {
			return Grant{}, fmt.Errorf("rbac: empty segment in grant %q", raw)
		}
	}
	if parts[0] == Wildcard {
		// "*:*" is the long form of "*".
		if len(parts) == 2 && parts[1] == Wildcard {
			return Grant{Resource: Wildcard, Action: Wildcard}, nil
		}
		return Grant{}, fmt.Errorf("rbac: grant %q scopes an action across all resources; use %q for full access or name the resource", raw, Wildcard)
	}
	g := Grant{Resource: parts[0], Action: parts[1]}
	if len(parts) == 3 {
		if parts[2] == Wildcard {
			return Grant{}, fmt.Errorf("rbac: qualifier cannot be a wildcard in %q", raw)
		}
		g.Qualifier = parts[2]
	}
	return g, nil
}

// Query is the resource/action pair presented by a caller. Qualifier is an
// optional narrowing sub-scope and never holds QualifierOwn.
type Query struct {
	Resource  string
	Action    string
	Qualifier string
}

func (q Query) String() string {
	if q.Qualifier == "" {
		return q.Resource + ":" + q.Action
	}
	return q.Resource + ":" + q.Action + ":" + q.Qualifier
}
