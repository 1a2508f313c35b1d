package rbac

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

//go:embed policy.json
var defaultPolicyJSON []byte

var loadDefault = sync.OnceValues(func() (*Policy, error) {
	return LoadPolicy(defaultPolicyJSON)
})

// DefaultPolicy returns the policy shipped with the binary. The same artifact
// is served to the UI so both sides gate on one definition.
func DefaultPolicy() (*Policy, error) {
	return loadDefault()
}

type grantSet map[Grant]struct{}

func (s grantSet) has(g Grant) bool {
	_, ok := s[g]
	return ok
}

// Policy maps each role to its grant set. It is immutable after LoadPolicy
// returns and safe for concurrent use without locking.
type Policy struct {
	version string
	grants  map[Role]grantSet
	raw     []byte
}

type policyDocument struct {
	Version string              `json:"version"`
	Roles   map[string][]string `json:"roles"`
}

// LoadPolicy parses a policy artifact. Unknown roles and malformed grants
// are rejected here so evaluation itself can never fail.
func LoadPolicy(data []byte) (*Policy, error) {
	var doc policyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rbac: decode policy: %w", err)
	}
	if doc.Version == "" {
		return nil, errors.New("rbac: policy version required")
	}
	p := &Policy{
		version: doc.Version,
		grants:  make(map[Role]grantSet, len(doc.Roles)),
		raw:     append([]byte(nil), data...),
	}
	for name, entries := range doc.Roles {
		role, ok := ParseRole(name)
		if !ok || string(role) != name {
			return nil, fmt.Errorf("rbac: unknown role %q in policy", name)
		}
		set := make(grantSet, len(entries))
		for _, entry := range entries {
			g, err := ParseGrant(entry)
			if err != nil {
				return nil, err
			}
			set[g] = struct{}{}
		}
		p.grants[role] = set
	}
	return p, nil
}

// Version identifies the loaded artifact.
func (p *Policy) Version() string {
	if p == nil {
		return ""
	}
	return p.version
}

// Raw returns the artifact bytes as loaded.
func (p *Policy) Raw() []byte {
	if p == nil {
		return nil
	}
	return p.raw
}

// Grants returns the role's grants sorted by their textual form.
func (p *Policy) Grants(role Role) []Grant {
	if p == nil {
		return nil
	}
	set := p.grants[role]
	out := make([]Grant, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Evaluate decides access for role on resource/action. Roles absent from the
// policy hold the empty grant set and are denied everything.
func (p *Policy) Evaluate(role Role, resource, action string) Decision {
	return p.EvaluateQuery(role, Query{Resource: resource, Action: action})
}

// EvaluateQuery applies the precedence order, first match wins:
// "*", exact grant, resource wildcard, then ownership-qualified grants.
// A narrowed query (Qualifier set) is also satisfied by a grant carrying
// the same qualifier; an unqualified query never matches a narrowed grant.
func (p *Policy) EvaluateQuery(role Role, q Query) Decision {
	if p == nil {
		return Denied
	}
	set := p.grants[role]
	if len(set) == 0 {
		return Denied
	}
	if set.has(Grant{Resource: Wildcard, Action: Wildcard}) {
		return Granted
	}
	if set.has(Grant{Resource: q.Resource, Action: q.Action}) {
		return Granted
	}
	if set.has(Grant{Resource: q.Resource, Action: Wildcard}) {
		return Granted
	}
	if q.Qualifier != "" && q.Qualifier != QualifierOwn {
		if set.has(Grant{Resource: q.Resource, Action: q.Action, Qualifier: q.Qualifier}) {
			return Granted
		}
		if set.has(Grant{Resource: q.Resource, Action: Wildcard, Qualifier: q.Qualifier}) {
			return Granted
		}
	}
	if set.has(Grant{Resource: q.Resource, Action: q.Action, Qualifier: QualifierOwn}) ||
		set.has(Grant{Resource: q.Resource, Action: Wildcard, Qualifier: QualifierOwn}) {
		return GrantedIfOwner
	}
	return Denied
}

// standardActions are always listed in the permission matrix.
var standardActions = []string{"read", "create", "update", "delete"}

// Matrix lists every concrete resource/action pair named by the policy,
// plus the CRUD actions for each resource and the narrowed queries of
// qualified grants other than own, sorted.
func (p *Policy) Matrix() []Query {
	if p == nil {
		return nil
	}
	seen := make(map[Query]struct{})
	add := func(q Query) {
		seen[q] = struct{}{}
	}
	for _, set := range p.grants {
		for g := range set {
			if g.Resource == Wildcard {
				continue
			}
			for _, a := range standardActions {
				add(Query{Resource: g.Resource, Action: a})
			}
			if g.Action == Wildcard {
				continue
			}
			add(Query{Resource: g.Resource, Action: g.Action})
			if g.Qualifier != "" && !g.Owned() {
				add(Query{Resource: g.Resource, Action: g.Action, Qualifier: g.Qualifier})
			}
		}
	}
	out := make([]Query, 0, len(seen))
	for q := range seen {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
