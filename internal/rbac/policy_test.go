package rbac

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := DefaultPolicy()
	require.NoError(t, err)
	return p
}

func TestEvaluateDefaultTable(t *testing.T) {
	p := defaultPolicy(t)

	cases := []struct {
		role     Role
		resource string
		action   string
		want     Decision
	}{
		{RoleFleetManager, "vehicles", "read", Granted},
		{RoleFleetManager, "vehicles", "update", Granted},
		{RoleFleetManager, "vehicles", "delete", Denied},
		{RoleFleetManager, "notifications", "manage", Granted},
		{RoleFleetManager, "documents", "read", Denied},
		{RoleAccountant, "expenses", "anything", Granted},
		{RoleAccountant, "invoices", "void", Granted},
		{RoleAccountant, "vehicles", "read", Granted},
		{RoleAccountant, "vehicles", "update", Denied},
		{RoleAccountant, "reports", "financial", Granted},
		{RoleAccountant, "reports", "read", Denied},
		{RoleDriver, "vehicles", "read", GrantedIfOwner},
		{RoleDriver, "vehicles", "update", Denied},
		{RoleDriver, "expenses", "create", Denied},
		{RoleDriver, "documents", "read", GrantedIfOwner},
		{RoleDriver, "maintenance", "report", Granted},
		{RoleVehicleOwner, "documents", "delete", GrantedIfOwner},
		{RoleVehicleOwner, "vehicles", "update", GrantedIfOwner},
		{RoleVehicleOwner, "expenses", "create", GrantedIfOwner},
		{RoleVehicleOwner, "reports", "read", GrantedIfOwner},
		{RoleVehicleOwner, "reports", "financial", Denied},
		{RoleVehicleOwner, "drivers", "read", Denied},
	}
	for _, tc := range cases {
		t.Run(string(tc.role)+"/"+tc.resource+":"+tc.action, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Evaluate(tc.role, tc.resource, tc.action))
		})
	}
}

func TestEvaluateAdminGrantedEverything(t *testing.T) {
	p := defaultPolicy(t)
	for _, resource := range []string{"vehicles", "drivers", "invoices", "unheard"} {
		for _, action := range []string{"read", "delete", "x"} {
			assert.Equal(t, Granted, p.Evaluate(RoleAdmin, resource, action), "%s:%s", resource, action)
		}
	}
}

func TestEvaluateUnknownRoleDenied(t *testing.T) {
	p := defaultPolicy(t)
	for _, role := range []Role{"UNKNOWN_ROLE", "", "admin"} {
		assert.Equal(t, Denied, p.Evaluate(role, "vehicles", "read"), "role %q", role)
	}
}

func TestEvaluateNilPolicyDenies(t *testing.T) {
	var p *Policy
	assert.Equal(t, Denied, p.Evaluate(RoleAdmin, "vehicles", "read"))
}

func TestEvaluatePrecedence(t *testing.T) {
	p, err := LoadPolicy([]byte(`{
		"version": "test",
		"roles": {
			"ADMIN": ["*", "vehicles:read:own"],
			"FLEET_MANAGER": ["vehicles:read:own", "vehicles:read"],
			"ACCOUNTANT": ["vehicles:*", "vehicles:delete:own"]
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, Granted, p.Evaluate(RoleAdmin, "vehicles", "read"))
	assert.Equal(t, Granted, p.Evaluate(RoleFleetManager, "vehicles", "read"))
	assert.Equal(t, Denied, p.Evaluate(RoleFleetManager, "vehicles", "list"), "own grant is action specific")
	assert.Equal(t, Denied, p.Evaluate(RoleAccountant, "trucks", "delete"))
	assert.Equal(t, Granted, p.Evaluate(RoleAccountant, "vehicles", "delete"))
}

func TestEvaluateNarrowedQuery(t *testing.T) {
	p := defaultPolicy(t)
	fuel := Query{Resource: "expenses", Action: "create", Qualifier: "fuel"}

	assert.Equal(t, Granted, p.EvaluateQuery(RoleDriver, fuel))
	assert.Equal(t, Granted, p.EvaluateQuery(RoleAccountant, fuel), "expenses:* covers narrowed queries")
	assert.Equal(t, Granted, p.EvaluateQuery(RoleAdmin, fuel))
	assert.Equal(t, GrantedIfOwner, p.EvaluateQuery(RoleVehicleOwner, fuel))
	assert.Equal(t, Denied, p.EvaluateQuery(RoleFleetManager, fuel))
	assert.Equal(t, Denied, p.EvaluateQuery(RoleDriver, Query{Resource: "expenses", Action: "create", Qualifier: "tolls"}))
}

func TestEvaluateDeterministicUnderConcurrency(t *testing.T) {
	p := defaultPolicy(t)
	matrix := p.Matrix()
	want := make(map[Role][]Decision)
	for _, role := range Roles() {
		for _, q := range matrix {
			want[role] = append(want[role], p.EvaluateQuery(role, q))
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, role := range Roles() {
				for j, q := range matrix {
					if got := p.EvaluateQuery(role, q); got != want[role][j] {
						t.Errorf("%s %s: got %s want %s", role, q, got, want[role][j])
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestLoadPolicyRejectsBadArtifacts(t *testing.T) {
	cases := map[string]string{
		"not json":          `{`,
		"missing version":   `{"roles": {"ADMIN": ["*"]}}`,
		"unknown role":      `{"version": "1", "roles": {"SUPERUSER": ["*"]}}`,
		"lowercase role":    `{"version": "1", "roles": {"admin": ["*"]}}`,
		"malformed grant":   `{"version": "1", "roles": {"ADMIN": ["vehicles"]}}`,
		"wildcard own slot": `{"version": "1", "roles": {"ADMIN": ["vehicles:read:*"]}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPolicy([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicyDeduplicatesGrants(t *testing.T) {
	p, err := LoadPolicy([]byte(`{"version": "1", "roles": {"DRIVER": ["vehicles:read", "VEHICLES:READ", " vehicles:read "]}}`))
	require.NoError(t, err)
	assert.Equal(t, []Grant{{Resource: "vehicles", Action: "read"}}, p.Grants(RoleDriver))
}

func TestDefaultPolicyArtifact(t *testing.T) {
	p := defaultPolicy(t)
	assert.NotEmpty(t, p.Version())
	assert.JSONEq(t, string(defaultPolicyJSON), string(p.Raw()))

	got := make([]string, 0)
	for _, g := range p.Grants(RoleVehicleOwner) {
		got = append(got, g.String())
	}
	assert.Equal(t, []string{"documents:*:own", "expenses:*:own", "reports:read:own", "vehicles:*:own"}, got)
	assert.Empty(t, p.Grants("NOBODY"))
}

func TestMatrixCoversNamedResources(t *testing.T) {
	p := defaultPolicy(t)
	seen := make(map[string]bool)
	for _, q := range p.Matrix() {
		seen[q.String()] = true
		assert.NotEqual(t, Wildcard, q.Resource)
		assert.NotEqual(t, Wildcard, q.Action)
		assert.NotEqual(t, QualifierOwn, q.Qualifier)
	}
	for _, want := range []string{"vehicles:read", "vehicles:delete", "reports:financial", "maintenance:report", "notifications:manage", "expenses:create", "expenses:create:fuel"} {
		assert.True(t, seen[want], "matrix missing %s", want)
	}
}
