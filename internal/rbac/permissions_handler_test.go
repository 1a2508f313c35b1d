package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleet-manager/internal/shared"
)

func newPermissionsRouter(t *testing.T) (chi.Router, *Policy) {
	t.Helper()
	p := defaultPolicy(t)
	r := chi.NewRouter()
	NewPermissionsHandler(nil, p).MountRoutes(r)
	return r, p
}

func TestPolicyArtifactServedWithETag(t *testing.T) {
	r, p := newPermissionsRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rbac/policy", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `"`+p.Version()+`"`, rr.Header().Get("ETag"))

	loaded, err := LoadPolicy(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, p.Grants(RoleDriver), loaded.Grants(RoleDriver))

	req := httptest.NewRequest(http.MethodGet, "/rbac/policy", nil)
	req.Header.Set("If-None-Match", rr.Header().Get("ETag"))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotModified, rr.Code)
}

func TestMyPermissionsMatrix(t *testing.T) {
	r, _ := newPermissionsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/me/permissions", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), newPrincipal(RoleDriver)))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Role        string   `json:"role"`
		Grants      []string `json:"grants"`
		Permissions []struct {
			Resource  string `json:"resource"`
			Action    string `json:"action"`
			Qualifier string `json:"qualifier"`
			Decision  string `json:"decision"`
		} `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "DRIVER", body.Role)
	assert.Contains(t, body.Grants, "expenses:create:fuel")

	decisions := make(map[string]string)
	for _, p := range body.Permissions {
		key := p.Resource + ":" + p.Action
		if p.Qualifier != "" {
			key += ":" + p.Qualifier
		}
		decisions[key] = p.Decision
	}
	assert.Equal(t, "granted_if_owner", decisions["vehicles:read"])
	assert.Equal(t, "denied", decisions["expenses:create"])
	assert.Equal(t, "granted", decisions["expenses:create:fuel"])
	assert.Equal(t, "granted", decisions["maintenance:report"])
}

func TestMyPermissionsRequiresPrincipal(t *testing.T) {
	r, _ := newPermissionsRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me/permissions", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
