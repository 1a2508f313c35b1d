package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetops/fleet-manager/internal/platform/httpx"
	"github.com/fleetops/fleet-manager/internal/shared"
)

// PermissionsHandler exposes the policy artifact and the caller's evaluated
// permissions for UI gating. UI gating is advisory; Require is authoritative.
type PermissionsHandler struct {
	logger *slog.Logger
	policy *Policy
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, policy *Policy) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, policy: policy}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/rbac/policy", h.policyArtifact)
	r.Get("/me/permissions", h.myPermissions)
}

func (h *PermissionsHandler) policyArtifact(w http.ResponseWriter, r *http.Request) {
	etag := `"` + h.policy.Version() + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.policy.Raw()); err != nil && h.logger != nil {
		h.logger.Warn("write policy artifact", slog.Any("error", err))
	}
}

type permissionEntry struct {
	Resource  string   `json:"resource"`
	Action    string   `json:"action"`
	Qualifier string   `json:"qualifier,omitempty"`
	Decision  Decision `json:"decision"`
}

type permissionsResponse struct {
	Role          string            `json:"role"`
	PolicyVersion string            `json:"policy_version"`
	Grants        []string          `json:"grants"`
	Permissions   []permissionEntry `json:"permissions"`
}

func (h *PermissionsHandler) myPermissions(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	role := Role(principal.Role)
	grants := h.policy.Grants(role)
	resp := permissionsResponse{
		Role:          principal.Role,
		PolicyVersion: h.policy.Version(),
		Grants:        make([]string, 0, len(grants)),
	}
	for _, g := range grants {
		resp.Grants = append(resp.Grants, g.String())
	}
	for _, q := range h.policy.Matrix() {
		resp.Permissions = append(resp.Permissions, permissionEntry{
			Resource:  q.Resource,
			Action:    q.Action,
			Qualifier: q.Qualifier,
			Decision:  h.policy.EvaluateQuery(role, q),
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}
