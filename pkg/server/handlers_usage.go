package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omniforge/agentcore/pkg/governance"
	"github.com/omniforge/agentcore/pkg/ratelimit"
	"github.com/omniforge/agentcore/pkg/tool"
)

// usageCategories are queried to assemble the full window set: each
// carries its own call-rate window plus the shared token/cost windows,
// which handleTenantUsage dedupes by metric name.
var usageCategories = []tool.Type{tool.TypeLLM, tool.TypeAPI, tool.TypeDatabase}

// handleTenantUsage implements GET /api/v1/tenants/{tenant_id}/usage
// (SPEC_FULL.md §6.1): current usage for every configured rate-limit
// window, read-only.
func (s *Server) handleTenantUsage(w http.ResponseWriter, r *http.Request) {
	pathTenant := chi.URLParam(r, "tenant_id")
	if pathTenant != tenantFromContext(r.Context()) {
		notFoundOrTenantMiss(w)
		return
	}

	seen := make(map[string]bool)
	var all []ratelimit.Usage
	for _, toolType := range usageCategories {
		usages, err := s.limiter.Usage(r.Context(), pathTenant, toolType)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, u := range usages {
			if seen[u.Metric] {
				continue
			}
			seen[u.Metric] = true
			all = append(all, u)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"tenant_id": pathTenant, "usage": all})
}

// handleTenantPolicy implements GET /api/v1/tenants/{tenant_id}/policy
// (SPEC_FULL.md §6.1): exposes the tenant's current model-governance
// policy. With no Governance configured, every tenant reports the
// permissive default policy.
func (s *Server) handleTenantPolicy(w http.ResponseWriter, r *http.Request) {
	pathTenant := chi.URLParam(r, "tenant_id")
	if pathTenant != tenantFromContext(r.Context()) {
		notFoundOrTenantMiss(w)
		return
	}

	gov := s.governance
	if gov == nil {
		gov = governance.NewGovernance(nil)
	}
	policy := gov.PolicyFor(pathTenant)

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant_id":             pathTenant,
		"approved_models":       policy.ApprovedModels,
		"blocked_models":        policy.BlockedModels,
		"require_approval":      policy.RequireApproval,
		"max_cost_per_call_usd": policy.MaxCostPerCallUSD,
	})
}
