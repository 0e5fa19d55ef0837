package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/omniforge/agentcore/pkg/reasoning"
)

const (
	defaultStepLimit = 100
	maxStepLimit     = 1000
)

// handleGetChain implements GET /api/v1/chains/{chain_id}: returns the
// chain with its steps, visibility-filtered for the caller's role.
// Cross-tenant access is indistinguishable from not-found (spec.md §6).
func (s *Server) handleGetChain(w http.ResponseWriter, r *http.Request) {
	chainID := chi.URLParam(r, "chain_id")
	tenantID := tenantFromContext(r.Context())

	snapshot, err := s.chains.GetByID(r.Context(), chainID)
	if err != nil || snapshot.TenantID != tenantID {
		notFoundOrTenantMiss(w)
		return
	}

	steps := s.visibility.Apply(snapshot.Steps, roleFromContext(r.Context()))
	writeJSON(w, http.StatusOK, chainResponse(*snapshot, steps))
}

// handleGetChainSteps implements GET
// /api/v1/chains/{chain_id}/steps?limit=&offset= — paginated, limit
// clamped to [1, 1000] per spec.md §6.
func (s *Server) handleGetChainSteps(w http.ResponseWriter, r *http.Request) {
	chainID := chi.URLParam(r, "chain_id")
	tenantID := tenantFromContext(r.Context())

	snapshot, err := s.chains.GetByID(r.Context(), chainID)
	if err != nil || snapshot.TenantID != tenantID {
		notFoundOrTenantMiss(w)
		return
	}

	limit, offset := paginationParams(r)
	steps := s.visibility.Apply(snapshot.Steps, roleFromContext(r.Context()))
	steps = paginateSteps(steps, limit, offset)

	writeJSON(w, http.StatusOK, map[string]any{
		"chain_id": chainID,
		"steps":    steps,
		"limit":    limit,
		"offset":   offset,
	})
}

// handleGetTaskChains implements GET /api/v1/tasks/{task_id}/chains.
func (s *Server) handleGetTaskChains(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	tenantID := tenantFromContext(r.Context())

	chains, err := s.chains.GetByTask(r.Context(), taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	role := roleFromContext(r.Context())
	out := make([]map[string]any, 0, len(chains))
	for _, snap := range chains {
		if snap.TenantID != tenantID {
			continue
		}
		steps := s.visibility.Apply(snap.Steps, role)
		out = append(out, chainResponse(snap, steps))
	}
	writeJSON(w, http.StatusOK, map[string]any{"chains": out})
}

// handleListTenantChains implements GET
// /api/v1/tenants/{tenant_id}/chains?status=&limit=&offset=.
func (s *Server) handleListTenantChains(w http.ResponseWriter, r *http.Request) {
	pathTenant := chi.URLParam(r, "tenant_id")
	if pathTenant != tenantFromContext(r.Context()) {
		notFoundOrTenantMiss(w)
		return
	}

	limit, offset := paginationParams(r)
	status := reasoning.Status(r.URL.Query().Get("status"))

	summaries, err := s.chains.ListByTenant(r.Context(), pathTenant, status, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chains": summaries})
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = defaultStepLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxStepLimit {
		limit = maxStepLimit
	}

	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func paginateSteps(steps []reasoning.Step, limit, offset int) []reasoning.Step {
	if offset >= len(steps) {
		return nil
	}
	steps = steps[offset:]
	if limit < len(steps) {
		steps = steps[:limit]
	}
	return steps
}

func chainResponse(snapshot reasoning.Snapshot, steps []reasoning.Step) map[string]any {
	return map[string]any{
		"id":         snapshot.ID,
		"task_id":    snapshot.TaskID,
		"agent_id":   snapshot.AgentID,
		"tenant_id":  snapshot.TenantID,
		"status":     snapshot.Status,
		"started_at": snapshot.StartedAt,
		"metrics":    snapshot.Metrics,
		"steps":      steps,
	}
}
