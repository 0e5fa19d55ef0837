package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/omniforge/agentcore/pkg/task"
)

type submitTaskRequest struct {
	MessageParts []task.Part `json:"message_parts"`
	TenantID     string      `json:"tenant_id"`
	UserID       string      `json:"user_id"`
	ParentTaskID *string     `json:"parent_task_id,omitempty"`
}

// handleSubmitTask implements POST /api/v1/agents/{agent_id}/tasks per
// spec.md §6: creates the task, starts the agent's ReAct run, and
// streams the resulting events as SSE.
func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agent_id")
	callerTenant := tenantFromContext(r.Context())

	var req submitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TenantID == "" {
		req.TenantID = callerTenant
	}
	if req.TenantID != callerTenant {
		writeError(w, http.StatusForbidden, "tenant_id does not match authenticated caller")
		return
	}
	if len(req.MessageParts) == 0 {
		writeError(w, http.StatusBadRequest, "message_parts must not be empty")
		return
	}

	if req.ParentTaskID != nil {
		if _, err := s.tasks.Get(r.Context(), req.TenantID, *req.ParentTaskID); err != nil {
			writeError(w, http.StatusBadRequest, "parent task not found")
			return
		}
	}

	t := task.New(uuid.NewString(), agentID, req.TenantID, req.UserID, req.ParentTaskID, "")
	if err := t.AppendMessage(task.Message{Role: task.RoleUser, Parts: req.MessageParts}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.tasks.Save(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save task")
		return
	}

	events, err := s.runner.RunTask(r.Context(), agentID, t)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	streamSSE(w, r, events)
}

// handleCancelTask implements POST /api/v1/tasks/{task_id}/cancel
// (SPEC_FULL.md §6.1). It does not flip the task's state itself: the
// worker running the task owns that transition so the terminal state,
// the chain_failed/cancelled event, and the persisted chain snapshot are
// all produced from the one place that can abandon the in-flight call,
// per spec.md §5's cancellation sequence. This handler only signals the
// worker and reports whether one was found to signal.
func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	tenantID := tenantFromContext(r.Context())

	t, err := s.tasks.Get(r.Context(), tenantID, taskID)
	if err != nil {
		notFoundOrTenantMiss(w)
		return
	}

	if t.State().IsTerminal() {
		writeError(w, http.StatusConflict, "task is already in a terminal state")
		return
	}

	found, err := s.runner.CancelTask(r.Context(), taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusConflict, "task has no in-flight worker to cancel")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID, "state": "cancelling"})
}
