// Package server implements the HTTP surface described in spec.md §6
// and SPEC_FULL.md §6.1: chain inspection, tenant-scoped listing, SSE
// task submission, tenant usage, and task cancellation. Routing follows
// the teacher's handler-funcs-on-a-mux style (pkg/server/http.go),
// adapted onto go-chi/chi/v5 instead of a2a-go's native routing.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/omniforge/agentcore/pkg/chainrepo"
	"github.com/omniforge/agentcore/pkg/governance"
	"github.com/omniforge/agentcore/pkg/ratelimit"
	"github.com/omniforge/agentcore/pkg/task"
	"github.com/omniforge/agentcore/pkg/visibility"
)

// AgentRunner starts a Driver-backed task execution and returns the
// event queue the caller should drain, per spec.md §4.7. Implementations
// live in cmd/agentcored, where the Driver/Engine/Executor stack for an
// agent is wired together; the server package only needs to kick it off.
type AgentRunner interface {
	RunTask(ctx context.Context, agentID string, t *task.Task) (<-chan RunEvent, error)

	// CancelTask signals the in-flight worker for taskID to abandon its
	// run, if one is running. found is false when no worker is tracked
	// for taskID (already finished, or never started by this runner).
	CancelTask(ctx context.Context, taskID string) (found bool, err error)
}

// RunEvent is the subset of event.Event the server needs to frame as
// SSE; kept separate from pkg/event.Event so this package does not need
// to import the reasoning chain's full step type for encoding.
type RunEvent struct {
	Type    string
	Payload any
}

// Server is the HTTP surface over tasks, chains, governance, and
// rate-limit usage.
type Server struct {
	tasks      task.Repository
	chains     chainrepo.Repository
	visibility *visibility.Controller
	governance *governance.Governance
	limiter    *ratelimit.Limiter
	runner     AgentRunner
	auth       *JWTAuth

	mux *chi.Mux
}

// Option configures a Server at construction.
type Option func(*Server)

// WithVisibilityController overrides the default (permissive) Visibility Controller.
func WithVisibilityController(c *visibility.Controller) Option {
	return func(s *Server) { s.visibility = c }
}

// WithGovernance wires a Governance instance into the tenant policy endpoint. A nil governance leaves that endpoint returning the default policy.
func WithGovernance(g *governance.Governance) Option {
	return func(s *Server) { s.governance = g }
}

// WithJWTAuth installs bearer-token authentication. Without this option
// the server runs in trusted-header mode (NewJWTAuth(nil)), suitable for
// local development and tests.
func WithJWTAuth(a *JWTAuth) Option {
	return func(s *Server) { s.auth = a }
}

// New constructs a Server and registers its routes.
func New(tasks task.Repository, chains chainrepo.Repository, limiter *ratelimit.Limiter, runner AgentRunner, opts ...Option) *Server {
	s := &Server{
		tasks:      tasks,
		chains:     chains,
		visibility: visibility.New(visibility.Config{}),
		limiter:    limiter,
		runner:     runner,
		auth:       NewJWTAuth(nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux = chi.NewRouter()
	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.Recoverer)
	s.mux.Use(requestLogger)
	s.mux.Use(s.auth.Middleware)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Get("/api/v1/chains/{chain_id}", s.handleGetChain)
	s.mux.Get("/api/v1/chains/{chain_id}/steps", s.handleGetChainSteps)
	s.mux.Get("/api/v1/tasks/{task_id}/chains", s.handleGetTaskChains)
	s.mux.Get("/api/v1/tenants/{tenant_id}/chains", s.handleListTenantChains)
	s.mux.Get("/api/v1/tenants/{tenant_id}/usage", s.handleTenantUsage)
	s.mux.Get("/api/v1/tenants/{tenant_id}/policy", s.handleTenantPolicy)
	s.mux.Post("/api/v1/agents/{agent_id}/tasks", s.handleSubmitTask)
	s.mux.Post("/api/v1/tasks/{task_id}/cancel", s.handleCancelTask)
}

// ServeHTTP lets Server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
