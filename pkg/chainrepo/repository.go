// Package chainrepo implements the ChainRepository persistence contract
// described in spec.md §4.10: storage for ReasoningChain snapshots,
// independent of how the Engine builds them.
package chainrepo

import (
	"context"

	"github.com/omniforge/agentcore/pkg/reasoning"
)

// Summary is the lightweight projection ListByTenant returns — a chain
// without its steps, since callers listing chains rarely need every step
// eagerly loaded.
type Summary struct {
	ID       string
	TaskID   string
	AgentID  string
	TenantID string
	Status   reasoning.Status
	Metrics  reasoning.Metrics
}

// Repository is the persistence contract. Persisted chains are
// read-only: rehydration must exactly reproduce the original metrics,
// visibility, and parent/child relationships.
type Repository interface {
	Save(ctx context.Context, snapshot reasoning.Snapshot) error
	GetByID(ctx context.Context, chainID string) (*reasoning.Snapshot, error)
	GetByTask(ctx context.Context, taskID string) ([]reasoning.Snapshot, error)
	// ListByTenant returns summaries newest-first by StartedAt. status,
	// if non-empty, filters to that single status.
	ListByTenant(ctx context.Context, tenantID string, status reasoning.Status, limit, offset int) ([]Summary, error)
	// Delete removes the chain and cascades to its steps. Returns false
	// if chainID did not exist.
	Delete(ctx context.Context, chainID string) (bool, error)
}
