package chainrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/omniforge/agentcore/pkg/reasoning"
)

// MemoryRepository is an in-memory Repository, suitable for
// single-instance deployments, development, and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	chains map[string]reasoning.Snapshot
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{chains: make(map[string]reasoning.Snapshot)}
}

func (r *MemoryRepository) Save(ctx context.Context, snapshot reasoning.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[snapshot.ID] = snapshot
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, chainID string) (*reasoning.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.chains[chainID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) GetByTask(ctx context.Context, taskID string) ([]reasoning.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []reasoning.Snapshot
	for _, s := range r.chains {
		if s.TaskID == taskID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (r *MemoryRepository) ListByTenant(ctx context.Context, tenantID string, status reasoning.Status, limit, offset int) ([]Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []reasoning.Snapshot
	for _, s := range r.chains {
		if s.TenantID != tenantID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		matches = append(matches, s)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].StartedAt.After(matches[j].StartedAt) })

	if offset >= len(matches) {
		return nil, nil
	}
	matches = matches[offset:]
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Summary, len(matches))
	for i, s := range matches {
		out[i] = Summary{ID: s.ID, TaskID: s.TaskID, AgentID: s.AgentID, TenantID: s.TenantID, Status: s.Status, Metrics: s.Metrics}
	}
	return out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, chainID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chains[chainID]; !ok {
		return false, nil
	}
	delete(r.chains, chainID)
	return true, nil
}

var _ Repository = (*MemoryRepository)(nil)
