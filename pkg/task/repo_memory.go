package task

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository, suitable for
// single-instance deployments, development, and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: make(map[string]*Task)}
}

func (r *MemoryRepository) Get(ctx context.Context, tenantID, id string) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok || t.TenantID() != tenantID {
		return nil, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepository) Save(ctx context.Context, t *Task) error {
	if parent := t.ParentTaskID(); parent != nil {
		r.mu.RLock()
		p, ok := r.tasks[*parent]
		r.mu.RUnlock()
		if !ok || p.TenantID() != t.TenantID() {
			return ErrParentNotFound
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID()] = t
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[t.ID()]
	if !ok || existing.TenantID() != t.TenantID() {
		return ErrNotFound
	}
	r.tasks[t.ID()] = t
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[id]
	if !ok || existing.TenantID() != tenantID {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepository) ListByAgent(ctx context.Context, tenantID, agentID string, limit int) ([]*Task, error) {
	return r.filterSorted(limit, func(t *Task) bool {
		return t.TenantID() == tenantID && t.AgentID() == agentID
	}), nil
}

func (r *MemoryRepository) ListByParent(ctx context.Context, tenantID, parentID string, limit int) ([]*Task, error) {
	return r.filterSorted(limit, func(t *Task) bool {
		p := t.ParentTaskID()
		return t.TenantID() == tenantID && p != nil && *p == parentID
	}), nil
}

func (r *MemoryRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Task, error) {
	all := r.filterSorted(0, func(t *Task) bool { return t.TenantID() == tenantID })
	return paginate(all, limit, offset), nil
}

func (r *MemoryRepository) ListBySkill(ctx context.Context, tenantID, skillName string, limit int) ([]*Task, error) {
	return r.filterSorted(limit, func(t *Task) bool {
		return t.TenantID() == tenantID && t.SkillName() == skillName
	}), nil
}

func (r *MemoryRepository) filterSorted(limit int, match func(*Task) bool) []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Task
	for _, t := range r.tasks {
		if match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func paginate(tasks []*Task, limit, offset int) []*Task {
	if offset >= len(tasks) {
		return nil
	}
	tasks = tasks[offset:]
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks
}

var _ Repository = (*MemoryRepository)(nil)
