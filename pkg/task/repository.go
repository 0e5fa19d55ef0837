package task

import "context"

// Repository is the persistence contract for Task, per spec.md §4.8.
// Every operation taking an id must return ErrNotFound when the caller's
// tenant does not match the stored tenant — tenant mismatch and
// nonexistence are indistinguishable by design. List operations return
// newest-first unless stated otherwise.
type Repository interface {
	Get(ctx context.Context, tenantID, id string) (*Task, error)
	Save(ctx context.Context, t *Task) error
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, tenantID, id string) error

	ListByAgent(ctx context.Context, tenantID, agentID string, limit int) ([]*Task, error)
	ListByParent(ctx context.Context, tenantID, parentID string, limit int) ([]*Task, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Task, error)
	ListBySkill(ctx context.Context, tenantID, skillName string, limit int) ([]*Task, error)
}
