package chainrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniforge/agentcore/pkg/reasoning"
)

func newSnapshot(id, taskID, tenantID string, status reasoning.Status) reasoning.Snapshot {
	c := reasoning.New(taskID, "agent-1", tenantID)
	c.AppendThinking("thinking", nil, reasoning.Visibility{Level: reasoning.VisibilityFull})
	snap := c.ToSnapshot()
	snap.ID = id
	snap.Status = status
	return snap
}

func TestMemoryRepository_SaveAndGetByID(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	snap := newSnapshot("chain-1", "task-1", "tenant-1", reasoning.StatusRunning)

	require.NoError(t, r.Save(ctx, snap))

	got, err := r.GetByID(ctx, "chain-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", got.TaskID)
	require.Len(t, got.Steps, 1)
}

func TestMemoryRepository_GetByIDMissing(t *testing.T) {
	r := NewMemoryRepository()
	_, err := r.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_GetByTaskOrderedByStart(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	a := newSnapshot("chain-a", "task-1", "tenant-1", reasoning.StatusRunning)
	b := newSnapshot("chain-b", "task-1", "tenant-1", reasoning.StatusCompleted)
	b.StartedAt = a.StartedAt.Add(1)

	require.NoError(t, r.Save(ctx, b))
	require.NoError(t, r.Save(ctx, a))

	chains, err := r.GetByTask(ctx, "task-1")
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, "chain-a", chains[0].ID)
	assert.Equal(t, "chain-b", chains[1].ID)
}

func TestMemoryRepository_ListByTenantFiltersStatusAndPaginates(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	for i, status := range []reasoning.Status{reasoning.StatusRunning, reasoning.StatusCompleted, reasoning.StatusCompleted} {
		snap := newSnapshot(string(rune('a'+i)), "task-1", "tenant-1", status)
		require.NoError(t, r.Save(ctx, snap))
	}
	require.NoError(t, r.Save(ctx, newSnapshot("other-tenant", "task-2", "tenant-2", reasoning.StatusCompleted)))

	all, err := r.ListByTenant(ctx, "tenant-1", "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	completed, err := r.ListByTenant(ctx, "tenant-1", reasoning.StatusCompleted, 0, 0)
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	page, err := r.ListByTenant(ctx, "tenant-1", "", 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestMemoryRepository_Delete(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, r.Save(ctx, newSnapshot("chain-1", "task-1", "tenant-1", reasoning.StatusRunning)))

	deleted, err := r.Delete(ctx, "chain-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deletedAgain, err := r.Delete(ctx, "chain-1")
	require.NoError(t, err)
	assert.False(t, deletedAgain)

	_, err = r.GetByID(ctx, "chain-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
