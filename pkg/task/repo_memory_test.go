package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_SaveGet(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	tk := New("t1", "agent-1", "tenant-1", "user-1", nil, "")
	require.NoError(t, r.Save(ctx, tk))

	got, err := r.Get(ctx, "tenant-1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID())
}

func TestMemoryRepository_TenantMismatchIsNotFound(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	tk := New("t1", "agent-1", "tenant-1", "user-1", nil, "")
	require.NoError(t, r.Save(ctx, tk))

	_, err := r.Get(ctx, "tenant-2", "t1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_SaveRequiresExistingParent(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	missingParent := "no-such-task"
	child := New("child", "agent-1", "tenant-1", "user-1", &missingParent, "")
	err := r.Save(ctx, child)
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestMemoryRepository_SaveWithExistingParent(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	parent := New("parent", "agent-1", "tenant-1", "user-1", nil, "")
	require.NoError(t, r.Save(ctx, parent))

	parentID := "parent"
	child := New("child", "agent-1", "tenant-1", "user-1", &parentID, "")
	require.NoError(t, r.Save(ctx, child))

	children, err := r.ListByParent(ctx, "tenant-1", "parent", 0)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "child", children[0].ID())
}

func TestMemoryRepository_Delete(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	tk := New("t1", "agent-1", "tenant-1", "user-1", nil, "")
	require.NoError(t, r.Save(ctx, tk))
	require.NoError(t, r.Delete(ctx, "tenant-1", "t1"))

	_, err := r.Get(ctx, "tenant-1", "t1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_ListByTenantNewestFirst(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	t1 := New("t1", "agent-1", "tenant-1", "user-1", nil, "")
	require.NoError(t, r.Save(ctx, t1))
	t2 := New("t2", "agent-1", "tenant-1", "user-1", nil, "")
	t2.createdAt = t1.createdAt.Add(time.Second)
	require.NoError(t, r.Save(ctx, t2))

	list, err := r.ListByTenant(ctx, "tenant-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t2", list[0].ID())
}

func TestMemoryRepository_ListBySkill(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, New("t1", "agent-1", "tenant-1", "user-1", nil, "summarize")))
	require.NoError(t, r.Save(ctx, New("t2", "agent-1", "tenant-1", "user-1", nil, "translate")))

	list, err := r.ListBySkill(ctx, "tenant-1", "summarize", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "t1", list[0].ID())
}
