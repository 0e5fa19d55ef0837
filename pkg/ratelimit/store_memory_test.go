package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetUsage_Empty(t *testing.T) {
	s := NewMemoryStore()
	current, windowEnd, err := s.GetUsage(context.Background(), "t1", "calls:llm", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, current)
	assert.True(t, windowEnd.After(time.Now()))
}

func TestMemoryStore_IncrementAccumulates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	total, _, err := s.IncrementUsage(ctx, "t1", "tokens:minute", time.Minute, 50)
	require.NoError(t, err)
	assert.Equal(t, float64(50), total)

	total, _, err = s.IncrementUsage(ctx, "t1", "tokens:minute", time.Minute, 25)
	require.NoError(t, err)
	assert.Equal(t, float64(75), total)
}

func TestMemoryStore_WindowRollover(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Use a window so short it will have already expired by the second call.
	_, _, err := s.IncrementUsage(ctx, "t1", "calls:llm", time.Nanosecond, 1)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	total, _, err := s.IncrementUsage(ctx, "t1", "calls:llm", time.Minute, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(1), total, "an expired window must reset the counter rather than accumulate")
}

func TestMemoryStore_ResetClearsOnlyThatTenant(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, _, err := s.IncrementUsage(ctx, "t1", "calls:llm", time.Minute, 5)
	require.NoError(t, err)
	_, _, err = s.IncrementUsage(ctx, "t2", "calls:llm", time.Minute, 5)
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx, "t1"))

	current, _, err := s.GetUsage(ctx, "t1", "calls:llm", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, current)

	current, _, err = s.GetUsage(ctx, "t2", "calls:llm", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, float64(5), current)
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, _, err := s.IncrementUsage(ctx, "t1", "calls:llm", time.Nanosecond, 1)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	require.NoError(t, s.DeleteExpired(ctx, time.Now()))

	s.mu.Lock()
	count := len(s.data)
	s.mu.Unlock()
	assert.Zero(t, count)
}
