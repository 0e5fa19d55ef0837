package ratelimit

import (
	"context"
	"sync"
	"testing"

	"github.com/omniforge/agentcore/pkg/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_CheckAndConsume_WithinCap(t *testing.T) {
	l := NewLimiter(NewMemoryStore())
	l.SetTenantConfig("tenant-a", Config{LLMCallsPerMinute: 2, TokensPerMinute: 1000, TokensPerHour: 10000, CostPerHourUSD: 10, CostPerDayUSD: 100})

	ok, err := l.CheckAndConsume(context.Background(), "tenant-a", tool.TypeLLM, 100, 0.01)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.CheckAndConsume(context.Background(), "tenant-a", tool.TypeLLM, 100, 0.01)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_CheckAndConsume_ExceedsCallCap(t *testing.T) {
	l := NewLimiter(NewMemoryStore())
	l.SetTenantConfig("tenant-a", Config{LLMCallsPerMinute: 1, TokensPerMinute: 1_000_000, TokensPerHour: 1_000_000, CostPerHourUSD: 1000, CostPerDayUSD: 1000})

	ok, err := l.CheckAndConsume(context.Background(), "tenant-a", tool.TypeLLM, 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.CheckAndConsume(context.Background(), "tenant-a", tool.TypeLLM, 1, 0)
	require.NoError(t, err)
	assert.False(t, ok, "second call should exceed the 1/minute cap")
}

func TestLimiter_CheckAndConsume_AtomicOnRejection(t *testing.T) {
	// When a call exceeds one cap (cost) but would be fine under another
	// (calls), no counter should advance — not even the one that passed.
	l := NewLimiter(NewMemoryStore())
	l.SetTenantConfig("tenant-a", Config{LLMCallsPerMinute: 100, TokensPerMinute: 1_000_000, TokensPerHour: 1_000_000, CostPerHourUSD: 1, CostPerDayUSD: 1})

	ok, err := l.CheckAndConsume(context.Background(), "tenant-a", tool.TypeLLM, 0, 5)
	require.NoError(t, err)
	require.False(t, ok)

	usage, err := l.Usage(context.Background(), "tenant-a", tool.TypeLLM)
	require.NoError(t, err)
	for _, u := range usage {
		if u.Metric == metricCallsLLM {
			assert.Zero(t, u.Current, "call counter must not have advanced when the cost cap rejected the request")
		}
	}
}

func TestLimiter_DefaultConfigForUnconfiguredTenant(t *testing.T) {
	l := NewLimiter(NewMemoryStore())
	ok, err := l.CheckAndConsume(context.Background(), "unknown-tenant", tool.TypeLLM, 10, 0.001)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_CrossTenantIndependence(t *testing.T) {
	l := NewLimiter(NewMemoryStore())
	l.SetTenantConfig("tenant-a", Config{LLMCallsPerMinute: 1})
	l.SetTenantConfig("tenant-b", Config{LLMCallsPerMinute: 1})

	ok, err := l.CheckAndConsume(context.Background(), "tenant-a", tool.TypeLLM, 0, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.CheckAndConsume(context.Background(), "tenant-b", tool.TypeLLM, 0, 0)
	require.NoError(t, err)
	assert.True(t, ok, "tenant-b's cap must be independent of tenant-a's consumption")
}

func TestLimiter_ConcurrentSameTenantSerializes(t *testing.T) {
	l := NewLimiter(NewMemoryStore())
	l.SetTenantConfig("tenant-a", Config{LLMCallsPerMinute: 10})

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.CheckAndConsume(context.Background(), "tenant-a", tool.TypeLLM, 0, 0)
			require.NoError(t, err)
			if ok {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, successes, "exactly the configured cap should succeed under concurrent load")
}

func TestLimiter_ResetTenant(t *testing.T) {
	l := NewLimiter(NewMemoryStore())
	l.SetTenantConfig("tenant-a", Config{LLMCallsPerMinute: 1})

	ok, err := l.CheckAndConsume(context.Background(), "tenant-a", tool.TypeLLM, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.ResetTenant(context.Background(), "tenant-a"))

	// Config reset to default, which has a much higher cap, so this must
	// succeed even though the tenant "used up" its custom cap of 1 above.
	ok, err = l.CheckAndConsume(context.Background(), "tenant-a", tool.TypeLLM, 0, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}
