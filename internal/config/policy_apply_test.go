package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniforge/agentcore/pkg/governance"
	"github.com/omniforge/agentcore/pkg/ratelimit"
	"github.com/omniforge/agentcore/pkg/tool"
)

func TestPolicyFile_ApplyWiresGovernanceAndLimiter(t *testing.T) {
	pf := &PolicyFile{
		Tenants: map[string]TenantPolicy{
			"acme-corp": {
				BlockedModels:     []string{"gpt-3.5-turbo"},
				MaxCostPerCallUSD: 0.25,
				LLMCallsPerMinute: 30,
			},
		},
	}

	gov := governance.NewGovernance(nil)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	pf.Apply(gov, limiter)

	err := gov.Validate("acme-corp", "gpt-3.5-turbo", nil)
	assert.Error(t, err)

	err = gov.Validate("other-tenant", "gpt-3.5-turbo", nil)
	assert.NoError(t, err)

	usage, err := limiter.Usage(context.Background(), "acme-corp", tool.TypeLLM)
	require.NoError(t, err)
	require.NotEmpty(t, usage)
	assert.Equal(t, "calls:llm", usage[0].Metric)
	assert.Equal(t, float64(30), usage[0].Limit)
}
