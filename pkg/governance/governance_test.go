package governance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernance_DefaultPolicyAllowsEverything(t *testing.T) {
	g := NewGovernance(nil)
	err := g.Validate("tenant-a", "gpt-4o", nil)
	assert.NoError(t, err)
}

func TestGovernance_BlockedModel(t *testing.T) {
	g := NewGovernance(nil)
	g.SetTenantPolicy("tenant-a", Policy{BlockedModels: []string{"gpt-3.5*"}})

	err := g.Validate("tenant-a", "gpt-3.5-turbo", nil)
	require.Error(t, err)
	var nae *NotApprovedError
	require.True(t, errors.As(err, &nae))
	assert.Equal(t, ReasonBlocked, nae.Reason)
	assert.True(t, errors.Is(err, ErrModelNotApproved))
}

func TestGovernance_RequireApprovalRejectsUnlisted(t *testing.T) {
	g := NewGovernance(nil)
	g.SetTenantPolicy("tenant-a", Policy{RequireApproval: true, ApprovedModels: []string{"gpt-4o"}})

	err := g.Validate("tenant-a", "gpt-4o-mini", nil)
	require.Error(t, err)
	var nae *NotApprovedError
	require.True(t, errors.As(err, &nae))
	assert.Equal(t, ReasonNotApproved, nae.Reason)

	assert.NoError(t, g.Validate("tenant-a", "gpt-4o", nil))
}

func TestGovernance_MaxCostPerCall(t *testing.T) {
	g := NewGovernance(nil)
	g.SetTenantPolicy("tenant-a", Policy{MaxCostPerCallUSD: 0.01})

	over := 0.05
	err := g.Validate("tenant-a", "gpt-4o", &over)
	require.Error(t, err)
	var nae *NotApprovedError
	require.True(t, errors.As(err, &nae))
	assert.Equal(t, ReasonOverCostCap, nae.Reason)

	under := 0.001
	assert.NoError(t, g.Validate("tenant-a", "gpt-4o", &under))
}

func TestGovernance_EstimateAndActualCost(t *testing.T) {
	g := NewGovernance(nil)
	maxTokens := int64(1000)

	estimate := g.EstimateCall("gpt-4o", []Message{{Role: "user", Content: "hello world, how are you today?"}}, &maxTokens)
	assert.Greater(t, estimate, 0.0)

	actual := g.ActualCost("gpt-4o", Usage{InputTokens: 100, OutputTokens: 200})
	assert.Greater(t, actual, 0.0)

	reported := 1.23
	assert.Equal(t, reported, g.ActualCost("gpt-4o", Usage{ReportedCostUSD: &reported}))
}

func TestCostTable_UnknownModelUsesDefault(t *testing.T) {
	table := NewCostTable()
	cost := table.Lookup("some-model-nobody-has-heard-of")
	assert.Equal(t, defaultModelCost, cost)
}

func TestCostTable_SetOverride(t *testing.T) {
	table := NewCostTable()
	table.Set("custom-model", ModelCost{InputCostPer1M: 1, OutputCostPer1M: 2, MaxOutputTokens: 100})
	cost := table.Lookup("custom-model")
	assert.Equal(t, float64(1), cost.InputCostPer1M)
}
