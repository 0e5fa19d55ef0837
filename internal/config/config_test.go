package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_ReadsAllFields(t *testing.T) {
	t.Setenv("OMNIFORGE_TENANT_ID", "acme-corp")
	t.Setenv("OMNIFORGE_LLM_DEFAULT_MODEL", "gpt-4o")
	t.Setenv("OMNIFORGE_LLM_FALLBACK_MODELS", "gpt-4o-mini, claude-3-haiku")
	t.Setenv("OMNIFORGE_LLM_TIMEOUT_MS", "5000")
	t.Setenv("OMNIFORGE_LLM_MAX_RETRIES", "4")
	t.Setenv("OMNIFORGE_LLM_APPROVED_MODELS", "gpt-4o")
	t.Setenv("OMNIFORGE_LLM_CACHE_ENABLED", "yes")
	t.Setenv("OMNIFORGE_LLM_CACHE_TTL_SECONDS", "600")
	t.Setenv("OMNIFORGE_OPENAI_API_KEY", "sk-test")
	t.Setenv("OMNIFORGE_AZURE_OPENAI_API_BASE", "https://example.openai.azure.com")

	cfg := FromEnv()

	assert.Equal(t, "acme-corp", cfg.TenantID)
	assert.Equal(t, "gpt-4o", cfg.LLM.DefaultModel)
	assert.Equal(t, []string{"gpt-4o-mini", "claude-3-haiku"}, cfg.LLM.FallbackModels)
	assert.Equal(t, int64(5000), cfg.LLM.TimeoutMS)
	assert.Equal(t, 4, cfg.LLM.MaxRetries)
	assert.True(t, cfg.LLM.CacheEnabled)
	assert.Equal(t, int64(600), cfg.LLM.CacheTTLSeconds)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "https://example.openai.azure.com", cfg.AzureOpenAI.APIBase)
}

func TestFromEnv_DefaultsWhenUnset(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, int64(30000), cfg.LLM.TimeoutMS)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.False(t, cfg.LLM.CacheEnabled)
}

func TestEnvBool_AcceptsAllSpellings(t *testing.T) {
	for _, v := range []string{"true", "True", "TRUE", "1", "yes", "Yes"} {
		t.Setenv("OMNIFORGE_TEST_BOOL", v)
		assert.True(t, envBool("OMNIFORGE_TEST_BOOL", false), "value %q should parse true", v)
	}
	for _, v := range []string{"false", "False", "FALSE", "0", "no", "No"} {
		t.Setenv("OMNIFORGE_TEST_BOOL", v)
		assert.False(t, envBool("OMNIFORGE_TEST_BOOL", true), "value %q should parse false", v)
	}
}

func TestExpandEnvVars_BracedAndDefault(t *testing.T) {
	t.Setenv("TEST_MODEL", "gpt-4o")
	assert.Equal(t, "gpt-4o", expandEnvVars("${TEST_MODEL}"))
	assert.Equal(t, "fallback", expandEnvVars("${UNSET_TEST_VAR:-fallback}"))
}

func TestLoadPolicyFile_ExpandsEnvAndParses(t *testing.T) {
	t.Setenv("TEST_MAX_COST", "1.5")

	dir := t.TempDir()
	path := dir + "/policy.yaml"
	contents := `
tenants:
  acme-corp:
    approved_models: ["gpt-4o", "claude-*"]
    require_approval: true
    max_cost_per_call_usd: ${TEST_MAX_COST}
    llm_calls_per_minute: 60
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	pf, err := LoadPolicyFile(path)
	require.NoError(t, err)
	require.Contains(t, pf.Tenants, "acme-corp")

	tenant := pf.Tenants["acme-corp"]
	assert.Equal(t, []string{"gpt-4o", "claude-*"}, tenant.ApprovedModels)
	assert.True(t, tenant.RequireApproval)
	assert.Equal(t, 1.5, tenant.MaxCostPerCallUSD)
	assert.Equal(t, int64(60), tenant.LLMCallsPerMinute)
}

func TestLoadPolicyFile_MissingFile(t *testing.T) {
	_, err := LoadPolicyFile("/nonexistent/policy.yaml")
	assert.Error(t, err)
}
