package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/omniforge/agentcore/pkg/governance"
	"github.com/omniforge/agentcore/pkg/ratelimit"
)

// TenantPolicy is one tenant's entry in a policy YAML file: the
// governance rules spec.md §4.3 describes plus the rate-limit quotas
// spec.md §4.2 describes, loaded together since operators configure both
// per tenant in the same document.
type TenantPolicy struct {
	ApprovedModels    []string `yaml:"approved_models,omitempty"`
	BlockedModels     []string `yaml:"blocked_models,omitempty"`
	RequireApproval   bool     `yaml:"require_approval,omitempty"`
	MaxCostPerCallUSD float64  `yaml:"max_cost_per_call_usd,omitempty"`

	LLMCallsPerMinute      int64   `yaml:"llm_calls_per_minute,omitempty"`
	ExternalCallsPerMinute int64   `yaml:"external_calls_per_minute,omitempty"`
	DatabaseCallsPerMinute int64   `yaml:"database_calls_per_minute,omitempty"`
	TokensPerMinute        int64   `yaml:"tokens_per_minute,omitempty"`
	TokensPerHour          int64   `yaml:"tokens_per_hour,omitempty"`
	CostPerHourUSD         float64 `yaml:"cost_per_hour_usd,omitempty"`
	CostPerDayUSD          float64 `yaml:"cost_per_day_usd,omitempty"`
}

// PolicyFile is the root of a tenant policy YAML document:
//
//	tenants:
//	  acme-corp:
//	    approved_models: ["gpt-4o", "claude-*"]
//	    require_approval: true
//	    max_cost_per_call_usd: 0.50
//	    llm_calls_per_minute: 60
type PolicyFile struct {
	Tenants map[string]TenantPolicy `yaml:"tenants"`
}

var (
	envWithDefault = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`)
	envBraced      = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
)

// expandEnvVars resolves ${VAR} and ${VAR:-default} references, grounded
// on the teacher's env var expansion (pkg/config/env.go).
func expandEnvVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	s = envWithDefault.ReplaceAllStringFunc(s, func(match string) string {
		parts := envWithDefault.FindStringSubmatch(match)
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})
	s = envBraced.ReplaceAllStringFunc(s, func(match string) string {
		parts := envBraced.FindStringSubmatch(match)
		return os.Getenv(parts[1])
	})
	return s
}

// LoadPolicyFile reads and parses a tenant policy YAML document, applying
// ${VAR} expansion to every string value before unmarshalling.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	var pf PolicyFile
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(raw))), &pf); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	return &pf, nil
}

// GovernancePolicy converts a TenantPolicy into pkg/governance's Policy type.
func (p TenantPolicy) GovernancePolicy() governance.Policy {
	return governance.Policy{
		ApprovedModels:    p.ApprovedModels,
		BlockedModels:     p.BlockedModels,
		RequireApproval:   p.RequireApproval,
		MaxCostPerCallUSD: p.MaxCostPerCallUSD,
	}
}

// RateLimitConfig converts a TenantPolicy into pkg/ratelimit's Config type.
func (p TenantPolicy) RateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		LLMCallsPerMinute:      p.LLMCallsPerMinute,
		ExternalCallsPerMinute: p.ExternalCallsPerMinute,
		DatabaseCallsPerMinute: p.DatabaseCallsPerMinute,
		TokensPerMinute:        p.TokensPerMinute,
		TokensPerHour:          p.TokensPerHour,
		CostPerHourUSD:         p.CostPerHourUSD,
		CostPerDayUSD:          p.CostPerDayUSD,
	}
}

// Apply installs every tenant's policy into gov and limiter, the wiring
// step cmd/agentcored performs at startup and again on every hot reload.
func (pf *PolicyFile) Apply(gov *governance.Governance, limiter *ratelimit.Limiter) {
	for tenantID, policy := range pf.Tenants {
		gov.SetTenantPolicy(tenantID, policy.GovernancePolicy())
		limiter.SetTenantConfig(tenantID, policy.RateLimitConfig())
	}
}
