package governance

import (
	"errors"
	"fmt"
	"sync"
)

// ErrModelNotApproved is returned by Validate for every governance
// rejection reason spec.md §4.3 lists (blocked, unapproved-but-required,
// over cost cap). Callers distinguish the reason from the error text;
// NotApprovedError carries the structured Reason.
var ErrModelNotApproved = errors.New("model not approved")

// Reason identifies why Validate rejected a call.
type Reason string

const (
	ReasonBlocked        Reason = "blocked"
	ReasonNotApproved    Reason = "not_approved"
	ReasonOverCostCap    Reason = "over_cost_cap"
)

// NotApprovedError wraps ErrModelNotApproved with the specific Reason and
// the model/tenant it was raised for.
type NotApprovedError struct {
	Tenant string
	Model  string
	Reason Reason
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("governance: tenant %q model %q: %s", e.Tenant, e.Model, e.Reason)
}

func (e *NotApprovedError) Unwrap() error { return ErrModelNotApproved }

// Policy is a tenant's (or the default) model governance configuration.
type Policy struct {
	ApprovedModels    []string
	BlockedModels     []string
	RequireApproval   bool
	MaxCostPerCallUSD float64 // 0 means unbounded
}

// DefaultPolicy is permissive: nothing blocked, approval not required, no
// cost cap. Tenants opt into stricter governance by registering a Policy.
func DefaultPolicy() Policy {
	return Policy{}
}

// Governance evaluates model-access policy per tenant, grounded on the
// teacher's registry.Base pattern (pkg/registry/registry.go) for the
// per-tenant map, generalized here to a domain type instead of Go
// generics since Policy carries no shared interface with other entries.
type Governance struct {
	tracker *Tracker

	mu       sync.RWMutex
	policies map[string]Policy
}

// NewGovernance creates a Governance backed by tracker (for cost
// estimation). A nil tracker uses NewTracker(nil).
func NewGovernance(tracker *Tracker) *Governance {
	if tracker == nil {
		tracker = NewTracker(nil)
	}
	return &Governance{tracker: tracker, policies: make(map[string]Policy)}
}

// SetTenantPolicy installs tenant's governance policy, replacing any
// previous one.
func (g *Governance) SetTenantPolicy(tenantID string, policy Policy) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.policies[tenantID] = policy
}

func (g *Governance) policyFor(tenantID string) Policy {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if p, ok := g.policies[tenantID]; ok {
		return p
	}
	return DefaultPolicy()
}

// PolicyFor exposes a tenant's current governance policy, read-only. Used
// by the server's tenant-policy endpoint so operators can inspect what's
// configured without reaching into the config files directly.
func (g *Governance) PolicyFor(tenantID string) Policy {
	return g.policyFor(tenantID)
}

// Validate enforces spec.md §4.3's governance checks, in order: blocked
// models always fail; if require_approval is set, the model must match
// an approved-models glob; finally, if estimatedCost exceeds the
// tenant's max_cost_per_call_usd (when set), the call fails.
func (g *Governance) Validate(tenantID, model string, estimatedCost *float64) error {
	policy := g.policyFor(tenantID)

	if anyGlobMatch(policy.BlockedModels, model) {
		return &NotApprovedError{Tenant: tenantID, Model: model, Reason: ReasonBlocked}
	}

	if policy.RequireApproval && !anyGlobMatch(policy.ApprovedModels, model) {
		return &NotApprovedError{Tenant: tenantID, Model: model, Reason: ReasonNotApproved}
	}

	if policy.MaxCostPerCallUSD > 0 && estimatedCost != nil && *estimatedCost > policy.MaxCostPerCallUSD {
		return &NotApprovedError{Tenant: tenantID, Model: model, Reason: ReasonOverCostCap}
	}

	return nil
}

// EstimateCall delegates to the underlying Tracker.
func (g *Governance) EstimateCall(model string, messages []Message, maxTokens *int64) float64 {
	return g.tracker.EstimateCall(model, messages, maxTokens)
}

// ActualCost delegates to the underlying Tracker.
func (g *Governance) ActualCost(model string, usage Usage) float64 {
	return g.tracker.ActualCost(model, usage)
}
