package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/omniforge/agentcore/pkg/tool"
)

// Limiter is the per-tenant quota gate. It resolves a tenant's Config
// (falling back to DefaultConfig for unconfigured tenants), then gates
// every call through CheckAndConsume per spec.md §4.2: evaluate every
// applicable cap against current usage, and only if none would be
// exceeded does it consume budget against all of them. Concurrent calls
// for the same tenant serialize through that tenant's mutex; calls across
// tenants never block each other, grounded on the teacher's
// ratelimit.Limiter (pkg/ratelimit/limiter.go) per-tenant locking scheme.
type Limiter struct {
	store Store

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	configs map[string]Config
}

// NewLimiter creates a Limiter backed by store. Tenant configs are set
// via SetTenantConfig; tenants without one use DefaultConfig.
func NewLimiter(store Store) *Limiter {
	return &Limiter{
		store:   store,
		locks:   make(map[string]*sync.Mutex),
		configs: make(map[string]Config),
	}
}

// SetTenantConfig installs tenant's quota configuration, replacing any
// previous one. It does not reset already-consumed usage; a tenant's
// counters continue rolling on their existing window boundaries.
func (l *Limiter) SetTenantConfig(tenantID string, cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.configs[tenantID] = cfg
}

// ResetTenant clears tenant's configured override (falling back to
// DefaultConfig) and its stored usage counters.
func (l *Limiter) ResetTenant(ctx context.Context, tenantID string) error {
	l.mu.Lock()
	delete(l.configs, tenantID)
	l.mu.Unlock()
	return l.store.Reset(ctx, tenantID)
}

func (l *Limiter) configFor(tenantID string) Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg, ok := l.configs[tenantID]; ok {
		return cfg
	}
	return DefaultConfig()
}

func (l *Limiter) lockFor(tenantID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[tenantID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[tenantID] = m
	}
	return m
}

// usageCheck is one (metric, requested amount, cap) tuple applicable to a
// single CheckAndConsume call.
type usageCheck struct {
	metric string
	amount float64
	limit  float64
}

// CheckAndConsume evaluates every cap applicable to a call of toolType
// with the given token and cost usage, and only if none would be
// exceeded does it consume budget against all of them atomically. It
// returns false (without consuming anything) the moment any single cap
// would be exceeded.
func (l *Limiter) CheckAndConsume(ctx context.Context, tenantID string, toolType tool.Type, tokens int64, cost float64) (bool, error) {
	mu := l.lockFor(tenantID)
	mu.Lock()
	defer mu.Unlock()

	cfg := l.configFor(tenantID)
	checks := l.applicableChecks(cfg, toolType, tokens, cost)

	for _, c := range checks {
		current, _, err := l.store.GetUsage(ctx, tenantID, c.metric, windowFor(c.metric))
		if err != nil {
			return false, fmt.Errorf("ratelimit: get usage %s: %w", c.metric, err)
		}
		if current+c.amount > c.limit {
			return false, nil
		}
	}

	for _, c := range checks {
		if _, _, err := l.store.IncrementUsage(ctx, tenantID, c.metric, windowFor(c.metric), c.amount); err != nil {
			return false, fmt.Errorf("ratelimit: increment usage %s: %w", c.metric, err)
		}
	}

	return true, nil
}

func (l *Limiter) applicableChecks(cfg Config, toolType tool.Type, tokens int64, cost float64) []usageCheck {
	var checks []usageCheck

	if cat, metric, ok := categoryFor(toolType); ok {
		if cap := cfg.callsPerMinuteCap(cat); cap > 0 {
			checks = append(checks, usageCheck{metric: metric, amount: 1, limit: float64(cap)})
		}
	}

	if tokens > 0 {
		if cfg.TokensPerMinute > 0 {
			checks = append(checks, usageCheck{metric: metricTokensMinute, amount: float64(tokens), limit: float64(cfg.TokensPerMinute)})
		}
		if cfg.TokensPerHour > 0 {
			checks = append(checks, usageCheck{metric: metricTokensHour, amount: float64(tokens), limit: float64(cfg.TokensPerHour)})
		}
	}

	if cost > 0 {
		if cfg.CostPerHourUSD > 0 {
			checks = append(checks, usageCheck{metric: metricCostHour, amount: cost, limit: cfg.CostPerHourUSD})
		}
		if cfg.CostPerDayUSD > 0 {
			checks = append(checks, usageCheck{metric: metricCostDay, amount: cost, limit: cfg.CostPerDayUSD})
		}
	}

	return checks
}

// Usage reports the current state of every window applicable to toolType
// for tenantID, without consuming anything. Used by the usage-reporting
// HTTP endpoint (SPEC_FULL.md §6.1).
func (l *Limiter) Usage(ctx context.Context, tenantID string, toolType tool.Type) ([]Usage, error) {
	cfg := l.configFor(tenantID)
	var out []Usage

	addUsage := func(metric string, limit float64) error {
		window := windowFor(metric)
		current, windowEnd, err := l.store.GetUsage(ctx, tenantID, metric, window)
		if err != nil {
			return err
		}
		out = append(out, Usage{Metric: metric, Window: window, Current: current, Limit: limit, WindowEnd: windowEnd})
		return nil
	}

	if cat, metric, ok := categoryFor(toolType); ok {
		if err := addUsage(metric, float64(cfg.callsPerMinuteCap(cat))); err != nil {
			return nil, fmt.Errorf("ratelimit: usage: %w", err)
		}
	}
	if err := addUsage(metricTokensMinute, float64(cfg.TokensPerMinute)); err != nil {
		return nil, fmt.Errorf("ratelimit: usage: %w", err)
	}
	if err := addUsage(metricTokensHour, float64(cfg.TokensPerHour)); err != nil {
		return nil, fmt.Errorf("ratelimit: usage: %w", err)
	}
	if err := addUsage(metricCostHour, cfg.CostPerHourUSD); err != nil {
		return nil, fmt.Errorf("ratelimit: usage: %w", err)
	}
	if err := addUsage(metricCostDay, cfg.CostPerDayUSD); err != nil {
		return nil, fmt.Errorf("ratelimit: usage: %w", err)
	}
	return out, nil
}

// categoryFor maps a tool.Type onto the rate-limit Category that governs
// it, if any. Only llm, api, and database tool types are call-rate
// limited per spec.md §4.2.
func categoryFor(t tool.Type) (cat Category, metric string, ok bool) {
	var c Category
	switch t {
	case tool.TypeLLM:
		c = CategoryLLM
	case tool.TypeAPI:
		c = CategoryExternal
	case tool.TypeDatabase:
		c = CategoryDatabase
	default:
		return "", "", false
	}
	m, _, ok := callMetric(c)
	if !ok {
		return "", "", false
	}
	return c, m, true
}

func windowFor(metric string) time.Duration {
	switch metric {
	case metricTokensHour, metricCostHour:
		return windowHour
	case metricCostDay:
		return windowDay
	default:
		return windowMinute
	}
}
