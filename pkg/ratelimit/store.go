package ratelimit

import "context"
import "time"

// Store is the persistence layer for rate-limit counters, grounded on the
// teacher's ratelimit.Store interface (pkg/ratelimit/interfaces.go) but
// parameterized by a plain metric key instead of the teacher's
// (LimitType,TimeWindow) pair, since agentcore's windows are fixed by
// spec.md §4.2 rather than user-configured.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// GetUsage returns the current counter value and the end of the
	// window it belongs to. If no record exists, or the existing
	// record's window has expired, it returns 0 and a fresh window end
	// (now + window) without writing anything — the roll happens on the
	// next Increment.
	GetUsage(ctx context.Context, tenantID, metric string, window time.Duration) (current float64, windowEnd time.Time, err error)

	// IncrementUsage adds amount to the counter, rolling over to a fresh
	// window first if the current one has expired. Returns the new
	// total and the (possibly just-reset) window end.
	IncrementUsage(ctx context.Context, tenantID, metric string, window time.Duration, amount float64) (newTotal float64, windowEnd time.Time, err error)

	// Reset clears every counter for a tenant.
	Reset(ctx context.Context, tenantID string) error

	// DeleteExpired removes records whose window ended before `before`.
	DeleteExpired(ctx context.Context, before time.Time) error

	// Close releases any resources held by the store.
	Close() error
}
