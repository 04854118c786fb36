package port

import (
	"context"
	"time"
)

// StatsCache caches FraudStats per scope. Every scope has a generation that
// Invalidate advances. Entries are stored under the generation they were
// computed in and only entries of the current generation are served, so a
// reader that counted before an append cannot repopulate the scope with stale
// counts after the append invalidated it.
type StatsCache interface {
	// Get returns the scope's current generation and, on a hit, its stats.
	Get(ctx context.Context, scope string) (stats FraudStats, generation int64, ok bool, err error)

	// Set stores stats computed during generation.
	Set(ctx context.Context, scope string, generation int64, stats FraudStats, ttl time.Duration) error

	// Invalidate advances the generation of each scope after a new record is
	// appended.
	Invalidate(ctx context.Context, scopes ...string) error
}
