package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/internal/domain/port"
	"github.com/txshield/txshield/internal/domain/valueobject"
	"github.com/txshield/txshield/pkg/events"
)

// --- Mock implementations ---

type mockRepository struct {
	mu       sync.Mutex
	records  []*model.TransactionRecord
	filters  []port.RecordFilter
	appendFn func(ctx context.Context, r *model.TransactionRecord) error
	statsErr error
	listErr  error

	// beforeStats runs after the filter is recorded and before counting.
	beforeStats func()
}

func (m *mockRepository) Append(ctx context.Context, r *model.TransactionRecord) error {
	if m.appendFn != nil {
		if err := m.appendFn(ctx, r); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *mockRepository) List(_ context.Context, f port.RecordFilter) ([]*model.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.TransactionRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if matches(m.records[i], f) {
			out = append(out, m.records[i])
		}
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *mockRepository) Stats(_ context.Context, f port.RecordFilter) (port.FraudStats, error) {
	m.mu.Lock()
	m.filters = append(m.filters, f)
	hook := m.beforeStats
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statsErr != nil {
		return port.FraudStats{}, m.statsErr
	}
	f.FraudOnly = false
	var stats port.FraudStats
	for _, r := range m.records {
		if !matches(r, f) {
			continue
		}
		stats.Total++
		if r.IsFraud() {
			stats.Fraudulent++
		}
	}
	return stats, nil
}

func matches(r *model.TransactionRecord, f port.RecordFilter) bool {
	if f.OwnerID != nil && r.OwnerID() != *f.OwnerID {
		return false
	}
	return !f.FraudOnly || r.IsFraud()
}

type mockPublisher struct {
	published []events.DomainEvent
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, evts...)
	return nil
}

type cachedStats struct {
	gen   int64
	stats port.FraudStats
}

type mockCache struct {
	gens        map[string]int64
	entries     map[string]cachedStats
	invalidated []string
	sets        int
	getErr      error
	setErr      error
}

func newMockCache() *mockCache {
	return &mockCache{gens: map[string]int64{}, entries: map[string]cachedStats{}}
}

// put seeds scope at its current generation.
func (m *mockCache) put(scope string, stats port.FraudStats) {
	m.entries[scope] = cachedStats{gen: m.gens[scope], stats: stats}
}

// lookup returns what Get would serve for scope.
func (m *mockCache) lookup(scope string) (port.FraudStats, bool) {
	e, ok := m.entries[scope]
	if !ok || e.gen != m.gens[scope] {
		return port.FraudStats{}, false
	}
	return e.stats, true
}

func (m *mockCache) Get(_ context.Context, scope string) (port.FraudStats, int64, bool, error) {
	if m.getErr != nil {
		return port.FraudStats{}, 0, false, m.getErr
	}
	s, ok := m.lookup(scope)
	return s, m.gens[scope], ok, nil
}

func (m *mockCache) Set(_ context.Context, scope string, gen int64, stats port.FraudStats, _ time.Duration) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[scope] = cachedStats{gen: gen, stats: stats}
	return nil
}

func (m *mockCache) Invalidate(_ context.Context, scopes ...string) error {
	m.invalidated = append(m.invalidated, scopes...)
	for _, s := range scopes {
		m.gens[s]++
	}
	return nil
}

type stubML struct {
	assessment valueobject.MLAssessment
}

func (s stubML) Assess(context.Context, model.TransactionInput) valueobject.MLAssessment {
	return s.assessment
}
