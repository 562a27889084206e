package audit

import (
	"context"
	"sync"
	"time"

	"veritrail.io/internal/tenant"
)

// MemoryStore is the in-process Store used in tests and single-node
// deployments. One lock serializes appends across all scopes, which
// trivially satisfies the per-scope atomicity contract.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	byID    map[string]int
	tails   map[string]string
}

// NewMemoryStore returns an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  map[string]int{},
		tails: map[string]string{},
	}
}

// Append links the record to its scope's tail and persists it.
func (s *MemoryStore) Append(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := rec.ChainScope()
	prev, ok := s.tails[scope]
	if !ok {
		prev = GenesisHash
	}
	rec.PreviousHash = prev

	s.byID[rec.ID] = len(s.records)
	s.records = append(s.records, *rec)
	s.tails[scope] = rec.CurrentHash
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string, f tenant.Filter) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec := s.records[i]
	if !f.Match(rec.OrganizationID) {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns matching records newest first, with the total match
// count for pagination.
func (s *MemoryStore) List(_ context.Context, q Query) ([]Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if q.Matches(s.records[i]) {
			matched = append(matched, s.records[i])
		}
	}

	total := len(matched)
	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = total
	}
	start := (page - 1) * size
	if start >= total {
		return nil, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// Chain returns the most recent records of a scope in append order.
// limit <= 0 returns the whole chain.
func (s *MemoryStore) Chain(_ context.Context, scope string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chain []Record
	for _, rec := range s.records {
		if rec.ChainScope() == scope {
			chain = append(chain, rec)
		}
	}
	if limit > 0 && len(chain) > limit {
		chain = chain[len(chain)-limit:]
	}
	return chain, nil
}

func (s *MemoryStore) Summarize(_ context.Context, f tenant.Filter, since time.Time) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{ByCategory: map[string]int{}, Since: since}
	for _, rec := range s.records {
		if !f.Match(rec.OrganizationID) {
			continue
		}
		if !since.IsZero() && rec.Timestamp.Before(since) {
			continue
		}
		sum.Total++
		sum.ByCategory[rec.Category]++
		if rec.Outcome != OutcomeSuccess {
			sum.Failures++
		}
		if rec.Severity.Elevated() {
			sum.HighSeverity++
		}
	}
	return sum, nil
}

// mutate rewrites a stored record in place. Test hook for integrity
// verification; never used by production code paths.
func (s *MemoryStore) mutate(id string, fn func(*Record)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	fn(&s.records[i])
	return true
}
