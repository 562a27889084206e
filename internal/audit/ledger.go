package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"veritrail.io/internal/ids"
	"veritrail.io/internal/obs"
	"veritrail.io/internal/tenant"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500

	// defaultVerifyLimit bounds how far back VerifyChain walks when the
	// caller does not say.
	defaultVerifyLimit = 1000
)

// Entry describes an event to be recorded. Severity defaults to info
// and Outcome to success.
type Entry struct {
	EventType      string
	Severity       Severity
	Outcome        Outcome
	ActorID        string
	TargetID       string
	OrganizationID string
	Description    string
	IPAddress      string
	UserAgent      string
	Changes        map[string]any
	Metadata       map[string]any
}

// Ledger is the tamper-evident audit log service.
type Ledger struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLedgerClock overrides the time source (useful for tests).
func WithLedgerClock(fn func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if fn != nil {
			l.now = fn
		}
	}
}

// WithLedgerLogger sets the logger.
func WithLedgerLogger(log zerolog.Logger) LedgerOption {
	return func(l *Ledger) {
		l.log = log
	}
}

// NewLedger constructs a Ledger over the given store.
func NewLedger(store Store, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store: store,
		log:   obs.Logger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records an event. The record's hash is computed from the
// canonical fields before the store links it to the chain tail, so the
// append itself stays a single atomic store operation.
func (l *Ledger) Append(ctx context.Context, e Entry) (Record, error) {
	if e.EventType == "" {
		return Record{}, fmt.Errorf("audit: event type required")
	}

	rec := Record{
		ID:             ids.New(),
		Timestamp:      l.now().UTC(),
		EventType:      e.EventType,
		Category:       categoryOf(e.EventType),
		Severity:       e.Severity,
		Outcome:        e.Outcome,
		ActorID:        e.ActorID,
		TargetID:       e.TargetID,
		OrganizationID: e.OrganizationID,
		Description:    e.Description,
		IPAddress:      e.IPAddress,
		UserAgent:      e.UserAgent,
		Changes:        e.Changes,
		Metadata:       e.Metadata,
	}
	rec.CurrentHash = ComputeHash(rec)

	if err := l.store.Append(ctx, &rec); err != nil {
		return Record{}, fmt.Errorf("append audit record: %w", err)
	}

	scopeKind := "organization"
	if rec.OrganizationID == "" {
		scopeKind = "global"
	}
	obs.ObserveAuditAppend(scopeKind)

	l.log.Debug().
		Str("audit_id", rec.ID).
		Str("event_type", rec.EventType).
		Str("org_id", rec.OrganizationID).
		Msg("audit record appended")
	return rec, nil
}

// Get fetches a single record visible under the filter.
func (l *Ledger) Get(ctx context.Context, id string, f tenant.Filter) (Record, error) {
	return l.store.Get(ctx, id, f)
}

// Query lists records matching q, newest first. Page size is clamped.
func (l *Ledger) Query(ctx context.Context, q Query) ([]Record, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return l.store.List(ctx, q)
}

// SecurityEvents lists security-relevant records within the trailing
// window.
func (l *Ledger) SecurityEvents(ctx context.Context, f tenant.Filter, window time.Duration, page, pageSize int) ([]Record, int, error) {
	q := Query{
		Filter:       f,
		SecurityOnly: true,
		Page:         page,
		PageSize:     pageSize,
	}
	if window > 0 {
		q.Since = l.now().UTC().Add(-window)
	}
	return l.Query(ctx, q)
}

// Summary aggregates activity within the trailing window.
func (l *Ledger) Summary(ctx context.Context, f tenant.Filter, window time.Duration) (Summary, error) {
	var since time.Time
	if window > 0 {
		since = l.now().UTC().Add(-window)
	}
	return l.store.Summarize(ctx, f, since)
}

// Chain integrity ------------------------------------------------------------

// BrokenLink describes one integrity violation found during
// verification.
type BrokenLink struct {
	RecordID string `json:"record_id"`
	Kind     string `json:"kind"` // "hash_mismatch" or "chain_broken"
	Detail   string `json:"detail"`
}

// IntegrityReport is the result of walking a chain scope. Violations
// are data, not errors.
type IntegrityReport struct {
	Scope         string       `json:"scope"`
	VerifiedCount int          `json:"verified_count"`
	IsValid       bool         `json:"is_valid"`
	BrokenLinks   []BrokenLink `json:"broken_links,omitempty"`
}

// VerifyChain recomputes hashes and checks links over the most recent
// limit records of a scope. When the walk is truncated the oldest
// fetched record's back-link is not checked, since its predecessor was
// not fetched.
func (l *Ledger) VerifyChain(ctx context.Context, scope string, limit int) (IntegrityReport, error) {
	if limit <= 0 {
		limit = defaultVerifyLimit
	}
	chain, err := l.store.Chain(ctx, scope, limit)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("load chain %s: %w", scope, err)
	}

	report := IntegrityReport{Scope: scope, IsValid: true}
	truncated := len(chain) == limit

	for i, rec := range chain {
		if got := ComputeHash(rec); got != rec.CurrentHash {
			report.BrokenLinks = append(report.BrokenLinks, BrokenLink{
				RecordID: rec.ID,
				Kind:     "hash_mismatch",
				Detail:   fmt.Sprintf("stored hash %.12s does not match recomputed %.12s", rec.CurrentHash, got),
			})
		}
		switch {
		case i > 0:
			if rec.PreviousHash != chain[i-1].CurrentHash {
				report.BrokenLinks = append(report.BrokenLinks, BrokenLink{
					RecordID: rec.ID,
					Kind:     "chain_broken",
					Detail:   fmt.Sprintf("previous hash does not match record %s", chain[i-1].ID),
				})
			}
		case !truncated:
			if rec.PreviousHash != GenesisHash {
				report.BrokenLinks = append(report.BrokenLinks, BrokenLink{
					RecordID: rec.ID,
					Kind:     "chain_broken",
					Detail:   "first record does not link to the genesis hash",
				})
			}
		}
		report.VerifiedCount++
	}

	report.IsValid = len(report.BrokenLinks) == 0
	if !report.IsValid {
		l.log.Warn().
			Str("scope", scope).
			Int("broken_links", len(report.BrokenLinks)).
			Msg("audit chain integrity violation")
	}
	return report, nil
}
