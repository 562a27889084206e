package audit

import (
	"context"
	"errors"
	"time"

	"veritrail.io/internal/tenant"
)

// ErrNotFound is returned for reads of records outside the caller's
// scope as well as genuinely absent ids, so existence does not leak
// across tenants.
var ErrNotFound = errors.New("audit: record not found")

// Query restricts a ledger listing. Zero values mean "no restriction"
// except Filter, which is always applied.
type Query struct {
	Filter tenant.Filter

	EventType    string
	Category     string
	ActorID      string
	TargetID     string
	Severity     *Severity
	Outcome      *Outcome
	SecurityOnly bool
	Since        time.Time
	Until        time.Time

	Page     int
	PageSize int
}

// Matches reports whether a record satisfies every restriction of the
// query except pagination. Shared by the memory store and chain
// verification tests.
func (q Query) Matches(r Record) bool {
	if !q.Filter.Match(r.OrganizationID) {
		return false
	}
	if q.EventType != "" && r.EventType != q.EventType {
		return false
	}
	if q.Category != "" && r.Category != q.Category {
		return false
	}
	if q.ActorID != "" && r.ActorID != q.ActorID {
		return false
	}
	if q.TargetID != "" && r.TargetID != q.TargetID {
		return false
	}
	if q.Severity != nil && r.Severity != *q.Severity {
		return false
	}
	if q.Outcome != nil && r.Outcome != *q.Outcome {
		return false
	}
	if q.SecurityOnly && !r.IsSecurityEvent() {
		return false
	}
	if !q.Since.IsZero() && r.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && r.Timestamp.After(q.Until) {
		return false
	}
	return true
}

// Summary aggregates ledger activity over a window.
type Summary struct {
	Total        int            `json:"total"`
	ByCategory   map[string]int `json:"by_category"`
	Failures     int            `json:"failures"`
	HighSeverity int            `json:"high_severity"`
	Since        time.Time      `json:"since"`
}

// Store persists ledger records.
//
// Append must be atomic per chain scope: it reads the scope's tail,
// sets rec.PreviousHash and persists in one step, so two concurrent
// appends to the same scope can never observe the same tail.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string, f tenant.Filter) (Record, error)
	List(ctx context.Context, q Query) ([]Record, int, error)
	Chain(ctx context.Context, scope string, limit int) ([]Record, error)
	Summarize(ctx context.Context, f tenant.Filter, since time.Time) (Summary, error)
}
