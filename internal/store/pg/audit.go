package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"veritrail.io/internal/audit"
	"veritrail.io/internal/tenant"
)

// AuditStore is the PostgreSQL audit.Store.
type AuditStore struct {
	db *sql.DB
}

var _ audit.Store = (*AuditStore)(nil)

const auditColumns = `id, timestamp, event_type, category, severity, outcome,
	actor_id, target_id, organization_id, description, ip_address, user_agent,
	changes, metadata, previous_hash, current_hash`

// Append links the record to its scope's tail and inserts it. A
// transactional advisory lock on the chain scope serializes concurrent
// appends so no two records can claim the same tail.
func (s *AuditStore) Append(ctx context.Context, rec *audit.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	scope := rec.ChainScope()
	if _, err := tx.ExecContext(ctx, `select pg_advisory_xact_lock(hashtext($1))`, scope); err != nil {
		return fmt.Errorf("lock chain %s: %w", scope, err)
	}

	var prev string
	err = tx.QueryRowContext(ctx, `
		select current_hash from audit_logs
		where chain_scope = $1
		order by id desc
		limit 1
	`, scope).Scan(&prev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		prev = audit.GenesisHash
	case err != nil:
		return fmt.Errorf("read chain tail: %w", err)
	}
	rec.PreviousHash = prev

	changes, err := marshalJSONB(rec.Changes)
	if err != nil {
		return err
	}
	metadata, err := marshalJSONB(rec.Metadata)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		insert into audit_logs (
			id, timestamp, event_type, category, severity, outcome,
			actor_id, target_id, organization_id, chain_scope, description,
			ip_address, user_agent, changes, metadata, previous_hash, current_hash
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		rec.ID, rec.Timestamp, rec.EventType, rec.Category,
		rec.Severity.String(), rec.Outcome.String(),
		rec.ActorID, rec.TargetID, rec.OrganizationID, scope, rec.Description,
		rec.IPAddress, rec.UserAgent, changes, metadata,
		rec.PreviousHash, rec.CurrentHash,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return tx.Commit()
}

func (s *AuditStore) Get(ctx context.Context, id string, f tenant.Filter) (audit.Record, error) {
	args := []any{id}
	query := `select ` + auditColumns + ` from audit_logs where id = $1 and ` +
		orgClause("organization_id", f, &args)

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return audit.Record{}, audit.ErrNotFound
	}
	return rec, err
}

func (s *AuditStore) List(ctx context.Context, q audit.Query) ([]audit.Record, int, error) {
	var args []any
	where := buildAuditWhere(q, &args)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from audit_logs where `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit records: %w", err)
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 50
	}
	args = append(args, size, (page-1)*size)
	query := fmt.Sprintf(`select %s from audit_logs where %s order by id desc limit $%d offset $%d`,
		auditColumns, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var recs []audit.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, rec)
	}
	return recs, total, rows.Err()
}

// Chain returns the most recent limit records of a scope in append
// order. ULIDs make id order append order.
func (s *AuditStore) Chain(ctx context.Context, scope string, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+auditColumns+` from (
			select `+auditColumns+` from audit_logs
			where chain_scope = $1
			order by id desc
			limit $2
		) tail order by id asc
	`, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("load chain: %w", err)
	}
	defer rows.Close()

	var recs []audit.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *AuditStore) Summarize(ctx context.Context, f tenant.Filter, since time.Time) (audit.Summary, error) {
	var args []any
	where := orgClause("organization_id", f, &args)
	if !since.IsZero() {
		args = append(args, since)
		where += fmt.Sprintf(" and timestamp >= $%d", len(args))
	}

	sum := audit.Summary{ByCategory: map[string]int{}, Since: since}
	err := s.db.QueryRowContext(ctx, `
		select count(*),
			count(*) filter (where outcome <> 'success'),
			count(*) filter (where severity in ('error','critical','alert'))
		from audit_logs where `+where, args...,
	).Scan(&sum.Total, &sum.Failures, &sum.HighSeverity)
	if err != nil {
		return sum, fmt.Errorf("summarize audit records: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`select category, count(*) from audit_logs where `+where+` group by category`, args...)
	if err != nil {
		return sum, fmt.Errorf("summarize by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return sum, err
		}
		sum.ByCategory[category] = n
	}
	return sum, rows.Err()
}

func buildAuditWhere(q audit.Query, args *[]any) string {
	clauses := []string{orgClause("organization_id", q.Filter, args)}

	add := func(clause string, val any) {
		*args = append(*args, val)
		clauses = append(clauses, fmt.Sprintf(clause, len(*args)))
	}

	if q.EventType != "" {
		add("event_type = $%d", q.EventType)
	}
	if q.Category != "" {
		add("category = $%d", q.Category)
	}
	if q.ActorID != "" {
		add("actor_id = $%d", q.ActorID)
	}
	if q.TargetID != "" {
		add("target_id = $%d", q.TargetID)
	}
	if q.Severity != nil {
		add("severity = $%d", q.Severity.String())
	}
	if q.Outcome != nil {
		add("outcome = $%d", q.Outcome.String())
	}
	if q.SecurityOnly {
		clauses = append(clauses,
			`(category in ('auth','access','admin') or severity in ('error','critical','alert'))`)
	}
	if !q.Since.IsZero() {
		add("timestamp >= $%d", q.Since)
	}
	if !q.Until.IsZero() {
		add("timestamp <= $%d", q.Until)
	}
	return strings.Join(clauses, " and ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (audit.Record, error) {
	var rec audit.Record
	var severity, outcome string
	var changes, metadata []byte

	err := row.Scan(
		&rec.ID, &rec.Timestamp, &rec.EventType, &rec.Category, &severity, &outcome,
		&rec.ActorID, &rec.TargetID, &rec.OrganizationID, &rec.Description,
		&rec.IPAddress, &rec.UserAgent, &changes, &metadata,
		&rec.PreviousHash, &rec.CurrentHash,
	)
	if err != nil {
		return audit.Record{}, err
	}

	if rec.Severity, err = audit.ParseSeverity(severity); err != nil {
		return audit.Record{}, err
	}
	if rec.Outcome, err = audit.ParseOutcome(outcome); err != nil {
		return audit.Record{}, err
	}
	if err := unmarshalJSONB(changes, &rec.Changes); err != nil {
		return audit.Record{}, err
	}
	if err := unmarshalJSONB(metadata, &rec.Metadata); err != nil {
		return audit.Record{}, err
	}
	return rec, nil
}

func marshalJSONB(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}
	return b, nil
}

func unmarshalJSONB(b []byte, dst *map[string]any) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode jsonb: %w", err)
	}
	return nil
}
