package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"veritrail.io/internal/tenant"
)

// Store wraps the shared connection pool. Domain stores are views over
// the same pool.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL via the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Audit returns the ledger store view.
func (s *Store) Audit() *AuditStore { return &AuditStore{db: s.db} }

// Directory returns the directory store view.
func (s *Store) Directory() *DirectoryStore { return &DirectoryStore{db: s.db} }

// orgClause renders the tenancy filter as SQL against an
// organization_id column ('' means global) and appends bind args.
func orgClause(column string, f tenant.Filter, args *[]any) string {
	switch f.Kind {
	case tenant.FilterExact:
		*args = append(*args, f.OrgID)
		return fmt.Sprintf("%s = $%d", column, len(*args))
	case tenant.FilterNullOnly:
		return column + " = ''"
	case tenant.FilterOrgOrGlobal:
		*args = append(*args, f.OrgID)
		return fmt.Sprintf("(%s = $%d or %s = '')", column, len(*args), column)
	default:
		return "true"
	}
}
