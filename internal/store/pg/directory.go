package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"veritrail.io/internal/directory"
	"veritrail.io/internal/ids"
	"veritrail.io/internal/tenant"
)

// DirectoryStore is the PostgreSQL directory.Store.
type DirectoryStore struct {
	db *sql.DB
}

var _ directory.Store = (*DirectoryStore)(nil)

func (s *DirectoryStore) CreateTeam(ctx context.Context, team directory.Team) (directory.Team, error) {
	if team.ID == "" {
		team.ID = ids.New()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into teams (id, name, description, organization_id, owner_id, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, team.ID, team.Name, team.Description, team.OrganizationID, team.OwnerID, team.CreatedAt)
	if err != nil {
		return directory.Team{}, fmt.Errorf("insert team: %w", err)
	}
	return team, nil
}

func (s *DirectoryStore) ListTeams(ctx context.Context, f tenant.Filter) ([]directory.Team, error) {
	var args []any
	query := `select id, name, description, organization_id, owner_id, created_at
		from teams where ` + orgClause("organization_id", f, &args) + ` order by id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []directory.Team
	for rows.Next() {
		var t directory.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.OrganizationID, &t.OwnerID, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *DirectoryStore) GetTeam(ctx context.Context, id string, f tenant.Filter) (directory.Team, error) {
	args := []any{id}
	query := `select id, name, description, organization_id, owner_id, created_at
		from teams where id = $1 and ` + orgClause("organization_id", f, &args)

	var t directory.Team
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&t.ID, &t.Name, &t.Description, &t.OrganizationID, &t.OwnerID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.Team{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Team{}, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

func (s *DirectoryStore) PutUser(ctx context.Context, u directory.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, email, email_verified, name, organization_id, status, created_at, deleted_at)
		values ($1,$2,$3,$4,$5,$6,coalesce($7, now()),$8)
		on conflict (id) do update set
			email = excluded.email,
			email_verified = excluded.email_verified,
			name = excluded.name,
			organization_id = excluded.organization_id,
			status = excluded.status,
			deleted_at = excluded.deleted_at
	`, u.ID, u.Email, u.EmailVerified, u.Name, u.OrganizationID, string(u.Status),
		nullableTime(u.CreatedAt), u.DeletedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *DirectoryStore) UserStats(ctx context.Context, f tenant.Filter) (directory.UserStats, error) {
	var args []any
	query := `
		select count(*),
			count(*) filter (where status = 'active'),
			count(*) filter (where status = 'blocked'),
			count(*) filter (where email_verified)
		from users
		where deleted_at is null and ` + orgClause("organization_id", f, &args)

	var stats directory.UserStats
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalUsers, &stats.ActiveUsers, &stats.BlockedUsers, &stats.EmailVerifiedUsers)
	if err != nil {
		return directory.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	if stats.TotalUsers > 0 {
		stats.VerificationRate = float64(stats.EmailVerifiedUsers) / float64(stats.TotalUsers) * 100
	}
	return stats, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
