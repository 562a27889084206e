package directory

import (
	"context"
	"errors"

	"veritrail.io/internal/tenant"
)

// ErrNotFound is returned for absent entities and entities hidden by
// the tenancy filter alike.
var ErrNotFound = errors.New("directory: not found")

// TeamStore persists teams.
type TeamStore interface {
	CreateTeam(ctx context.Context, team Team) (Team, error)
	ListTeams(ctx context.Context, f tenant.Filter) ([]Team, error)
	GetTeam(ctx context.Context, id string, f tenant.Filter) (Team, error)
}

// UserStore exposes the user aggregates the core needs.
type UserStore interface {
	UserStats(ctx context.Context, f tenant.Filter) (UserStats, error)
	PutUser(ctx context.Context, u User) error
}

// Store is the full directory surface.
type Store interface {
	TeamStore
	UserStore
}
