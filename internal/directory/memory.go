package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"veritrail.io/internal/ids"
	"veritrail.io/internal/tenant"
)

// MemoryStore is the in-process directory used in tests and single-node
// deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	teams map[string]Team
	users map[string]User
}

// NewMemoryStore returns an empty directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams: map[string]Team{},
		users: map[string]User{},
	}
}

func (s *MemoryStore) CreateTeam(_ context.Context, team Team) (Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if team.ID == "" {
		team.ID = ids.New()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	s.teams[team.ID] = team
	return team, nil
}

func (s *MemoryStore) ListTeams(_ context.Context, f tenant.Filter) ([]Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Team
	for _, team := range s.teams {
		if f.Match(team.OrganizationID) {
			out = append(out, team)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetTeam(_ context.Context, id string, f tenant.Filter) (Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	team, ok := s.teams[id]
	if !ok || !f.Match(team.OrganizationID) {
		return Team{}, ErrNotFound
	}
	return team, nil
}

func (s *MemoryStore) PutUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = ids.New()
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) UserStats(_ context.Context, f tenant.Filter) (UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats UserStats
	for _, u := range s.users {
		if u.DeletedAt != nil || !f.Match(u.OrganizationID) {
			continue
		}
		stats.TotalUsers++
		switch u.Status {
		case UserActive:
			stats.ActiveUsers++
		case UserBlocked:
			stats.BlockedUsers++
		}
		if u.EmailVerified {
			stats.EmailVerifiedUsers++
		}
	}
	if stats.TotalUsers > 0 {
		stats.VerificationRate = float64(stats.EmailVerifiedUsers) / float64(stats.TotalUsers) * 100
	}
	return stats, nil
}
