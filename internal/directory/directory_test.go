package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"veritrail.io/internal/tenant"
)

func exact(org string) tenant.Filter {
	return tenant.Filter{Kind: tenant.FilterExact, OrgID: org}
}

func TestTeamsAreTenantFiltered(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a, err := store.CreateTeam(ctx, Team{Name: "platform", OrganizationID: "org-a", OwnerID: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	_, err = store.CreateTeam(ctx, Team{Name: "secops", OrganizationID: "org-b", OwnerID: "u2"})
	require.NoError(t, err)

	teams, err := store.ListTeams(ctx, exact("org-a"))
	require.NoError(t, err)
	require.Len(t, teams, 1)
	require.Equal(t, "platform", teams[0].Name)

	got, err := store.GetTeam(ctx, a.ID, exact("org-a"))
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	_, err = store.GetTeam(ctx, a.ID, exact("org-b"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTeamCapabilityInterfaces(t *testing.T) {
	team := Team{OrganizationID: "org-a", OwnerID: "u1"}
	require.Equal(t, "org-a", team.ResourceOrganizationID())
	require.Equal(t, "u1", team.ResourceOwnerID())
}

func TestUserStats(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	deleted := time.Now().UTC()

	users := []User{
		{ID: "u1", OrganizationID: "org-a", Status: UserActive, EmailVerified: true},
		{ID: "u2", OrganizationID: "org-a", Status: UserActive, EmailVerified: false},
		{ID: "u3", OrganizationID: "org-a", Status: UserBlocked, EmailVerified: true},
		{ID: "u4", OrganizationID: "org-a", Status: UserActive, DeletedAt: &deleted},
		{ID: "u5", OrganizationID: "org-b", Status: UserActive, EmailVerified: true},
	}
	for _, u := range users {
		require.NoError(t, store.PutUser(ctx, u))
	}

	stats, err := store.UserStats(ctx, exact("org-a"))
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalUsers, "soft-deleted users excluded")
	require.Equal(t, 2, stats.ActiveUsers)
	require.Equal(t, 1, stats.BlockedUsers)
	require.Equal(t, 2, stats.EmailVerifiedUsers)
	require.InDelta(t, 66.66, stats.VerificationRate, 0.01)
}

func TestUserStatsEmpty(t *testing.T) {
	stats, err := NewMemoryStore().UserStats(context.Background(), exact("org-a"))
	require.NoError(t, err)
	require.Zero(t, stats.TotalUsers)
	require.Zero(t, stats.VerificationRate)
}
