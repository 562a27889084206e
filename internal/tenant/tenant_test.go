package tenant

import (
	"testing"

	"github.com/stretchr/testify/require"

	"veritrail.io/internal/auth"
)

func member(org string) auth.Principal {
	return auth.Principal{
		Subject:        "auth0|member",
		OrganizationID: org,
		Roles:          map[string]struct{}{},
		Permissions:    map[string]struct{}{},
	}
}

func sysAdmin(org string) auth.Principal {
	p := member(org)
	p.Roles[auth.RoleSystemAdmin] = struct{}{}
	return p
}

func TestResolveWithoutOverride(t *testing.T) {
	oc, err := Resolve(member("org-1"), "")
	require.NoError(t, err)
	require.Equal(t, OrgContext{OrgID: "org-1"}, oc)
}

func TestResolveOverrideRequiresAdmin(t *testing.T) {
	_, err := Resolve(member("org-1"), "org-2")
	require.ErrorIs(t, err, ErrOverrideForbidden)
}

func TestResolveAdminOverride(t *testing.T) {
	oc, err := Resolve(sysAdmin("org-home"), "org-target")
	require.NoError(t, err)
	require.True(t, oc.IsOverride)
	require.Equal(t, "org-target", oc.OrgID)
	require.Equal(t, "org-home", oc.OriginalOrgID)
}

func TestRequire(t *testing.T) {
	_, err := OrgContext{}.Require()
	require.ErrorIs(t, err, ErrOrgRequired)

	org, err := OrgContext{OrgID: "org-1"}.Require()
	require.NoError(t, err)
	require.Equal(t, "org-1", org)
}

func TestScopeFilterKinds(t *testing.T) {
	// An administrator without an override reads like a member: pinned
	// to their own organization.
	admin := Scope{Org: OrgContext{OrgID: "org-home"}, Admin: true}
	f := admin.Filter(false)
	require.Equal(t, FilterExact, f.Kind)
	require.Equal(t, "org-home", f.OrgID)
	require.False(t, f.Match("org-B"), "no cross-tenant reads without the override")

	overridden := Scope{
		Org:   OrgContext{OrgID: "org-target", IsOverride: true, OriginalOrgID: "org-home"},
		Admin: true,
	}
	require.Equal(t, FilterUnrestricted, overridden.Filter(false).Kind)

	orgless := Scope{Org: OrgContext{}}
	require.Equal(t, FilterNullOnly, orgless.Filter(false).Kind)

	regular := Scope{Org: OrgContext{OrgID: "org-1"}}
	require.Equal(t, FilterExact, regular.Filter(false).Kind)
	require.Equal(t, FilterOrgOrGlobal, regular.Filter(true).Kind)
}

func TestFilterMatch(t *testing.T) {
	require.True(t, Filter{Kind: FilterUnrestricted}.Match("anything"))

	exact := Filter{Kind: FilterExact, OrgID: "org-1"}
	require.True(t, exact.Match("org-1"))
	require.False(t, exact.Match("org-2"))
	require.False(t, exact.Match(""))

	require.True(t, Filter{Kind: FilterNullOnly}.Match(""))
	require.False(t, Filter{Kind: FilterNullOnly}.Match("org-1"))

	both := Filter{Kind: FilterOrgOrGlobal, OrgID: "org-1"}
	require.True(t, both.Match(""))
	require.True(t, both.Match("org-1"))
	require.False(t, both.Match("org-2"))
}

func TestValidateInsertOrg(t *testing.T) {
	regular := Scope{Org: OrgContext{OrgID: "org-1"}}

	org, err := regular.ValidateInsertOrg("", true)
	require.NoError(t, err)
	require.Equal(t, "org-1", org, "resolved org is injected")

	org, err = regular.ValidateInsertOrg("org-1", true)
	require.NoError(t, err)
	require.Equal(t, "org-1", org)

	_, err = regular.ValidateInsertOrg("org-2", true)
	require.ErrorIs(t, err, ErrCrossTenantWrite)

	orgless := Scope{Org: OrgContext{}}
	_, err = orgless.ValidateInsertOrg("", true)
	require.ErrorIs(t, err, ErrOrgRequired)

	// Without an override an administrator writes like a member.
	admin := Scope{Org: OrgContext{OrgID: "org-home"}, Admin: true}
	_, err = admin.ValidateInsertOrg("org-B", true)
	require.ErrorIs(t, err, ErrCrossTenantWrite)

	org, err = admin.ValidateInsertOrg("", true)
	require.NoError(t, err)
	require.Equal(t, "org-home", org)

	// An active override may write anywhere, including an organization
	// differing from the override itself.
	overriding := Scope{
		Org:   OrgContext{OrgID: "org-target", IsOverride: true},
		Admin: true,
	}
	org, err = overriding.ValidateInsertOrg("org-C", true)
	require.NoError(t, err)
	require.Equal(t, "org-C", org)

	org, err = overriding.ValidateInsertOrg("", true)
	require.NoError(t, err)
	require.Equal(t, "org-target", org, "override org injected by default")
}
