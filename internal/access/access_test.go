package access

import (
	"testing"

	"github.com/stretchr/testify/require"

	"veritrail.io/internal/auth"
)

func principal(org string, roles []string, perms []string) auth.Principal {
	p := auth.Principal{
		Subject:        "auth0|tester",
		OrganizationID: org,
		Roles:          map[string]struct{}{},
		Permissions:    map[string]struct{}{},
	}
	for _, r := range roles {
		p.Roles[r] = struct{}{}
	}
	for _, perm := range perms {
		p.Permissions[perm] = struct{}{}
	}
	return p
}

type doc struct {
	org   string
	owner string
}

func (d doc) ResourceOrganizationID() string { return d.org }
func (d doc) ResourceOwnerID() string        { return d.owner }

// unscoped carries no organization or owner at all.
type unscoped struct{}

func TestRequirePermissionsReportsMissing(t *testing.T) {
	p := principal("org-1", nil, []string{PermReadUsers})

	d := RequirePermissions(p, PermReadUsers, PermWriteUsers)
	require.False(t, d.Allowed)
	require.Equal(t, []string{PermWriteUsers}, d.MissingPermissions)

	d = RequirePermissions(p, PermReadUsers)
	require.True(t, d.Allowed)
	require.Empty(t, d.MissingPermissions)
}

func TestRequireAnyPermission(t *testing.T) {
	p := principal("org-1", nil, []string{PermReadAuditLogs})

	require.True(t, RequireAnyPermission(p, PermWriteUsers, PermReadAuditLogs).Allowed)

	d := RequireAnyPermission(p, PermWriteUsers, PermWriteTeams)
	require.False(t, d.Allowed)
	require.Len(t, d.MissingPermissions, 2)
}

func TestRequireRoles(t *testing.T) {
	p := principal("org-1", []string{RoleAuditor}, nil)

	require.True(t, RequireRoles(p, RoleAuditor).Allowed)

	d := RequireRoles(p, RoleAuditor, RoleOrgAdmin)
	require.False(t, d.Allowed)
	require.Equal(t, []string{RoleOrgAdmin}, d.MissingRoles)
}

func TestRequireAnyRole(t *testing.T) {
	p := principal("org-1", []string{RoleAuditor}, nil)

	require.True(t, RequireAnyRole(p, RoleOrgAdmin, RoleAuditor).Allowed)

	d := RequireAnyRole(p, RoleOrgAdmin, RoleComplianceOfficer)
	require.False(t, d.Allowed)
	require.Len(t, d.MissingRoles, 2)
}

func TestCheckerAnyRole(t *testing.T) {
	gate := Checker{
		Roles:   []string{RoleAuditor, RoleComplianceOfficer},
		AnyRole: true,
	}

	auditor := principal("org-1", []string{RoleAuditor}, nil)
	require.True(t, gate.Check(auditor, nil, nil).Allowed)

	member := principal("org-1", []string{RoleMember}, nil)
	d := gate.Check(member, nil, nil)
	require.False(t, d.Allowed)
	require.Len(t, d.MissingRoles, 2)

	// Without AnyRole every listed role is required.
	gate.AnyRole = false
	require.False(t, gate.Check(auditor, nil, nil).Allowed)
}

func TestSystemAdminBypassesEverything(t *testing.T) {
	admin := principal("", []string{auth.RoleSystemAdmin}, nil)

	require.True(t, RequirePermissions(admin, PermWriteOrganizations).Allowed)
	require.True(t, RequireRoles(admin, RoleOrgAdmin).Allowed)

	gate := Checker{
		Permissions: []string{PermWriteTeams},
		Roles:       []string{RoleOrgAdmin},
		Policies:    []Policy{SameOrganization()},
	}
	d := gate.Check(admin, doc{org: "org-other"}, nil)
	require.True(t, d.Allowed)
}

func TestSameOrganizationPolicy(t *testing.T) {
	p := principal("org-1", nil, nil)
	policy := SameOrganization()

	require.True(t, policy(p, doc{org: "org-1"}, nil))
	require.False(t, policy(p, doc{org: "org-2"}, nil))
	require.True(t, policy(p, doc{org: ""}, nil), "global resources are visible")
	require.True(t, policy(p, unscoped{}, nil), "resources without an org boundary pass")
}

func TestOwnedByPolicy(t *testing.T) {
	p := principal("org-1", nil, nil)
	policy := OwnedBy()

	require.True(t, policy(p, doc{owner: "auth0|tester"}, nil))
	require.False(t, policy(p, doc{owner: "auth0|other"}, nil))
	require.False(t, policy(p, doc{}, nil), "ownerless resources fail")
	require.False(t, policy(p, unscoped{}, nil))
}

func TestPolicyCombinators(t *testing.T) {
	p := principal("org-1", nil, nil)
	mine := doc{org: "org-1", owner: "auth0|tester"}
	foreign := doc{org: "org-2", owner: "auth0|other"}

	both := All(SameOrganization(), OwnedBy())
	require.True(t, both(p, mine, nil))
	require.False(t, both(p, foreign, nil))

	either := Any(OwnedBy(), HasAttribute("break_glass", true))
	require.False(t, either(p, foreign, nil))
	require.True(t, either(p, foreign, PolicyContext{"break_glass": true}))
}

func TestCheckerComposition(t *testing.T) {
	gate := Checker{
		Permissions:   []string{PermReadTeams, PermWriteTeams},
		AnyPermission: true,
		Policies:      []Policy{SameOrganization()},
	}

	member := principal("org-1", []string{RoleMember}, []string{PermReadTeams})

	require.True(t, gate.Check(member, doc{org: "org-1"}, nil).Allowed)
	require.False(t, gate.Check(member, doc{org: "org-2"}, nil).Allowed)

	// No resource: policies are skipped, permissions still enforced.
	require.True(t, gate.Check(member, nil, nil).Allowed)

	stranger := principal("org-1", nil, nil)
	d := gate.Check(stranger, nil, nil)
	require.False(t, d.Allowed)
	require.NotEmpty(t, d.MissingPermissions)
}
