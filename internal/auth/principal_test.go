package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testNamespace = "https://veritrail.io"

func TestExtractPrincipalBareClaims(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":            "auth0|u1",
		"email":          "dev@acme.test",
		"email_verified": true,
		"name":           "Dev One",
		"org_id":         "org-1",
		"permissions":    []any{"read:users", "write:users"},
		"roles":          []any{"developer"},
	}

	p := ExtractPrincipal(claims, "raw-token", testNamespace)

	require.Equal(t, "auth0|u1", p.Subject)
	require.Equal(t, "dev@acme.test", p.Email)
	require.True(t, p.EmailVerified)
	require.Equal(t, "org-1", p.OrganizationID)
	require.True(t, p.HasPermission("read:users"))
	require.True(t, p.HasRole("developer"))
	require.Equal(t, "raw-token", p.RawToken)
}

func TestExtractPrincipalNamespacedFallback(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":                            "auth0|u2",
		testNamespace + "/email":         "ns@acme.test",
		testNamespace + "/org_id":        "org-2",
		testNamespace + "/roles":         []any{"org_admin"},
		testNamespace + "/app_metadata":  map[string]any{"plan": "enterprise"},
		testNamespace + "/user_metadata": map[string]any{"theme": "dark"},
	}

	p := ExtractPrincipal(claims, "", testNamespace)

	require.Equal(t, "ns@acme.test", p.Email)
	require.Equal(t, "org-2", p.OrganizationID)
	require.True(t, p.HasRole("org_admin"))
	require.Equal(t, "enterprise", p.AppMetadata["plan"])
	require.Equal(t, "dark", p.UserMetadata["theme"])
}

func TestExtractPrincipalBareWinsOverNamespaced(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":                     "auth0|u3",
		"org_id":                  "org-bare",
		testNamespace + "/org_id": "org-namespaced",
	}

	p := ExtractPrincipal(claims, "", testNamespace)
	require.Equal(t, "org-bare", p.OrganizationID)
}

func TestExtractPrincipalMalformedSetsDegrade(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":         "auth0|u4",
		"permissions": "read:users", // not a list
		"roles":       []any{42, "developer", ""},
	}

	p := ExtractPrincipal(claims, "", testNamespace)

	require.Empty(t, p.Permissions)
	require.True(t, p.HasRole("developer"))
	require.Len(t, p.Roles, 1)
}

func TestIsSystemAdmin(t *testing.T) {
	for _, role := range []string{RoleSystemAdmin, RoleSuperAdmin} {
		p := ExtractPrincipal(jwt.MapClaims{"roles": []any{role}}, "", testNamespace)
		require.True(t, p.IsSystemAdmin(), role)
	}

	p := ExtractPrincipal(jwt.MapClaims{"roles": []any{"org_admin"}}, "", testNamespace)
	require.False(t, p.IsSystemAdmin())
}

func TestPermissionCombinators(t *testing.T) {
	p := ExtractPrincipal(jwt.MapClaims{
		"permissions": []any{"read:users", "read:audit_logs"},
	}, "", testNamespace)

	require.True(t, p.HasAnyPermission("write:users", "read:users"))
	require.False(t, p.HasAnyPermission("write:users", "delete:users"))
	require.True(t, p.HasAllPermissions("read:users", "read:audit_logs"))
	require.False(t, p.HasAllPermissions("read:users", "write:users"))
}
