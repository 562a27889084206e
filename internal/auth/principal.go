package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// System-wide administrator roles. Either grants the universal bypass.
const (
	RoleSystemAdmin = "system_admin"
	RoleSuperAdmin  = "super_admin"
)

// Principal is the authenticated caller derived from a verified token.
// Role and permission membership is kept as sets since every check is a
// lookup.
type Principal struct {
	Subject        string
	Email          string
	EmailVerified  bool
	Name           string
	Nickname       string
	PictureURL     string
	OrganizationID string
	Permissions    map[string]struct{}
	Roles          map[string]struct{}
	AppMetadata    map[string]any
	UserMetadata   map[string]any
	RawToken       string
}

// ExtractPrincipal builds a Principal from verified claims. Custom
// claims may be published either bare or under the provider's namespace
// prefix; the bare form wins when both are present.
func ExtractPrincipal(claims jwt.MapClaims, rawToken, namespace string) Principal {
	ns := strings.TrimSuffix(namespace, "/")

	p := Principal{
		Subject:        stringClaim(claims, ns, "sub"),
		Email:          stringClaim(claims, ns, "email"),
		EmailVerified:  boolClaim(claims, ns, "email_verified"),
		Name:           stringClaim(claims, ns, "name"),
		Nickname:       stringClaim(claims, ns, "nickname"),
		PictureURL:     stringClaim(claims, ns, "picture"),
		OrganizationID: stringClaim(claims, ns, "org_id"),
		Permissions:    setClaim(claims, ns, "permissions"),
		Roles:          setClaim(claims, ns, "roles"),
		AppMetadata:    mapClaim(claims, ns, "app_metadata"),
		UserMetadata:   mapClaim(claims, ns, "user_metadata"),
		RawToken:       rawToken,
	}
	return p
}

// HasRole reports whether the principal carries the exact role.
func (p Principal) HasRole(role string) bool {
	_, ok := p.Roles[role]
	return ok
}

// HasPermission reports whether the principal carries the exact permission.
func (p Principal) HasPermission(perm string) bool {
	_, ok := p.Permissions[perm]
	return ok
}

// HasAnyPermission reports whether at least one of the permissions is held.
func (p Principal) HasAnyPermission(perms ...string) bool {
	for _, perm := range perms {
		if p.HasPermission(perm) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every listed permission is held.
func (p Principal) HasAllPermissions(perms ...string) bool {
	for _, perm := range perms {
		if !p.HasPermission(perm) {
			return false
		}
	}
	return true
}

// IsSystemAdmin reports whether the principal holds a system-wide
// administrator role. System admins bypass organization isolation and
// permission checks everywhere.
func (p Principal) IsSystemAdmin() bool {
	return p.HasRole(RoleSystemAdmin) || p.HasRole(RoleSuperAdmin)
}

func claimValue(claims jwt.MapClaims, ns, name string) (any, bool) {
	if v, ok := claims[name]; ok {
		return v, true
	}
	if ns != "" {
		if v, ok := claims[ns+"/"+name]; ok {
			return v, true
		}
	}
	return nil, false
}

func stringClaim(claims jwt.MapClaims, ns, name string) string {
	v, ok := claimValue(claims, ns, name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func boolClaim(claims jwt.MapClaims, ns, name string) bool {
	v, ok := claimValue(claims, ns, name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// setClaim coerces a claim into a string set. Non-list values and
// non-string elements are dropped rather than rejected: a malformed
// custom claim should degrade to "no grants", not break authentication.
func setClaim(claims jwt.MapClaims, ns, name string) map[string]struct{} {
	out := map[string]struct{}{}
	v, ok := claimValue(claims, ns, name)
	if !ok {
		return out
	}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}

func mapClaim(claims jwt.MapClaims, ns, name string) map[string]any {
	v, ok := claimValue(claims, ns, name)
	if !ok {
		return map[string]any{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}
