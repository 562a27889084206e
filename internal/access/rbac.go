package access

import (
	"veritrail.io/internal/auth"
)

// Decision is the outcome of an authorization check. Denials are data:
// callers decide whether a false decision becomes a 403, a skipped
// item or a log line.
type Decision struct {
	Allowed            bool
	MissingPermissions []string
	MissingRoles       []string
	Reason             string
}

// Allow is the affirmative decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a negative decision with a human-readable reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// RequirePermissions checks that the principal holds every listed
// permission. System admins always pass.
func RequirePermissions(p auth.Principal, perms ...string) Decision {
	if p.IsSystemAdmin() {
		return Allow()
	}
	var missing []string
	for _, perm := range perms {
		if !p.HasPermission(perm) {
			missing = append(missing, perm)
		}
	}
	if len(missing) > 0 {
		return Decision{
			MissingPermissions: missing,
			Reason:             "missing required permissions",
		}
	}
	return Allow()
}

// RequireAnyPermission checks that the principal holds at least one of
// the listed permissions. System admins always pass.
func RequireAnyPermission(p auth.Principal, perms ...string) Decision {
	if p.IsSystemAdmin() {
		return Allow()
	}
	if p.HasAnyPermission(perms...) {
		return Allow()
	}
	return Decision{
		MissingPermissions: perms,
		Reason:             "none of the accepted permissions held",
	}
}

// RequireAnyRole checks that the principal holds at least one of the
// listed roles. System admins always pass.
func RequireAnyRole(p auth.Principal, roles ...string) Decision {
	if p.IsSystemAdmin() {
		return Allow()
	}
	for _, role := range roles {
		if p.HasRole(role) {
			return Allow()
		}
	}
	return Decision{
		MissingRoles: roles,
		Reason:       "none of the accepted roles held",
	}
}

// RequireRoles checks that the principal holds every listed role.
// System admins always pass.
func RequireRoles(p auth.Principal, roles ...string) Decision {
	if p.IsSystemAdmin() {
		return Allow()
	}
	var missing []string
	for _, role := range roles {
		if !p.HasRole(role) {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		return Decision{
			MissingRoles: missing,
			Reason:       "missing required roles",
		}
	}
	return Allow()
}
