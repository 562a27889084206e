package access

import (
	"veritrail.io/internal/auth"
)

// Checker composes permission, role and policy requirements into one
// reusable authorization gate. Zero value allows everything beyond the
// authenticated principal itself.
type Checker struct {
	// Permissions the principal must hold. With AnyPermission set, one
	// is enough; otherwise all are required.
	Permissions   []string
	AnyPermission bool

	// Roles the principal must hold. With AnyRole set, one is enough;
	// otherwise all are required.
	Roles   []string
	AnyRole bool

	// Policies evaluated against the resource. Skipped when the caller
	// checks without a concrete resource.
	Policies []Policy
}

// Check evaluates the gate for a principal and an optional resource.
// System admins bypass every requirement.
func (c Checker) Check(p auth.Principal, resource any, ctx PolicyContext) Decision {
	if p.IsSystemAdmin() {
		return Allow()
	}

	if len(c.Permissions) > 0 {
		var d Decision
		if c.AnyPermission {
			d = RequireAnyPermission(p, c.Permissions...)
		} else {
			d = RequirePermissions(p, c.Permissions...)
		}
		if !d.Allowed {
			return d
		}
	}

	if len(c.Roles) > 0 {
		var d Decision
		if c.AnyRole {
			d = RequireAnyRole(p, c.Roles...)
		} else {
			d = RequireRoles(p, c.Roles...)
		}
		if !d.Allowed {
			return d
		}
	}

	if resource != nil {
		for _, policy := range c.Policies {
			if !policy(p, resource, ctx) {
				return Deny("resource policy not satisfied")
			}
		}
	}

	return Allow()
}
