package access

import (
	"veritrail.io/internal/auth"
)

// OrgScoped is implemented by resources that belong to an organization.
// An empty id means the resource is global (visible to everyone).
// Resources that do not implement the interface carry no organization
// boundary at all.
type OrgScoped interface {
	ResourceOrganizationID() string
}

// Owned is implemented by resources with an owning user.
type Owned interface {
	ResourceOwnerID() string
}

// PolicyContext carries request attributes policies may inspect.
type PolicyContext map[string]any

// Policy is an attribute predicate over principal, resource and
// request context.
type Policy func(p auth.Principal, resource any, ctx PolicyContext) bool

// SameOrganization passes when the resource is global, carries no
// organization boundary, or belongs to the principal's organization.
func SameOrganization() Policy {
	return func(p auth.Principal, resource any, _ PolicyContext) bool {
		scoped, ok := resource.(OrgScoped)
		if !ok {
			return true
		}
		orgID := scoped.ResourceOrganizationID()
		if orgID == "" {
			return true
		}
		return orgID == p.OrganizationID
	}
}

// OwnedBy passes when the principal is the resource owner. Resources
// without an owner fail the policy.
func OwnedBy() Policy {
	return func(p auth.Principal, resource any, _ PolicyContext) bool {
		owned, ok := resource.(Owned)
		if !ok {
			return false
		}
		return owned.ResourceOwnerID() != "" && owned.ResourceOwnerID() == p.Subject
	}
}

// HasAttribute passes when the request context carries the exact
// key/value pair.
func HasAttribute(key string, want any) Policy {
	return func(_ auth.Principal, _ any, ctx PolicyContext) bool {
		got, ok := ctx[key]
		return ok && got == want
	}
}

// All combines policies conjunctively.
func All(policies ...Policy) Policy {
	return func(p auth.Principal, resource any, ctx PolicyContext) bool {
		for _, policy := range policies {
			if !policy(p, resource, ctx) {
				return false
			}
		}
		return true
	}
}

// Any combines policies disjunctively. No policies means no match.
func Any(policies ...Policy) Policy {
	return func(p auth.Principal, resource any, ctx PolicyContext) bool {
		for _, policy := range policies {
			if policy(p, resource, ctx) {
				return true
			}
		}
		return false
	}
}
