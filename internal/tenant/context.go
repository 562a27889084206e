package tenant

import (
	"context"
	"errors"

	"veritrail.io/internal/auth"
)

var (
	// ErrOverrideForbidden rejects organization overrides from
	// non-administrators.
	ErrOverrideForbidden = errors.New("tenant: organization override requires a system administrator")
	// ErrOrgRequired signals an operation that cannot proceed without an
	// organization in scope.
	ErrOrgRequired = errors.New("tenant: organization required")
	// ErrCrossTenantWrite rejects writes that name a different
	// organization than the resolved scope.
	ErrCrossTenantWrite = errors.New("tenant: write targets another organization")
)

// OrgContext is the organization a request operates under. When a
// system administrator overrides the scope, the original organization
// is retained for auditing.
type OrgContext struct {
	OrgID         string
	IsOverride    bool
	OriginalOrgID string
}

// Resolve derives the effective organization for a request. An
// override is honored only for system administrators; everyone else
// stays pinned to the organization in their token.
func Resolve(p auth.Principal, overrideOrg string) (OrgContext, error) {
	if overrideOrg == "" {
		return OrgContext{OrgID: p.OrganizationID}, nil
	}
	if !p.IsSystemAdmin() {
		return OrgContext{}, ErrOverrideForbidden
	}
	return OrgContext{
		OrgID:         overrideOrg,
		IsOverride:    true,
		OriginalOrgID: p.OrganizationID,
	}, nil
}

// Require returns the organization id or ErrOrgRequired when the scope
// has none.
func (c OrgContext) Require() (string, error) {
	if c.OrgID == "" {
		return "", ErrOrgRequired
	}
	return c.OrgID, nil
}

type contextKey int

const orgContextKey contextKey = iota

// ContextWithOrg attaches the resolved organization scope to ctx.
func ContextWithOrg(ctx context.Context, oc OrgContext) context.Context {
	return context.WithValue(ctx, orgContextKey, oc)
}

// OrgFromContext returns the organization scope attached by the tenant
// middleware, if any.
func OrgFromContext(ctx context.Context) (OrgContext, bool) {
	oc, ok := ctx.Value(orgContextKey).(OrgContext)
	return oc, ok
}
