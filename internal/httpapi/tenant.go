package httpapi

import (
	"context"
	"errors"
	"net/http"

	"veritrail.io/internal/access"
	"veritrail.io/internal/audit"
	"veritrail.io/internal/auth"
	"veritrail.io/internal/tenant"
)

// overrideHeader lets system administrators act within another
// organization. Its use is always audited.
const overrideHeader = "X-Organization-Override"

func (a *API) withTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		override := r.Header.Get(overrideHeader)
		oc, err := tenant.Resolve(principal, override)
		if errors.Is(err, tenant.ErrOverrideForbidden) {
			a.auditDenied(r, principal, "organization override attempted without system admin role")
			writeError(w, http.StatusForbidden, codeForbidden, "organization override requires a system administrator")
			return
		}

		if oc.IsOverride {
			_, aerr := a.ledger.Append(r.Context(), audit.Entry{
				EventType:      audit.EventAdminOverride,
				ActorID:        principal.Subject,
				OrganizationID: oc.OrgID,
				Description:    "organization scope overridden",
				IPAddress:      clientIP(r),
				UserAgent:      r.UserAgent(),
				Metadata:       map[string]any{"original_org_id": oc.OriginalOrgID},
			})
			if aerr != nil {
				a.log.Error().Err(aerr).Msg("failed to audit org override")
			}
		}

		next.ServeHTTP(w, r.WithContext(tenant.ContextWithOrg(r.Context(), oc)))
	})
}

// requestScope pulls the principal and resolved tenant scope set by the
// middleware chain.
func requestScope(ctx context.Context) (auth.Principal, tenant.Scope, bool) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return auth.Principal{}, tenant.Scope{}, false
	}
	oc, _ := tenant.OrgFromContext(ctx)
	return principal, tenant.Scope{Org: oc, Admin: principal.IsSystemAdmin()}, true
}

// authorize gates a handler on permissions. A denial is written to the
// response and recorded in the ledger before returning false.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, perms ...string) (auth.Principal, tenant.Scope, bool) {
	principal, scope, ok := requestScope(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeTokenInvalid, "authentication required")
		return auth.Principal{}, tenant.Scope{}, false
	}

	if d := access.RequirePermissions(principal, perms...); !d.Allowed {
		a.auditDenied(r, principal, "missing permissions for "+r.URL.Path)
		writeDenied(w, d)
		return auth.Principal{}, tenant.Scope{}, false
	}
	return principal, scope, true
}

func (a *API) auditDenied(r *http.Request, principal auth.Principal, description string) {
	_, err := a.ledger.Append(r.Context(), audit.Entry{
		EventType:      audit.EventAccessDenied,
		Severity:       audit.SeverityWarning,
		Outcome:        audit.OutcomeDenied,
		ActorID:        principal.Subject,
		OrganizationID: principal.OrganizationID,
		Description:    description,
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
		Metadata:       map[string]any{"path": r.URL.Path, "method": r.Method},
	})
	if err != nil {
		a.log.Error().Err(err).Msg("failed to audit access denial")
	}
}
