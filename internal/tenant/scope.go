package tenant

// FilterKind classifies how a query is restricted by organization.
type FilterKind int

const (
	// FilterUnrestricted sees every row.
	FilterUnrestricted FilterKind = iota
	// FilterExact sees rows of one organization.
	FilterExact
	// FilterNullOnly sees only rows without an organization.
	FilterNullOnly
	// FilterOrgOrGlobal sees one organization's rows plus global rows.
	FilterOrgOrGlobal
)

// Filter is the tenancy restriction stores apply to reads.
type Filter struct {
	Kind  FilterKind
	OrgID string
}

// Match reports whether a row with the given organization id (empty
// means global) is visible under the filter.
func (f Filter) Match(orgID string) bool {
	switch f.Kind {
	case FilterUnrestricted:
		return true
	case FilterExact:
		return orgID == f.OrgID
	case FilterNullOnly:
		return orgID == ""
	case FilterOrgOrGlobal:
		return orgID == "" || orgID == f.OrgID
	default:
		return false
	}
}

// Scope combines a resolved organization context with the caller's
// administrative standing.
type Scope struct {
	Org   OrgContext
	Admin bool
}

// Filter derives the read restriction for this scope. Only an active
// override lifts the restriction; administrators without one stay
// pinned to the organization in their token like everyone else, so
// cross-tenant reads always pass through the audited override path.
// Principals without an organization see only global rows.
func (s Scope) Filter(includeGlobal bool) Filter {
	if s.Org.IsOverride {
		return Filter{Kind: FilterUnrestricted}
	}
	if s.Org.OrgID == "" {
		return Filter{Kind: FilterNullOnly}
	}
	if includeGlobal {
		return Filter{Kind: FilterOrgOrGlobal, OrgID: s.Org.OrgID}
	}
	return Filter{Kind: FilterExact, OrgID: s.Org.OrgID}
}

// ValidateInsertOrg resolves the organization a new row must carry.
// requested is what the caller asked for (may be empty); required
// rejects rows that would end up global. An active override may name
// any organization, even one differing from the override itself;
// everyone else, administrators included, writes only into their own
// scope.
func (s Scope) ValidateInsertOrg(requested string, required bool) (string, error) {
	if s.Org.IsOverride {
		resolved := requested
		if resolved == "" {
			resolved = s.Org.OrgID
		}
		if resolved == "" && required {
			return "", ErrOrgRequired
		}
		return resolved, nil
	}

	resolved := s.Org.OrgID
	if requested != "" && requested != resolved {
		return "", ErrCrossTenantWrite
	}
	if resolved == "" && required {
		return "", ErrOrgRequired
	}
	return resolved, nil
}
