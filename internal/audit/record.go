package audit

import (
	"fmt"
	"strings"
	"time"
)

// Event types use dotted names; the first segment is the category.
const (
	EventAuthLoginSuccess    = "auth.login.success"
	EventAuthLoginFailed     = "auth.login.failed"
	EventAuthLogout          = "auth.logout"
	EventAuthMFAEnrolled     = "auth.mfa.enrolled"
	EventAuthMFAChallenge    = "auth.mfa.challenge"
	EventAuthPasswordReset   = "auth.password.reset"
	EventAuthPasswordChanged = "auth.password.changed"

	EventAccessGranted = "access.granted"
	EventAccessDenied  = "access.denied"

	EventAdminOverride      = "admin.override"
	EventAdminConfigChanged = "admin.config.changed"

	EventUserCreated   = "user.created"
	EventUserUpdated   = "user.updated"
	EventUserDeleted   = "user.deleted"
	EventUserBlocked   = "user.blocked"
	EventUserUnblocked = "user.unblocked"

	EventRoleAssigned = "role.assigned"
	EventRoleRemoved  = "role.removed"

	EventOrgCreated = "org.created"
	EventOrgUpdated = "org.updated"
	EventOrgDeleted = "org.deleted"

	EventTeamCreated       = "team.created"
	EventTeamUpdated       = "team.updated"
	EventTeamDeleted       = "team.deleted"
	EventTeamMemberAdded   = "team.member.added"
	EventTeamMemberRemoved = "team.member.removed"

	EventComplianceReportGenerated = "compliance.report.generated"
	EventComplianceExport          = "compliance.export"

	EventSystemError    = "system.error"
	EventSystemStartup  = "system.startup"
	EventSystemShutdown = "system.shutdown"
)

// Severity levels ----------------------------------------------------------

// Severity is a closed enum. Unknown strings are rejected at the
// boundary rather than stored.
type Severity int

// Levels are ordered; info is the zero value so entries recorded
// without an explicit severity default to it.
const (
	SeverityDebug Severity = iota - 1
	SeverityInfo
	SeverityNotice
	SeverityWarning
	SeverityError
	SeverityCritical
	SeverityAlert
)

var severityNames = map[Severity]string{
	SeverityDebug:    "debug",
	SeverityInfo:     "info",
	SeverityNotice:   "notice",
	SeverityWarning:  "warning",
	SeverityError:    "error",
	SeverityCritical: "critical",
	SeverityAlert:    "alert",
}

var severityValues = map[string]Severity{
	"debug":    SeverityDebug,
	"info":     SeverityInfo,
	"notice":   SeverityNotice,
	"warning":  SeverityWarning,
	"error":    SeverityError,
	"critical": SeverityCritical,
	"alert":    SeverityAlert,
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "info"
}

// ParseSeverity maps a stored or supplied string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	if v, ok := severityValues[strings.ToLower(s)]; ok {
		return v, nil
	}
	return SeverityInfo, fmt.Errorf("audit: unknown severity %q", s)
}

// Elevated reports whether the severity marks an event as a security
// event regardless of its type.
func (s Severity) Elevated() bool {
	return s >= SeverityError
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	v, err := ParseSeverity(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Outcomes ------------------------------------------------------------------

// Outcome is the closed result enum of an audited action.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeDenied
	OutcomeError
	OutcomeUnknown
)

var outcomeNames = map[Outcome]string{
	OutcomeSuccess: "success",
	OutcomeFailure: "failure",
	OutcomeDenied:  "denied",
	OutcomeError:   "error",
	OutcomeUnknown: "unknown",
}

var outcomeValues = map[string]Outcome{
	"success": OutcomeSuccess,
	"failure": OutcomeFailure,
	"denied":  OutcomeDenied,
	"error":   OutcomeError,
	"unknown": OutcomeUnknown,
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "success"
}

// ParseOutcome maps a stored or supplied string to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	if v, ok := outcomeValues[strings.ToLower(s)]; ok {
		return v, nil
	}
	return OutcomeSuccess, fmt.Errorf("audit: unknown outcome %q", s)
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.String() + `"`), nil
}

func (o *Outcome) UnmarshalJSON(b []byte) error {
	v, err := ParseOutcome(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Record --------------------------------------------------------------------

// Record is one immutable ledger entry. CurrentHash covers the
// canonical fields; PreviousHash links it to the prior entry of the
// same chain scope.
type Record struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	EventType      string         `json:"event_type"`
	Category       string         `json:"category"`
	Severity       Severity       `json:"severity"`
	Outcome        Outcome        `json:"outcome"`
	ActorID        string         `json:"actor_id"`
	TargetID       string         `json:"target_id"`
	OrganizationID string         `json:"organization_id"`
	Description    string         `json:"description"`
	IPAddress      string         `json:"ip_address,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	Changes        map[string]any `json:"changes,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	PreviousHash   string         `json:"previous_hash"`
	CurrentHash    string         `json:"current_hash"`
}

// ChainScope returns the chain the record belongs to. Records without
// an organization chain among themselves.
func (r Record) ChainScope() string {
	return ChainScope(r.OrganizationID)
}

// ChainScope maps an organization id to its chain scope name.
func ChainScope(orgID string) string {
	if orgID == "" {
		return "global"
	}
	return orgID
}

// IsSecurityEvent reports whether the record counts as a security
// event: authentication, access-control and administrative categories
// always do, and any event at error severity or above does.
func (r Record) IsSecurityEvent() bool {
	switch r.Category {
	case "auth", "access", "admin":
		return true
	}
	return r.Severity.Elevated()
}

// categoryOf derives the category from a dotted event type.
func categoryOf(eventType string) string {
	if i := strings.IndexByte(eventType, '.'); i > 0 {
		return eventType[:i]
	}
	return eventType
}
