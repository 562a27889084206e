package access

// Permission names as they appear in provider-issued tokens.
const (
	PermReadUsers  = "read:users"
	PermWriteUsers = "write:users"

	PermReadOrganizations  = "read:organizations"
	PermWriteOrganizations = "write:organizations"

	PermReadTeams  = "read:teams"
	PermWriteTeams = "write:teams"

	PermReadAuditLogs   = "read:audit_logs"
	PermVerifyAuditLogs = "verify:audit_logs"

	PermReadCompliance            = "read:compliance"
	PermGenerateComplianceReports = "generate:compliance_reports"
)

// Organization-level roles. System-wide admin roles live in the auth
// package since they are part of principal identity.
const (
	RoleOrgAdmin          = "org_admin"
	RoleAuditor           = "auditor"
	RoleComplianceOfficer = "compliance_officer"
	RoleMember            = "member"
)
