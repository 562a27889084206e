package compliance

import (
	"strings"

	"veritrail.io/internal/audit"
)

// Framework identifies a supported compliance framework.
type Framework string

const (
	SOC2     Framework = "soc2"
	HIPAA    Framework = "hipaa"
	GDPR     Framework = "gdpr"
	ISO27001 Framework = "iso27001"
	PCIDSS   Framework = "pci_dss"
	NIST     Framework = "nist"
)

// frameworks in catalog order.
var frameworks = []Framework{SOC2, HIPAA, GDPR, ISO27001, PCIDSS, NIST}

// Valid reports whether f names a supported framework.
func (f Framework) Valid() bool {
	for _, known := range frameworks {
		if f == known {
			return true
		}
	}
	return false
}

// DisplayName renders the catalog name ("SOC2", "PCI DSS").
func (f Framework) DisplayName() string {
	return strings.ReplaceAll(strings.ToUpper(string(f)), "_", " ")
}

// FrameworkInfo is the catalog listing entry.
type FrameworkInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Frameworks lists every supported framework.
func Frameworks() []FrameworkInfo {
	out := make([]FrameworkInfo, 0, len(frameworks))
	for _, f := range frameworks {
		out = append(out, FrameworkInfo{
			ID:          string(f),
			Name:        f.DisplayName(),
			Description: f.DisplayName() + " compliance framework",
		})
	}
	return out
}

// Control is one auditable requirement within a framework.
type Control struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Category groups controls within a framework.
type Category struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Controls []Control `json:"controls"`
}

// Controls returns the control catalog for a framework. Frameworks in
// the enum without a curated catalog yet return nil.
func Controls(f Framework) []Category {
	return frameworkControls[f]
}

var frameworkControls = map[Framework][]Category{
	SOC2: {
		{
			ID: "CC1", Name: "Control Environment",
			Controls: []Control{
				{ID: "CC1.1", Name: "COSO Principle 1", Description: "Demonstrates commitment to integrity"},
				{ID: "CC1.2", Name: "COSO Principle 2", Description: "Board oversight"},
				{ID: "CC1.3", Name: "COSO Principle 3", Description: "Management structure"},
				{ID: "CC1.4", Name: "COSO Principle 4", Description: "Commitment to competence"},
				{ID: "CC1.5", Name: "COSO Principle 5", Description: "Accountability"},
			},
		},
		{
			ID: "CC2", Name: "Communication and Information",
			Controls: []Control{
				{ID: "CC2.1", Name: "COSO Principle 13", Description: "Quality information"},
				{ID: "CC2.2", Name: "COSO Principle 14", Description: "Internal communication"},
				{ID: "CC2.3", Name: "COSO Principle 15", Description: "External communication"},
			},
		},
		{
			ID: "CC6", Name: "Logical and Physical Access Controls",
			Controls: []Control{
				{ID: "CC6.1", Name: "Logical access security", Description: "Access control policies"},
				{ID: "CC6.2", Name: "Access provisioning", Description: "User provisioning/deprovisioning"},
				{ID: "CC6.3", Name: "Access modification", Description: "Role changes"},
				{ID: "CC6.6", Name: "System boundaries", Description: "Network security"},
				{ID: "CC6.7", Name: "Data transmission", Description: "Encryption in transit"},
			},
		},
		{
			ID: "CC7", Name: "System Operations",
			Controls: []Control{
				{ID: "CC7.1", Name: "Vulnerability management", Description: "Security monitoring"},
				{ID: "CC7.2", Name: "Anomaly detection", Description: "Incident detection"},
				{ID: "CC7.3", Name: "Security incidents", Description: "Incident response"},
				{ID: "CC7.4", Name: "Incident recovery", Description: "Recovery procedures"},
			},
		},
	},
	HIPAA: {
		{
			ID: "Administrative", Name: "Administrative Safeguards",
			Controls: []Control{
				{ID: "164.308(a)(1)", Name: "Security Management", Description: "Risk analysis and management"},
				{ID: "164.308(a)(3)", Name: "Workforce Security", Description: "Authorization procedures"},
				{ID: "164.308(a)(4)", Name: "Information Access", Description: "Access authorization"},
				{ID: "164.308(a)(5)", Name: "Security Awareness", Description: "Training programs"},
				{ID: "164.308(a)(6)", Name: "Security Incidents", Description: "Incident procedures"},
			},
		},
		{
			ID: "Technical", Name: "Technical Safeguards",
			Controls: []Control{
				{ID: "164.312(a)(1)", Name: "Access Control", Description: "Unique user identification"},
				{ID: "164.312(b)", Name: "Audit Controls", Description: "Activity logging"},
				{ID: "164.312(c)(1)", Name: "Integrity", Description: "Data integrity mechanisms"},
				{ID: "164.312(d)", Name: "Authentication", Description: "Person/entity authentication"},
				{ID: "164.312(e)(1)", Name: "Transmission Security", Description: "Encryption"},
			},
		},
	},
	GDPR: {
		{
			ID: "Article5", Name: "Principles",
			Controls: []Control{
				{ID: "Art5.1a", Name: "Lawfulness", Description: "Lawful processing"},
				{ID: "Art5.1b", Name: "Purpose Limitation", Description: "Specified purposes"},
				{ID: "Art5.1c", Name: "Data Minimization", Description: "Adequate, relevant, limited"},
				{ID: "Art5.1d", Name: "Accuracy", Description: "Accurate and up to date"},
				{ID: "Art5.1f", Name: "Security", Description: "Integrity and confidentiality"},
			},
		},
		{
			ID: "Article32", Name: "Security of Processing",
			Controls: []Control{
				{ID: "Art32.1a", Name: "Pseudonymization", Description: "Data pseudonymization"},
				{ID: "Art32.1b", Name: "CIA", Description: "Confidentiality, integrity, availability"},
				{ID: "Art32.1c", Name: "Resilience", Description: "System resilience"},
				{ID: "Art32.1d", Name: "Testing", Description: "Regular testing"},
			},
		},
	},
}

// controlEvidence maps control ids to the audit event types that count
// as evidence of the control operating.
var controlEvidence = map[string][]string{
	"CC6.1":         {audit.EventAuthLoginSuccess, audit.EventAuthLoginFailed},
	"CC6.2":         {audit.EventUserCreated, audit.EventUserDeleted},
	"CC6.3":         {audit.EventRoleAssigned, audit.EventRoleRemoved},
	"CC7.2":         {audit.EventAccessDenied, audit.EventAuthLoginFailed},
	"164.312(b)":    {audit.EventAuthLoginSuccess, audit.EventUserUpdated},
	"164.312(a)(1)": {audit.EventAuthMFAEnrolled, audit.EventAuthMFAChallenge},
}
