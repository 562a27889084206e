package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"veritrail.io/internal/audit"
	"veritrail.io/internal/directory"
	"veritrail.io/internal/tenant"
)

func orgFilter(org string) tenant.Filter {
	return tenant.Filter{Kind: tenant.FilterExact, OrgID: org}
}

func seededScorer(t *testing.T) (*Scorer, *audit.Ledger, *directory.MemoryStore) {
	t.Helper()
	ledger := audit.NewLedger(audit.NewMemoryStore())
	users := directory.NewMemoryStore()
	return NewScorer(ledger, users), ledger, users
}

func appendN(t *testing.T, ledger *audit.Ledger, n int, entry audit.Entry) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := ledger.Append(ctx, entry)
		require.NoError(t, err)
	}
}

func TestStatusForEvidenceThresholds(t *testing.T) {
	require.Equal(t, StatusCompliant, statusForEvidence(100))
	require.Equal(t, StatusCompliant, statusForEvidence(250))
	require.Equal(t, StatusPartial, statusForEvidence(99))
	require.Equal(t, StatusPartial, statusForEvidence(10))
	require.Equal(t, StatusPendingReview, statusForEvidence(9))
	require.Equal(t, StatusPendingReview, statusForEvidence(1))
	require.Equal(t, StatusNotApplicable, statusForEvidence(0))
}

func TestScoreWeights(t *testing.T) {
	results := []ControlResult{
		{Status: StatusCompliant},
		{Status: StatusPartial},
		{Status: StatusPendingReview},
		{Status: StatusNonCompliant},
		{Status: StatusNotApplicable},
	}
	// (1.0 + 0.5 + 0.25 + 0) / 4 = 43.75
	require.Equal(t, 43.75, Score(results))
}

func TestScoreEdgeCases(t *testing.T) {
	require.Equal(t, 0.0, Score(nil))
	allNA := []ControlResult{{Status: StatusNotApplicable}, {Status: StatusNotApplicable}}
	require.Equal(t, 100.0, Score(allNA))
}

func TestFrameworkCatalog(t *testing.T) {
	infos := Frameworks()
	require.Len(t, infos, 6)
	require.Equal(t, "soc2", infos[0].ID)
	require.Equal(t, "PCI DSS", infos[4].Name)

	require.True(t, Framework("hipaa").Valid())
	require.False(t, Framework("fedramp").Valid())

	soc2 := Controls(SOC2)
	require.Len(t, soc2, 4)
	require.NotEmpty(t, Controls(HIPAA))
	require.NotEmpty(t, Controls(GDPR))
	require.Empty(t, Controls(NIST), "enum value without a curated catalog")
}

func TestEvaluateControlsCountsEvidence(t *testing.T) {
	scorer, ledger, _ := seededScorer(t)
	ctx := context.Background()

	// CC6.1 evidence: 12 logins, CC6.2 evidence: 3 user creations.
	appendN(t, ledger, 12, audit.Entry{EventType: audit.EventAuthLoginSuccess, OrganizationID: "org-a"})
	appendN(t, ledger, 3, audit.Entry{EventType: audit.EventUserCreated, OrganizationID: "org-a"})
	// Foreign org evidence must not count.
	appendN(t, ledger, 50, audit.Entry{EventType: audit.EventAuthLoginSuccess, OrganizationID: "org-b"})

	end := time.Now().UTC().Add(time.Minute)
	results, err := scorer.EvaluateControls(ctx, SOC2, orgFilter("org-a"), end.Add(-time.Hour), end)
	require.NoError(t, err)

	byID := map[string]ControlResult{}
	for _, r := range results {
		byID[r.ControlID] = r
	}

	require.Equal(t, 12, byID["CC6.1"].EvidenceCount)
	require.Equal(t, StatusPartial, byID["CC6.1"].Status)
	require.Equal(t, 3, byID["CC6.2"].EvidenceCount)
	require.Equal(t, StatusPendingReview, byID["CC6.2"].Status)
	require.Equal(t, StatusNotApplicable, byID["CC1.1"].Status, "unmapped controls have no evidence")
}

func TestEvaluateControlsUnknownFramework(t *testing.T) {
	scorer, _, _ := seededScorer(t)
	_, err := scorer.EvaluateControls(context.Background(), Framework("fedramp"), orgFilter("org-a"), time.Time{}, time.Now())
	require.ErrorIs(t, err, ErrUnknownFramework)
}

func TestRecommendationsOrdering(t *testing.T) {
	results := []ControlResult{
		{ControlID: "c-low", ControlName: "Low", Status: StatusPendingReview},
		{ControlID: "c-high", ControlName: "High", Status: StatusNonCompliant},
		{ControlID: "c-med", ControlName: "Med", Status: StatusPartial},
		{ControlID: "c-ok", ControlName: "OK", Status: StatusCompliant},
		{ControlID: "c-na", ControlName: "NA", Status: StatusNotApplicable},
	}

	recs := Recommendations(results)
	require.Len(t, recs, 3)
	require.Equal(t, "high", recs[0].Priority)
	require.Equal(t, "c-high", recs[0].ControlID)
	require.Equal(t, "medium", recs[1].Priority)
	require.Equal(t, "low", recs[2].Priority)
}

func TestGenerateReport(t *testing.T) {
	scorer, ledger, users := seededScorer(t)
	ctx := context.Background()

	appendN(t, ledger, 15, audit.Entry{EventType: audit.EventAuthLoginSuccess, OrganizationID: "org-a"})
	appendN(t, ledger, 4, audit.Entry{EventType: audit.EventAuthLoginFailed, OrganizationID: "org-a", Outcome: audit.OutcomeFailure})
	appendN(t, ledger, 2, audit.Entry{EventType: audit.EventAccessDenied, OrganizationID: "org-a", Outcome: audit.OutcomeDenied})
	appendN(t, ledger, 5, audit.Entry{EventType: audit.EventTeamCreated, OrganizationID: "org-a"})

	require.NoError(t, users.PutUser(ctx, directory.User{ID: "u1", OrganizationID: "org-a", Status: directory.UserActive, EmailVerified: true}))
	require.NoError(t, users.PutUser(ctx, directory.User{ID: "u2", OrganizationID: "org-a", Status: directory.UserBlocked}))

	report, err := scorer.GenerateReport(ctx, ReportRequest{
		Framework:      SOC2,
		Filter:         orgFilter("org-a"),
		OrganizationID: "org-a",
		ActorID:        "auth0|auditor",
	})
	require.NoError(t, err)

	require.NotEmpty(t, report.ID)
	require.Equal(t, SOC2, report.Framework)
	require.Equal(t, "auth0|auditor", report.GeneratedBy)
	require.Equal(t, 17, report.Summary.TotalControls)
	require.Equal(t, report.Summary.OverallScore, Score(report.Controls))

	require.Equal(t, 26, report.AuditSummary.TotalEvents)
	require.Equal(t, 21, report.AuditSummary.SecurityEvents)
	require.Equal(t, 4, report.AuditSummary.FailedAuthentications)
	require.Equal(t, 2, report.AuditSummary.AccessDeniedEvents)

	require.Equal(t, 2, report.UserStatistics.TotalUsers)
	require.InDelta(t, 50.0, report.UserStatistics.VerificationRate, 0.001)

	// Report generation is itself audited.
	recs, _, err := ledger.Query(ctx, audit.Query{
		Filter:    orgFilter("org-a"),
		EventType: audit.EventComplianceReportGenerated,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, report.ID, recs[0].TargetID)
}

func TestGenerateReportUnknownFramework(t *testing.T) {
	scorer, _, _ := seededScorer(t)
	_, err := scorer.GenerateReport(context.Background(), ReportRequest{Framework: Framework("fedramp")})
	require.ErrorIs(t, err, ErrUnknownFramework)
}

func TestAuditReadinessBands(t *testing.T) {
	scorer, ledger, _ := seededScorer(t)
	ctx := context.Background()

	// No evidence at all: every control N/A, score 100, audit ready.
	r, err := scorer.AuditReadiness(ctx, GDPR, orgFilter("org-a"))
	require.NoError(t, err)
	require.Equal(t, 100.0, r.Score)
	require.Equal(t, "Audit Ready", r.ReadinessLevel)
	require.Equal(t, "green", r.ReadinessColor)
	require.Equal(t, 90, r.PeriodDays)

	// Sparse evidence drags mapped controls below compliant.
	appendN(t, ledger, 5, audit.Entry{EventType: audit.EventAuthLoginFailed, OrganizationID: "org-a", Outcome: audit.OutcomeFailure})

	r, err = scorer.AuditReadiness(ctx, SOC2, orgFilter("org-a"))
	require.NoError(t, err)
	require.Less(t, r.Score, 90.0)
	require.NotEqual(t, "Audit Ready", r.ReadinessLevel)
}
