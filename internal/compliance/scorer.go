package compliance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"veritrail.io/internal/audit"
	"veritrail.io/internal/directory"
	"veritrail.io/internal/obs"
	"veritrail.io/internal/tenant"
)

// ErrUnknownFramework rejects report requests naming frameworks outside
// the catalog.
var ErrUnknownFramework = fmt.Errorf("compliance: unknown framework")

// defaultPeriod is the reporting window when the caller gives none.
const defaultPeriod = 90 * 24 * time.Hour

// ControlStatus is the evaluated state of one control.
type ControlStatus string

const (
	StatusCompliant     ControlStatus = "compliant"
	StatusNonCompliant  ControlStatus = "non_compliant"
	StatusPartial       ControlStatus = "partial"
	StatusNotApplicable ControlStatus = "not_applicable"
	StatusPendingReview ControlStatus = "pending_review"
)

// statusForEvidence applies the uniform evidence thresholds.
func statusForEvidence(count int) ControlStatus {
	switch {
	case count >= 100:
		return StatusCompliant
	case count >= 10:
		return StatusPartial
	case count > 0:
		return StatusPendingReview
	default:
		return StatusNotApplicable
	}
}

// statusWeights drive the overall score. NotApplicable carries no
// weight and is excluded from the denominator.
var statusWeights = map[ControlStatus]float64{
	StatusCompliant:     1.0,
	StatusPartial:       0.5,
	StatusPendingReview: 0.25,
	StatusNonCompliant:  0.0,
}

// ControlResult is one evaluated control.
type ControlResult struct {
	Category      string        `json:"category"`
	CategoryName  string        `json:"category_name"`
	ControlID     string        `json:"control_id"`
	ControlName   string        `json:"control_name"`
	Description   string        `json:"description"`
	Status        ControlStatus `json:"status"`
	EvidenceCount int           `json:"evidence_count"`
	LastEvaluated time.Time     `json:"last_evaluated"`
}

// Recommendation is remediation advice for one control.
type Recommendation struct {
	Priority       string `json:"priority"`
	ControlID      string `json:"control_id"`
	ControlName    string `json:"control_name"`
	Recommendation string `json:"recommendation"`
	Impact         string `json:"impact"`
}

// AuditActivity summarizes ledger activity over the reporting period.
type AuditActivity struct {
	TotalEvents           int `json:"total_events"`
	SecurityEvents        int `json:"security_events"`
	FailedAuthentications int `json:"failed_authentications"`
	AccessDeniedEvents    int `json:"access_denied_events"`
}

// ReportSummary is the control roll-up of a report.
type ReportSummary struct {
	OverallScore  float64 `json:"overall_score"`
	TotalControls int     `json:"total_controls"`
	Compliant     int     `json:"compliant"`
	NonCompliant  int     `json:"non_compliant"`
	Partial       int     `json:"partial"`
	NotApplicable int     `json:"not_applicable"`
}

// Report is a generated compliance report.
type Report struct {
	ID              string              `json:"id"`
	Framework       Framework           `json:"framework"`
	OrganizationID  string              `json:"organization_id"`
	GeneratedAt     time.Time           `json:"generated_at"`
	GeneratedBy     string              `json:"generated_by"`
	PeriodStart     time.Time           `json:"period_start"`
	PeriodEnd       time.Time           `json:"period_end"`
	Summary         ReportSummary       `json:"summary"`
	AuditSummary    AuditActivity       `json:"audit_summary"`
	UserStatistics  directory.UserStats `json:"user_statistics"`
	Controls        []ControlResult     `json:"controls"`
	Recommendations []Recommendation    `json:"recommendations"`
}

// Readiness is the lightweight audit-readiness view.
type Readiness struct {
	Framework      Framework `json:"framework"`
	Score          float64   `json:"score"`
	ReadinessLevel string    `json:"readiness_level"`
	ReadinessColor string    `json:"readiness_color"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
	PeriodDays     int       `json:"period_days"`
	TotalControls  int       `json:"total_controls"`
	Compliant      int       `json:"compliant"`
	NeedsAttention int       `json:"needs_attention"`
}

// ReportRequest parameterizes report generation. Zero Start/End default
// to the trailing 90 days.
type ReportRequest struct {
	Framework      Framework
	Filter         tenant.Filter
	OrganizationID string
	ActorID        string
	Start          time.Time
	End            time.Time
}

// Scorer evaluates framework controls against ledger evidence and
// directory statistics.
type Scorer struct {
	ledger *audit.Ledger
	users  directory.UserStore
	log    zerolog.Logger
	now    func() time.Time
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithScorerClock overrides the time source (useful for tests).
func WithScorerClock(fn func() time.Time) ScorerOption {
	return func(s *Scorer) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithScorerLogger sets the logger.
func WithScorerLogger(log zerolog.Logger) ScorerOption {
	return func(s *Scorer) {
		s.log = log
	}
}

// NewScorer constructs a Scorer over the audit ledger and user store.
func NewScorer(ledger *audit.Ledger, users directory.UserStore, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		ledger: ledger,
		users:  users,
		log:    obs.Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateControls walks the framework catalog counting ledger evidence
// per control within the window.
func (s *Scorer) EvaluateControls(ctx context.Context, f Framework, filter tenant.Filter, start, end time.Time) ([]ControlResult, error) {
	if !f.Valid() {
		return nil, ErrUnknownFramework
	}
	evaluated := s.now().UTC()

	var results []ControlResult
	for _, category := range Controls(f) {
		for _, control := range category.Controls {
			count, err := s.evidenceCount(ctx, filter, controlEvidence[control.ID], start, end)
			if err != nil {
				return nil, fmt.Errorf("evaluate control %s: %w", control.ID, err)
			}
			results = append(results, ControlResult{
				Category:      category.ID,
				CategoryName:  category.Name,
				ControlID:     control.ID,
				ControlName:   control.Name,
				Description:   control.Description,
				Status:        statusForEvidence(count),
				EvidenceCount: count,
				LastEvaluated: evaluated,
			})
		}
	}
	return results, nil
}

func (s *Scorer) evidenceCount(ctx context.Context, filter tenant.Filter, eventTypes []string, start, end time.Time) (int, error) {
	total := 0
	for _, eventType := range eventTypes {
		_, n, err := s.ledger.Query(ctx, audit.Query{
			Filter:    filter,
			EventType: eventType,
			Since:     start,
			Until:     end,
			Page:      1,
			PageSize:  1,
		})
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Score computes the 0-100 compliance score over evaluated controls.
// Not-applicable controls are excluded; a catalog that is entirely
// not applicable scores 100.
func Score(results []ControlResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var weight, considered float64
	for _, r := range results {
		w, scored := statusWeights[r.Status]
		if !scored {
			continue
		}
		considered++
		weight += w
	}
	if considered == 0 {
		return 100
	}
	score := weight / considered * 100
	// Two decimal places, matching stored report precision.
	return float64(int(score*100+0.5)) / 100
}

// Recommendations derives remediation advice for every control that is
// not fully compliant, ordered high to low priority.
func Recommendations(results []ControlResult) []Recommendation {
	var recs []Recommendation
	for _, r := range results {
		switch r.Status {
		case StatusNonCompliant:
			recs = append(recs, Recommendation{
				Priority:       "high",
				ControlID:      r.ControlID,
				ControlName:    r.ControlName,
				Recommendation: fmt.Sprintf("Implement %s to achieve compliance", r.Description),
				Impact:         "Critical for compliance certification",
			})
		case StatusPartial:
			recs = append(recs, Recommendation{
				Priority:       "medium",
				ControlID:      r.ControlID,
				ControlName:    r.ControlName,
				Recommendation: fmt.Sprintf("Enhance %s coverage", r.Description),
				Impact:         "Improve compliance posture",
			})
		case StatusPendingReview:
			recs = append(recs, Recommendation{
				Priority:       "low",
				ControlID:      r.ControlID,
				ControlName:    r.ControlName,
				Recommendation: fmt.Sprintf("Review evidence for %s", r.ControlName),
				Impact:         "Validate compliance status",
			})
		}
	}
	order := map[string]int{"high": 0, "medium": 1, "low": 2}
	sort.SliceStable(recs, func(i, j int) bool {
		return order[recs[i].Priority] < order[recs[j].Priority]
	})
	return recs
}

// GenerateReport evaluates a framework and assembles the full report.
// Report generation is itself an audited event.
func (s *Scorer) GenerateReport(ctx context.Context, req ReportRequest) (Report, error) {
	if !req.Framework.Valid() {
		return Report{}, ErrUnknownFramework
	}
	end := req.End
	if end.IsZero() {
		end = s.now().UTC()
	}
	start := req.Start
	if start.IsZero() {
		start = end.Add(-defaultPeriod)
	}

	controls, err := s.EvaluateControls(ctx, req.Framework, req.Filter, start, end)
	if err != nil {
		return Report{}, err
	}

	activity, err := s.auditActivity(ctx, req.Filter, start, end)
	if err != nil {
		return Report{}, err
	}

	stats, err := s.users.UserStats(ctx, req.Filter)
	if err != nil {
		return Report{}, fmt.Errorf("user statistics: %w", err)
	}

	report := Report{
		ID:              uuid.NewString(),
		Framework:       req.Framework,
		OrganizationID:  req.OrganizationID,
		GeneratedAt:     s.now().UTC(),
		GeneratedBy:     req.ActorID,
		PeriodStart:     start,
		PeriodEnd:       end,
		Summary:         summarize(controls),
		AuditSummary:    activity,
		UserStatistics:  stats,
		Controls:        controls,
		Recommendations: Recommendations(controls),
	}

	_, err = s.ledger.Append(ctx, audit.Entry{
		EventType:      audit.EventComplianceReportGenerated,
		ActorID:        req.ActorID,
		TargetID:       report.ID,
		OrganizationID: req.OrganizationID,
		Description:    fmt.Sprintf("Generated %s compliance report", req.Framework),
		Metadata: map[string]any{
			"framework":   string(req.Framework),
			"period_days": int(end.Sub(start).Hours() / 24),
		},
	})
	if err != nil {
		return Report{}, fmt.Errorf("audit report generation: %w", err)
	}

	s.log.Info().
		Str("report_id", report.ID).
		Str("framework", string(req.Framework)).
		Str("org_id", req.OrganizationID).
		Float64("score", report.Summary.OverallScore).
		Msg("compliance report generated")
	return report, nil
}

func summarize(controls []ControlResult) ReportSummary {
	sum := ReportSummary{
		OverallScore:  Score(controls),
		TotalControls: len(controls),
	}
	for _, c := range controls {
		switch c.Status {
		case StatusCompliant:
			sum.Compliant++
		case StatusNonCompliant:
			sum.NonCompliant++
		case StatusPartial:
			sum.Partial++
		case StatusNotApplicable:
			sum.NotApplicable++
		}
	}
	return sum
}

func (s *Scorer) auditActivity(ctx context.Context, filter tenant.Filter, start, end time.Time) (AuditActivity, error) {
	var activity AuditActivity

	count := func(q audit.Query) (int, error) {
		q.Filter = filter
		q.Since = start
		q.Until = end
		q.Page = 1
		q.PageSize = 1
		_, n, err := s.ledger.Query(ctx, q)
		return n, err
	}

	var err error
	if activity.TotalEvents, err = count(audit.Query{}); err != nil {
		return activity, err
	}
	authEvents, err := count(audit.Query{Category: "auth"})
	if err != nil {
		return activity, err
	}
	accessEvents, err := count(audit.Query{Category: "access"})
	if err != nil {
		return activity, err
	}
	activity.SecurityEvents = authEvents + accessEvents
	if activity.FailedAuthentications, err = count(audit.Query{EventType: audit.EventAuthLoginFailed}); err != nil {
		return activity, err
	}
	if activity.AccessDeniedEvents, err = count(audit.Query{EventType: audit.EventAccessDenied}); err != nil {
		return activity, err
	}
	return activity, nil
}

// AuditReadiness scores the trailing 90 days and maps the result onto
// readiness bands.
func (s *Scorer) AuditReadiness(ctx context.Context, f Framework, filter tenant.Filter) (Readiness, error) {
	end := s.now().UTC()
	start := end.Add(-defaultPeriod)

	controls, err := s.EvaluateControls(ctx, f, filter, start, end)
	if err != nil {
		return Readiness{}, err
	}
	score := Score(controls)

	level, color := "Not Ready", "red"
	switch {
	case score >= 90:
		level, color = "Audit Ready", "green"
	case score >= 70:
		level, color = "Nearly Ready", "yellow"
	case score >= 50:
		level, color = "Needs Work", "orange"
	}

	r := Readiness{
		Framework:      f,
		Score:          score,
		ReadinessLevel: level,
		ReadinessColor: color,
		EvaluatedAt:    end,
		PeriodDays:     90,
		TotalControls:  len(controls),
	}
	for _, c := range controls {
		switch c.Status {
		case StatusCompliant:
			r.Compliant++
		case StatusNonCompliant, StatusPartial:
			r.NeedsAttention++
		}
	}
	return r, nil
}
