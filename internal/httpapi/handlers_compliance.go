package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"veritrail.io/internal/access"
	"veritrail.io/internal/compliance"
)

func (a *API) ListFrameworks(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, access.PermReadCompliance); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"frameworks": compliance.Frameworks()})
}

func (a *API) FrameworkControls(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, access.PermReadCompliance); !ok {
		return
	}

	f := compliance.Framework(r.PathValue("id"))
	if !f.Valid() {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown framework")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"framework":  f,
		"categories": compliance.Controls(f),
	})
}

func (a *API) GenerateComplianceReport(w http.ResponseWriter, r *http.Request) {
	principal, scope, ok := a.authorize(w, r, access.PermGenerateComplianceReports)
	if !ok {
		return
	}

	var body struct {
		Framework string     `json:"framework"`
		Start     *time.Time `json:"start,omitempty"`
		End       *time.Time `json:"end,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body")
		return
	}

	req := compliance.ReportRequest{
		Framework:      compliance.Framework(body.Framework),
		Filter:         scope.Filter(false),
		OrganizationID: scope.Org.OrgID,
		ActorID:        principal.Subject,
	}
	if body.Start != nil {
		req.Start = *body.Start
	}
	if body.End != nil {
		req.End = *body.End
	}

	report, err := a.scorer.GenerateReport(r.Context(), req)
	if errors.Is(err, compliance.ErrUnknownFramework) {
		writeError(w, http.StatusBadRequest, codeValidationError, "unknown framework")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Msg("report generation failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "report generation failed")
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (a *API) AuditReadiness(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.authorize(w, r, access.PermReadCompliance)
	if !ok {
		return
	}

	f := compliance.Framework(r.URL.Query().Get("framework"))
	if !f.Valid() {
		writeError(w, http.StatusBadRequest, codeValidationError, "unknown framework")
		return
	}

	readiness, err := a.scorer.AuditReadiness(r.Context(), f, scope.Filter(false))
	if err != nil {
		a.log.Error().Err(err).Msg("readiness evaluation failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "readiness evaluation failed")
		return
	}
	writeJSON(w, http.StatusOK, readiness)
}
