package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"veritrail.io/internal/access"
	"veritrail.io/internal/audit"
)

func (a *API) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.authorize(w, r, access.PermReadAuditLogs)
	if !ok {
		return
	}

	q := audit.Query{
		Filter:    scope.Filter(false),
		EventType: r.URL.Query().Get("event_type"),
		Category:  r.URL.Query().Get("category"),
		ActorID:   r.URL.Query().Get("actor_id"),
		TargetID:  r.URL.Query().Get("target_id"),
		Page:      intParam(r, "page", 1),
		PageSize:  intParam(r, "page_size", 50),
	}

	if s := r.URL.Query().Get("severity"); s != "" {
		sev, err := audit.ParseSeverity(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationError, err.Error())
			return
		}
		q.Severity = &sev
	}
	if s := r.URL.Query().Get("outcome"); s != "" {
		out, err := audit.ParseOutcome(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationError, err.Error())
			return
		}
		q.Outcome = &out
	}
	var ok2 bool
	if q.Since, ok2 = timeParam(w, r, "since"); !ok2 {
		return
	}
	if q.Until, ok2 = timeParam(w, r, "until"); !ok2 {
		return
	}

	recs, total, err := a.ledger.Query(r.Context(), q)
	if err != nil {
		a.log.Error().Err(err).Msg("audit query failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":     recs,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

func (a *API) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.authorize(w, r, access.PermReadAuditLogs)
	if !ok {
		return
	}

	rec, err := a.ledger.Get(r.Context(), r.PathValue("id"), scope.Filter(false))
	if errors.Is(err, audit.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "audit record not found")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Msg("audit get failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) AuditSummary(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.authorize(w, r, access.PermReadAuditLogs)
	if !ok {
		return
	}

	days := intParam(r, "days", 30)
	sum, err := a.ledger.Summary(r.Context(), scope.Filter(false), time.Duration(days)*24*time.Hour)
	if err != nil {
		a.log.Error().Err(err).Msg("audit summary failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "summary failed")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) SecurityEvents(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.authorize(w, r, access.PermReadAuditLogs)
	if !ok {
		return
	}

	days := intParam(r, "days", 7)
	recs, total, err := a.ledger.SecurityEvents(r.Context(), scope.Filter(false),
		time.Duration(days)*24*time.Hour, intParam(r, "page", 1), intParam(r, "page_size", 50))
	if err != nil {
		a.log.Error().Err(err).Msg("security events query failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": recs,
		"total": total,
		"days":  days,
	})
}

func (a *API) VerifyAuditChain(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.authorize(w, r, access.PermVerifyAuditLogs)
	if !ok {
		return
	}

	chainScope := ""
	if scope.Org.IsOverride {
		// An active override may verify any chain, defaulting to the
		// overridden organization's.
		chainScope = r.URL.Query().Get("scope")
		if chainScope == "" {
			chainScope = audit.ChainScope(scope.Org.OrgID)
		}
	} else if org, err := scope.Org.Require(); err == nil {
		chainScope = audit.ChainScope(org)
	} else if scope.Admin {
		// An administrator outside any organization reads only global
		// rows, so only the global chain is verifiable without an
		// override.
		chainScope = audit.ChainScope("")
	} else {
		writeError(w, http.StatusBadRequest, codeTenantRequired, "organization required")
		return
	}

	report, err := a.ledger.VerifyChain(r.Context(), chainScope, intParam(r, "limit", 0))
	if err != nil {
		a.log.Error().Err(err).Msg("chain verification failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "verification failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// --- param helpers ---

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func timeParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, name+" must be RFC3339")
		return time.Time{}, false
	}
	return t, true
}
