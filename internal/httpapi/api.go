package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"veritrail.io/internal/audit"
	"veritrail.io/internal/auth"
	"veritrail.io/internal/compliance"
	"veritrail.io/internal/directory"
	"veritrail.io/internal/obs"
)

// ReadyProbe reports whether the backing store is reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config wires the API's dependencies.
type Config struct {
	Validator      *auth.Validator
	ClaimNamespace string
	Ledger         *audit.Ledger
	Scorer         *compliance.Scorer
	Directory      directory.Store
	ReadyProbe     ReadyProbe
	Version        string
	Logger         zerolog.Logger
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	validator  *auth.Validator
	namespace  string
	ledger     *audit.Ledger
	scorer     *compliance.Scorer
	dir        directory.Store
	readyProbe ReadyProbe
	version    string
	log        zerolog.Logger
}

func New(cfg Config) *API {
	a := &API{
		mux:        http.NewServeMux(),
		validator:  cfg.Validator,
		namespace:  cfg.ClaimNamespace,
		ledger:     cfg.Ledger,
		scorer:     cfg.Scorer,
		dir:        cfg.Directory,
		readyProbe: cfg.ReadyProbe,
		version:    cfg.Version,
		log:        cfg.Logger,
	}

	// health/ready/metrics
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.Handle("GET /metrics", obs.Handler())

	// audit ledger
	a.mux.HandleFunc("GET /v1/audit/logs", a.ListAuditLogs)
	a.mux.HandleFunc("GET /v1/audit/logs/{id}", a.GetAuditLog)
	a.mux.HandleFunc("GET /v1/audit/summary", a.AuditSummary)
	a.mux.HandleFunc("GET /v1/audit/security-events", a.SecurityEvents)
	a.mux.HandleFunc("GET /v1/audit/verify", a.VerifyAuditChain)

	// compliance
	a.mux.HandleFunc("GET /v1/compliance/frameworks", a.ListFrameworks)
	a.mux.HandleFunc("GET /v1/compliance/frameworks/{id}/controls", a.FrameworkControls)
	a.mux.HandleFunc("POST /v1/compliance/reports", a.GenerateComplianceReport)
	a.mux.HandleFunc("GET /v1/compliance/readiness", a.AuditReadiness)

	// teams
	a.mux.HandleFunc("GET /v1/teams", a.ListTeams)
	a.mux.HandleFunc("POST /v1/teams", a.CreateTeam)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "no such endpoint")
	})

	return a
}

// Handler returns the fully wrapped http.Handler.
func (a *API) Handler() http.Handler {
	h := a.withTenant(a.mux)
	h = a.withAuth(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "veritrail-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
