package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"veritrail.io/internal/access"
	"veritrail.io/internal/audit"
	"veritrail.io/internal/directory"
	"veritrail.io/internal/tenant"
)

func (a *API) ListTeams(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.authorize(w, r, access.PermReadTeams)
	if !ok {
		return
	}

	teams, err := a.dir.ListTeams(r.Context(), scope.Filter(false))
	if err != nil {
		a.log.Error().Err(err).Msg("team listing failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": teams, "total": len(teams)})
}

func (a *API) CreateTeam(w http.ResponseWriter, r *http.Request) {
	principal, scope, ok := a.authorize(w, r, access.PermWriteTeams)
	if !ok {
		return
	}

	var body struct {
		Name           string `json:"name"`
		Description    string `json:"description"`
		OrganizationID string `json:"organization_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, codeValidationError, "name is required")
		return
	}

	orgID, err := scope.ValidateInsertOrg(body.OrganizationID, true)
	switch {
	case errors.Is(err, tenant.ErrCrossTenantWrite):
		a.auditDenied(r, principal, "cross-tenant team creation attempted")
		writeError(w, http.StatusForbidden, codeForbidden, "cannot create a team in another organization")
		return
	case errors.Is(err, tenant.ErrOrgRequired):
		writeError(w, http.StatusBadRequest, codeTenantRequired, "organization required")
		return
	}

	team, err := a.dir.CreateTeam(r.Context(), directory.Team{
		Name:           strings.TrimSpace(body.Name),
		Description:    strings.TrimSpace(body.Description),
		OrganizationID: orgID,
		OwnerID:        principal.Subject,
	})
	if err != nil {
		a.log.Error().Err(err).Msg("team creation failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "creation failed")
		return
	}

	_, aerr := a.ledger.Append(r.Context(), audit.Entry{
		EventType:      audit.EventTeamCreated,
		ActorID:        principal.Subject,
		TargetID:       team.ID,
		OrganizationID: orgID,
		Description:    "team " + team.Name + " created",
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	})
	if aerr != nil {
		a.log.Error().Err(aerr).Msg("failed to audit team creation")
	}

	writeJSON(w, http.StatusCreated, team)
}
