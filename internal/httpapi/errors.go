package httpapi

import (
	"net/http"

	"veritrail.io/internal/access"
)

// Machine-readable error codes carried in the error envelope.
const (
	codeTokenInvalid    = "AUTH_TOKEN_INVALID"
	codeTokenExpired    = "AUTH_TOKEN_EXPIRED"
	codeKeysUnavailable = "AUTH_KEYS_UNAVAILABLE"
	codeForbidden       = "FORBIDDEN"
	codeTenantRequired  = "TENANT_REQUIRED"
	codeNotFound        = "NOT_FOUND"
	codeValidationError = "VALIDATION_ERROR"
	codeRateLimited     = "RATE_LIMITED"
	codeInternal        = "INTERNAL"
)

type errorBody struct {
	Code               string   `json:"code"`
	Message            string   `json:"message"`
	MissingPermissions []string `json:"missing_permissions,omitempty"`
	MissingRoles       []string `json:"missing_roles,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": errorBody{Code: code, Message: message}})
}

// writeDenied renders a 403 carrying the decision's missing sets.
func writeDenied(w http.ResponseWriter, d access.Decision) {
	body := errorBody{
		Code:               codeForbidden,
		Message:            d.Reason,
		MissingPermissions: d.MissingPermissions,
		MissingRoles:       d.MissingRoles,
	}
	if body.Message == "" {
		body.Message = "access denied"
	}
	writeJSON(w, http.StatusForbidden, map[string]any{"error": body})
}
