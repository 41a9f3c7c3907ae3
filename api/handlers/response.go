package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/linesmerrill/court-case-api/api"
	"github.com/linesmerrill/court-case-api/cases"
	"github.com/linesmerrill/court-case-api/config"
	"github.com/linesmerrill/court-case-api/models"
)

// writeJSON marshals v and writes it with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// statusForKind maps a case error kind onto its HTTP status
func statusForKind(kind cases.Kind) int {
	switch kind {
	case cases.KindValidation, cases.KindRoleMismatch:
		return http.StatusBadRequest
	case cases.KindNotFound:
		return http.StatusNotFound
	case cases.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// caseError writes err with the status of its kind; server faults hide their cause
func caseError(w http.ResponseWriter, err error) {
	kind := cases.KindOf(err)
	status := statusForKind(kind)
	message := cases.MessageOf(err)
	if kind == cases.KindServer {
		zap.S().Errorw("case operation failed", "error", err)
		config.ErrorStatus(message, status, w, nil)
		return
	}
	config.ErrorStatus(message, status, w, err)
}

// principal pulls the authenticated caller off the request or answers 401
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, errors.New("no authenticated principal"))
		return models.Principal{}, false
	}
	return p, true
}
