package httpapi

import (
	"errors"
	"net/http"

	"kimoncrm/internal/repository"
	"kimoncrm/internal/service"
)

// successResult is the body of mutating endpoints that have nothing else
// to return.
type successResult struct {
	Success bool `json:"success"`
}

type errorResult struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, successResult{Success: true})
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResult{Error: msg, Details: details})
}

// writeServiceError maps service and repository errors onto the HTTP
// status contract: validation 400, missing resource 404, the rest 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", "")
	default:
		writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}
