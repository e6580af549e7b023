package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/frops/sportmanager/internal/domain"
	"github.com/frops/sportmanager/internal/identity"
	"github.com/frops/sportmanager/internal/repository"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the roster error taxonomy onto HTTP statuses. Bad
// input is 400, unknown matches 404, business-rule rejections 409.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, identity.ErrInvalidIdentity):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrMatchCancelled),
		errors.Is(err, domain.ErrMatchFull),
		errors.Is(err, domain.ErrAlreadyJoined),
		errors.Is(err, domain.ErrNotJoined),
		errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	default:
		if _, ok := domain.AsValidationError(err); ok {
			status = http.StatusBadRequest
		}
	}
	writeError(w, status, err.Error())
}
