package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/plate"
)

// Helper functions

// respondJSON encodes before writing the header so an encoding failure is a 500
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps an analysis error to its HTTP status
//   - EmptyInput           → 404
//   - Schema/Domain/Fit    → 422
//   - unreadable body      → 400
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, contracts.ErrEmptyInput):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrSchema),
		errors.Is(err, contracts.ErrDomain),
		errors.Is(err, contracts.ErrUnderdeterminedFit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, plate.ErrNoHeader):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
