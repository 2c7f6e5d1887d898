package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dennisdiepolder/workforce/internal/auth"
	"github.com/dennisdiepolder/workforce/internal/board"
	"github.com/dennisdiepolder/workforce/internal/repository"
	"github.com/dennisdiepolder/workforce/internal/types"
)

// errBadRequest marks malformed client input
var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, types.ErrInvalidPriority),
		errors.Is(err, types.ErrInvalidStatus),
		errors.Is(err, board.ErrInvalidBucket):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrRemoteWriteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}
