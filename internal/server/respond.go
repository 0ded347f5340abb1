package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/setlist/internal/shared"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error          string `json:"error"`
	Details        string `json:"details,omitempty"`
	SuggestSpotify bool   `json:"suggestSpotify,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps an error chain to the HTTP status returned to clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidPlatform),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrPayloadTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrInvalidSession),
		errors.Is(err, shared.ErrAuthFailed),
		errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrRateLimited),
		errors.Is(err, shared.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
