package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrInvalidSession   = fmt.Errorf("invalid session")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrQuotaExceeded      = fmt.Errorf("platform quota exceeded")
	ErrPlaylistCreate     = fmt.Errorf("playlist could not be created")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrEnrichment         = fmt.Errorf("enrichment failed")

	// Admission errors
	ErrRateLimited     = fmt.Errorf("rate limit exceeded")
	ErrPayloadTooLarge = fmt.Errorf("playlist is too large")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidPlatform = fmt.Errorf("invalid platform")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
