package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// ErrorKind is the coarse classification of a platform failure.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindQuota
	KindAuth
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	default:
		return "generic"
	}
}

// PlatformError is an upstream failure translated at the adapter boundary.
type PlatformError struct {
	Platform models.Platform
	Kind     ErrorKind
	Status   int    // HTTP status, 0 when unknown
	Reason   string // structured reason code reported by the platform, if any
	Message  string
}

func (e *PlatformError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s error", e.Platform.Label(), e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d", e.Status)
		if e.Reason != "" {
			fmt.Fprintf(&b, ", reason %s", e.Reason)
		}
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// Unwrap maps the kind onto the shared sentinel errors.
func (e *PlatformError) Unwrap() error {
	switch e.Kind {
	case KindQuota:
		return shared.ErrQuotaExceeded
	case KindAuth:
		return shared.ErrAuthFailed
	case KindNotFound:
		return shared.ErrTrackNotFound
	default:
		return shared.ErrAPIRequest
	}
}

// Classify returns the [ErrorKind] of err.
//
// Structured [*PlatformError] values keep the kind they were built with. Anything else falls
// back to inspecting the message text.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindGeneric
	}

	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	switch {
	case errors.Is(err, shared.ErrQuotaExceeded):
		return KindQuota
	case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrNotAuthenticated):
		return KindAuth
	}
	return classifyMessage(err.Error())
}

func classifyMessage(msg string) ErrorKind {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "quota"):
		return KindQuota
	case strings.Contains(msg, "authenticat"), strings.Contains(msg, "access token"):
		return KindAuth
	default:
		return KindGeneric
	}
}

var reasonKinds = map[string]ErrorKind{
	"quotaExceeded":         KindQuota,
	"dailyLimitExceeded":    KindQuota,
	"rateLimitExceeded":     KindQuota,
	"userRateLimitExceeded": KindQuota,
	"RESOURCE_EXHAUSTED":    KindQuota,
	"authError":             KindAuth,
	"unauthorized":          KindAuth,
	"invalidCredentials":    KindAuth,
	"UNAUTHENTICATED":       KindAuth,
	"notFound":              KindNotFound,
	"playlistNotFound":      KindNotFound,
	"videoNotFound":         KindNotFound,
	"NOT_FOUND":             KindNotFound,
}

// errorBody covers both the Google API error envelope and the Spotify Web API one.
//
//	{"error": {"code": 403, "message": "...", "status": "PERMISSION_DENIED", "errors": [{"reason": "quotaExceeded"}]}}
//	{"error": {"status": 401, "message": "The access token expired"}}
type errorBody struct {
	Error struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Status  json.RawMessage `json:"status"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
	Description string `json:"error_description"`
}

// maxRawMessage caps the runes kept from a non-JSON error body.
const maxRawMessage = 200

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// newPlatformError builds a [*PlatformError] from a non-2xx response.
//
// Reason codes win over the HTTP status; message substrings are used only when neither
// identifies the failure.
func newPlatformError(platform models.Platform, status int, body []byte) *PlatformError {
	pe := &PlatformError{Platform: platform, Kind: KindGeneric, Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		pe.Message = truncate(strings.TrimSpace(string(body)), maxRawMessage)
		pe.Kind = kindForStatus(status, pe.Message)
		return pe
	}

	pe.Message = eb.Error.Message
	if pe.Message == "" {
		pe.Message = eb.Description
	}

	var reasons []string
	for _, e := range eb.Error.Errors {
		if e.Reason != "" {
			reasons = append(reasons, e.Reason)
		}
		if pe.Message == "" {
			pe.Message = e.Message
		}
	}
	var statusText string
	if json.Unmarshal(eb.Error.Status, &statusText) == nil && statusText != "" {
		reasons = append(reasons, statusText)
	}

	for _, r := range reasons {
		if kind, ok := reasonKinds[r]; ok {
			pe.Kind, pe.Reason = kind, r
			return pe
		}
	}
	if len(reasons) > 0 {
		pe.Reason = reasons[0]
	}

	pe.Kind = kindForStatus(status, pe.Message)
	return pe
}

func kindForStatus(status int, msg string) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindQuota
	case http.StatusNotFound:
		return KindNotFound
	default:
		return classifyMessage(msg)
	}
}
