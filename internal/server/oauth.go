package server

import (
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/desertthunder/setlist/internal/shared"
)

// OAuthResult contains the authorization code delivered to the callback.
type OAuthResult struct {
	Code string
	err  error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler receives the OAuth2 authorization code callback.
// Implements the Handler interface for registration with a Router.
//
// The code exchange is left to the caller so the platform service that built the
// authorization URL also owns the token.
type OAuthHandler struct {
	state       string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth handler for the given state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(state string) *OAuthHandler {
	return &OAuthHandler{
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET /callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates the state parameter and sends the code, or the provider's error, through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	first := !h.callbackHit
	h.callbackHit = true
	h.mu.Unlock()

	if !first {
		renderCallback(w, http.StatusBadRequest, failedPage("This sign-in link was already used."))
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.Send(OAuthResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		renderCallback(w, http.StatusBadRequest, failedPage("The sign-in request did not match. Run setlist auth again."))
		return
	}

	code := query.Get("code")
	if code == "" {
		reason := query.Get("error")
		h.Send(OAuthResult{err: fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, reason, query.Get("error_description"))})
		renderCallback(w, http.StatusBadRequest, failedPage("The provider refused the request ("+reason+")."))
		return
	}

	h.Send(OAuthResult{Code: code})
	renderCallback(w, http.StatusOK, callbackView{
		Title:   "Signed in to setlist",
		Message: "You can close this window and return to the terminal.",
		Color:   "#1DB954",
	})
}

type callbackView struct {
	Title   string
	Message string
	Color   string
}

func failedPage(msg string) callbackView {
	return callbackView{Title: "Sign-in failed", Message: msg, Color: "#E22134"}
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
</head>
<body style="font-family: system-ui, sans-serif; text-align: center; margin-top: 20vh; color: #444">
  <h1 style="color: {{.Color}}">{{.Title}}</h1>
  <p>{{.Message}}</p>
</body>
</html>
`))

func renderCallback(w http.ResponseWriter, status int, view callbackView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackPage.Execute(w, view)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
