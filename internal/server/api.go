package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/enrich"
	"github.com/desertthunder/setlist/internal/gate"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/songs"
	"github.com/desertthunder/setlist/internal/tasks"
)

const (
	msgNotAuthenticated = "Not authenticated"
	msgSignInAgain      = "Please sign in again to continue"
	msgYouTubeQuota     = "YouTube API limit reached. We recommend using Spotify instead as it has higher limits and is completely free!"
	msgYouTubeGeneric   = "Something went wrong with YouTube. Try Spotify for a better experience!"
	msgPlaylistFailed   = "Failed to create playlist"
)

// ServiceFactory builds an authenticated platform service from a bearer token.
type ServiceFactory func(ctx context.Context, platform models.Platform, accessToken string) (services.Service, error)

// NewServiceFactory returns a [ServiceFactory] backed by [services.NewService].
func NewServiceFactory(creds shared.CredentialsConfig, timeout time.Duration) ServiceFactory {
	return func(ctx context.Context, platform models.Platform, accessToken string) (services.Service, error) {
		return services.NewService(ctx, platform, creds, accessToken, services.WithTimeout(timeout))
	}
}

// APIOptions wires the collaborators of [API].
type APIOptions struct {
	Enricher   enrich.Enricher
	Gate       *gate.Gate // admission control for the YouTube path
	Assembler  tasks.Assembler
	Services   ServiceFactory
	Sessions   *SessionService
	Logger     *log.Logger
	Production bool // hides error details from clients
}

// API serves the playlist creation endpoints.
type API struct {
	opts   APIOptions
	router *BasicRouter
	logger *log.Logger
}

// NewAPI creates an [API] and registers its routes:
//
//	GET  /healthz
//	POST /songs/normalize
//	POST /songs/enrich
//	POST /playlists
func NewAPI(opts APIOptions) *API {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	a := &API{
		opts:   opts,
		router: NewBasicRouter(),
		logger: shared.WithLogger(opts.Logger, "component", "api"),
	}

	a.router.Use(RequestID(), Logging(a.logger), Recover(a.logger))
	if opts.Sessions != nil {
		a.router.Use(Sessions(opts.Sessions))
	}

	a.router.HandleFunc(http.MethodGet, "/healthz", a.handleHealth)
	a.router.HandleFunc(http.MethodPost, "/songs/normalize", a.handleNormalize)
	a.router.HandleFunc(http.MethodPost, "/songs/enrich", a.handleEnrich)
	a.router.HandleFunc(http.MethodPost, "/playlists", a.handlePlaylists)
	return a
}

// ServeHTTP implements [http.Handler].
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// fail writes an error body; err becomes details outside production.
func (a *API) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error, suggestSpotify bool) {
	resp := errorResponse{Error: msg, SuggestSpotify: suggestSpotify}
	if err != nil && !a.opts.Production {
		resp.Details = err.Error()
	}
	if err != nil {
		a.logger.Warn("request failed", "path", r.URL.Path, "status", status, "error", err, "request_id", RequestIDFrom(r.Context()))
	}
	writeJSON(w, status, resp)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type songsResponse struct {
	Songs []models.SongDescriptor `json:"songs"`
}

type normalizeRequest struct {
	Text  string             `json:"text"`
	Songs []models.SongInput `json:"songs"`
}

func (a *API) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, http.StatusBadRequest, "Invalid request body", err, false)
		return
	}

	out := songs.Normalize(req.Text)
	out = append(out, songs.FromInputs(req.Songs)...)
	writeJSON(w, http.StatusOK, songsResponse{Songs: out})
}

type enrichRequest struct {
	Songs  []models.SongInput `json:"songs"`
	Phases []string           `json:"phases"`
}

func (a *API) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, http.StatusBadRequest, "Invalid request body", err, false)
		return
	}

	phases := []enrich.Phase{enrich.PhaseCorrect}
	if len(req.Phases) > 0 {
		phases = phases[:0]
		for _, name := range req.Phases {
			p, err := enrich.ParsePhase(name)
			if err != nil {
				a.fail(w, r, http.StatusBadRequest, "Invalid enrichment phase", err, false)
				return
			}
			phases = append(phases, p)
		}
	}

	in := songs.FromInputs(req.Songs)
	if a.opts.Enricher == nil {
		writeJSON(w, http.StatusOK, songsResponse{Songs: in})
		return
	}
	writeJSON(w, http.StatusOK, songsResponse{Songs: a.opts.Enricher.Enrich(r.Context(), in, phases...)})
}

type playlistRequest struct {
	Songs       []models.SongInput `json:"songs"`
	Platform    string             `json:"platform"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
}

// handlePlaylists runs admission control and the assembler.
//
// Size and rate checks apply to YouTube only and run before any platform call; the size
// check runs first so an oversized request does not use up one of the day's playlists.
func (a *API) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	session := SessionFrom(r.Context())
	if session == nil || session.AccessToken == "" {
		a.fail(w, r, http.StatusUnauthorized, msgNotAuthenticated, nil, false)
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, http.StatusBadRequest, "Invalid request body", err, false)
		return
	}

	platform, err := models.ParsePlatform(req.Platform)
	if err != nil {
		a.fail(w, r, http.StatusBadRequest, "Invalid platform", fmt.Errorf("%w: %v", shared.ErrInvalidPlatform, err), false)
		return
	}
	if session.Provider != "" && session.Provider != platform.Provider() {
		a.fail(w, r, http.StatusUnauthorized, fmt.Sprintf("Please sign in with %s to continue", platform.Label()), nil, false)
		return
	}

	list := songs.FromInputs(req.Songs)
	if len(list) == 0 {
		a.fail(w, r, http.StatusBadRequest, "No songs provided", nil, false)
		return
	}

	if platform == models.YouTube && a.opts.Gate != nil {
		if err := a.opts.Gate.CheckSize(len(list)); err != nil {
			a.fail(w, r, http.StatusBadRequest, a.opts.Gate.Policy().SizeMessage(), nil, false)
			return
		}

		decision, err := a.opts.Gate.Admit(r.Context(), gate.SubjectKey(session))
		if err != nil {
			a.fail(w, r, http.StatusInternalServerError, "Failed to process request", err, false)
			return
		}
		if !decision.Allowed {
			w.Header().Set("Retry-After", fmt.Sprint(max(0, int(time.Until(decision.ResetAt).Seconds()))))
			a.fail(w, r, http.StatusTooManyRequests, a.opts.Gate.Policy().RejectMessage(), nil, false)
			return
		}
	}

	// Upstream work is not tied to the client connection. Each platform call is bounded by
	// the service's HTTP client timeout instead of a request-wide deadline.
	ctx := context.WithoutCancel(r.Context())

	svc, err := a.opts.Services(ctx, platform, session.AccessToken)
	if err != nil {
		a.fail(w, r, statusFor(err), msgSignInAgain, err, false)
		return
	}

	report, err := a.opts.Assembler.Assemble(ctx, svc, tasks.AssembleRequest{
		Name:        req.Name,
		Description: req.Description,
		Songs:       list,
	}, nil)
	if err != nil {
		a.failPlatform(w, r, platform, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// failPlatform classifies an assembler failure into a user-facing response.
func (a *API) failPlatform(w http.ResponseWriter, r *http.Request, platform models.Platform, err error) {
	kind := services.Classify(err)
	if kind == services.KindAuth {
		a.fail(w, r, http.StatusUnauthorized, msgSignInAgain, err, false)
		return
	}

	if platform != models.YouTube {
		a.fail(w, r, http.StatusInternalServerError, msgPlaylistFailed, err, false)
		return
	}

	switch {
	case kind == services.KindQuota:
		a.fail(w, r, http.StatusTooManyRequests, msgYouTubeQuota, err, true)
	case errors.Is(err, context.DeadlineExceeded):
		a.fail(w, r, http.StatusGatewayTimeout, msgYouTubeGeneric, err, true)
	default:
		a.fail(w, r, http.StatusInternalServerError, msgYouTubeGeneric, err, true)
	}
}
