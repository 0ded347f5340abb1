package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/enrich"
	"github.com/desertthunder/setlist/internal/gate"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	tu "github.com/desertthunder/setlist/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	api      *API
	sessions *SessionService
	svc      *tu.MockService
	store    *gate.MemoryStore
	built    int
}

func newTestAPI(t *testing.T, svc *tu.MockService, mutate ...func(*APIOptions)) *testAPI {
	t.Helper()

	logger := shared.NewLogger(&bytes.Buffer{})
	ta := &testAPI{
		sessions: NewSessionService("test-secret", time.Hour),
		svc:      svc,
		store:    gate.NewMemoryStore(),
	}

	opts := APIOptions{
		Gate:      gate.New(ta.store, gate.DefaultPolicy(), logger),
		Assembler: tasks.NewPlaylistEngine(tasks.EngineOpts{Logger: logger}),
		Services: func(ctx context.Context, platform models.Platform, token string) (services.Service, error) {
			ta.built++
			svc.PlatformName = platform
			return svc, nil
		},
		Sessions: ta.sessions,
		Logger:   logger,
	}
	for _, m := range mutate {
		m(&opts)
	}
	ta.api = NewAPI(opts)
	return ta
}

func (ta *testAPI) token(t *testing.T, provider, email string) string {
	t.Helper()
	tok, _, err := ta.sessions.Sign(models.Session{AccessToken: "platform-token", Provider: provider, Email: email})
	require.NoError(t, err)
	return tok
}

func (ta *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ta.api.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func songList(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Song %d", i+1)
	}
	return out
}

func TestAPI_Health(t *testing.T) {
	ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil))

	rec := ta.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = ta.do(t, http.MethodPost, "/healthz", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPI_Normalize(t *testing.T) {
	ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil))

	rec := ta.do(t, http.MethodPost, "/songs/normalize", map[string]any{"text": "  Shape of You  \n\nPerfect\n"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"songs":[{"name":"Shape of You"},{"name":"Perfect"}]}`, rec.Body.String())

	rec = ta.do(t, http.MethodPost, "/songs/normalize", `{"songs":["A",{"name":"B","artist":"X"}," "]}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"songs":[{"name":"A"},{"name":"B","artist":"X"}]}`, rec.Body.String())

	rec = ta.do(t, http.MethodPost, "/songs/normalize", `{"text":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, rec).Error)
}

type fakeEnricher struct {
	phases []enrich.Phase
}

func (f *fakeEnricher) Enrich(ctx context.Context, in []models.SongDescriptor, phases ...enrich.Phase) []models.SongDescriptor {
	f.phases = phases
	out := make([]models.SongDescriptor, len(in))
	for i, s := range in {
		s.Artist = "Artist"
		out[i] = s
	}
	return out
}

func TestAPI_Enrich(t *testing.T) {
	t.Run("defaults to the correct phase", func(t *testing.T) {
		fake := &fakeEnricher{}
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil), func(o *APIOptions) { o.Enricher = fake })

		rec := ta.do(t, http.MethodPost, "/songs/enrich", `{"songs":["hello","world"]}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"songs":[{"name":"hello","artist":"Artist"},{"name":"world","artist":"Artist"}]}`, rec.Body.String())
		assert.Equal(t, []enrich.Phase{enrich.PhaseCorrect}, fake.phases)
	})

	t.Run("explicit phases", func(t *testing.T) {
		fake := &fakeEnricher{}
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil), func(o *APIOptions) { o.Enricher = fake })

		rec := ta.do(t, http.MethodPost, "/songs/enrich", `{"songs":["a"],"phases":["analyze","order"]}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []enrich.Phase{enrich.PhaseAnalyze, enrich.PhaseOrder}, fake.phases)
	})

	t.Run("unknown phase", func(t *testing.T) {
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil), func(o *APIOptions) { o.Enricher = &fakeEnricher{} })

		rec := ta.do(t, http.MethodPost, "/songs/enrich", `{"songs":["a"],"phases":["shuffle"]}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("without an enricher songs pass through", func(t *testing.T) {
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil))

		rec := ta.do(t, http.MethodPost, "/songs/enrich", `{"songs":["a"]}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"songs":[{"name":"a"}]}`, rec.Body.String())
	})
}

func TestAPI_Playlists(t *testing.T) {
	t.Run("creates a spotify playlist", func(t *testing.T) {
		svc := tu.NewMockService(models.Spotify, 100, map[string]string{"Hello Adele": "spotify:track:1"})
		ta := newTestAPI(t, svc)

		body := map[string]any{
			"platform": "spotify",
			"songs":    []any{map[string]string{"name": "Hello", "artist": "Adele"}, "Missing"},
		}
		rec := ta.do(t, http.MethodPost, "/playlists", body, ta.token(t, "spotify", "a@example.com"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var report models.PlaylistReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.True(t, report.Success)
		assert.Equal(t, "Spotify", report.Platform)
		assert.Equal(t, "https://example.com/playlist/pl1", report.PlaylistURL)
		require.Len(t, report.Songs, 2)
		assert.True(t, report.Songs[0].Found)
		assert.Equal(t, "spotify:track:1", report.Songs[0].PlatformID)
		assert.False(t, report.Songs[1].Found)
		assert.Equal(t, []string{"Missing"}, report.NotFoundSongs)

		created := svc.Created()
		require.Len(t, created, 1)
		assert.Equal(t, tasks.DefaultPlaylistName, created[0].Name)
	})

	t.Run("requires a session", func(t *testing.T) {
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil))

		rec := ta.do(t, http.MethodPost, "/playlists", map[string]any{"platform": "spotify", "songs": []string{"a"}}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authenticated", decodeError(t, rec).Error)
	})

	t.Run("rejects an invalid session token", func(t *testing.T) {
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil))

		rec := ta.do(t, http.MethodPost, "/playlists", map[string]any{"platform": "spotify", "songs": []string{"a"}}, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, ta.built)
	})

	t.Run("rejects an invalid platform", func(t *testing.T) {
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil))

		rec := ta.do(t, http.MethodPost, "/playlists", map[string]any{"platform": "tidal", "songs": []string{"a"}}, ta.token(t, "spotify", ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid platform", decodeError(t, rec).Error)
	})

	t.Run("rejects a token for another provider", func(t *testing.T) {
		ta := newTestAPI(t, tu.NewMockService(models.YouTube, 1, nil))

		rec := ta.do(t, http.MethodPost, "/playlists", map[string]any{"platform": "youtube", "songs": []string{"a"}}, ta.token(t, "spotify", ""))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, ta.built)
	})

	t.Run("rejects an empty song list", func(t *testing.T) {
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil))

		rec := ta.do(t, http.MethodPost, "/playlists", map[string]any{"platform": "spotify", "songs": []string{" "}}, ta.token(t, "spotify", ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects 21 youtube songs before any platform call", func(t *testing.T) {
		svc := tu.NewMockService(models.YouTube, 1, nil)
		ta := newTestAPI(t, svc)

		rec := ta.do(t, http.MethodPost, "/playlists", map[string]any{"platform": "youtube", "songs": songList(21)}, ta.token(t, "google", "a@example.com"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Playlist is too large. Maximum 20 songs allowed.", decodeError(t, rec).Error)

		assert.Zero(t, ta.built)
		assert.Empty(t, svc.Created())
		assert.Empty(t, svc.Searches())
		assert.Zero(t, ta.store.Len(), "oversized request must not be counted")
	})

	t.Run("does not limit spotify song count", func(t *testing.T) {
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil))

		rec := ta.do(t, http.MethodPost, "/playlists", map[string]any{"platform": "spotify", "songs": songList(21)}, ta.token(t, "spotify", ""))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rate limits the fourth youtube playlist", func(t *testing.T) {
		svc := tu.NewMockService(models.YouTube, 1, map[string]string{"Song 1": "v1"})
		ta := newTestAPI(t, svc)
		token := ta.token(t, "google", "A@example.com")
		body := map[string]any{"platform": "youtube", "songs": songList(1)}

		for i := range 3 {
			rec := ta.do(t, http.MethodPost, "/playlists", body, token)
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		}

		rec := ta.do(t, http.MethodPost, "/playlists", body, token)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "Rate limit exceeded. You can create up to 3 playlists per day.", decodeError(t, rec).Error)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Len(t, svc.Created(), 3)

		entry, ok := ta.store.Get("a@example.com")
		require.True(t, ok)
		assert.Equal(t, 3, entry.Count)
	})

	t.Run("does not rate limit spotify", func(t *testing.T) {
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil))
		token := ta.token(t, "spotify", "a@example.com")

		for range 5 {
			rec := ta.do(t, http.MethodPost, "/playlists", map[string]any{"platform": "spotify", "songs": []string{"a"}}, token)
			require.Equal(t, http.StatusOK, rec.Code)
		}
		assert.Zero(t, ta.store.Len())
	})

	t.Run("service construction failure", func(t *testing.T) {
		ta := newTestAPI(t, tu.NewMockService(models.Spotify, 100, nil), func(o *APIOptions) {
			o.Services = func(context.Context, models.Platform, string) (services.Service, error) {
				return nil, fmt.Errorf("%w: bad token", shared.ErrMissingCredentials)
			}
		})

		rec := ta.do(t, http.MethodPost, "/playlists", map[string]any{"platform": "spotify", "songs": []string{"a"}}, ta.token(t, "spotify", ""))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("assembly has no request-wide deadline", func(t *testing.T) {
		svc := tu.NewMockService(models.YouTube, 1, map[string]string{"a": "va"})
		var hasDeadline bool
		ta := newTestAPI(t, svc, func(o *APIOptions) {
			o.Services = func(ctx context.Context, platform models.Platform, _ string) (services.Service, error) {
				_, hasDeadline = ctx.Deadline()
				svc.PlatformName = platform
				return svc, nil
			}
		})

		req := httptest.NewRequest(http.MethodPost, "/playlists", bytes.NewBufferString(`{"platform":"youtube","songs":["a"]}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+ta.token(t, "google", "a@example.com"))
		ctx, cancel := context.WithTimeout(req.Context(), time.Hour)
		defer cancel()

		rec := httptest.NewRecorder()
		ta.api.ServeHTTP(rec, req.WithContext(ctx))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.False(t, hasDeadline)
	})
}

func TestAPI_PlaylistErrors(t *testing.T) {
	quota := &services.PlatformError{Platform: models.YouTube, Kind: services.KindQuota, Status: 403, Reason: "quotaExceeded", Message: "The request cannot be completed because you have exceeded your quota."}
	auth := &services.PlatformError{Platform: models.YouTube, Kind: services.KindAuth, Status: 401, Reason: "authError", Message: "Invalid Credentials"}

	tests := []struct {
		name        string
		platform    models.Platform
		createErr   error
		production  bool
		wantStatus  int
		wantError   string
		wantSuggest bool
		wantDetails bool
	}{
		{
			name:        "youtube quota",
			platform:    models.YouTube,
			createErr:   fmt.Errorf("%w: %w", shared.ErrPlaylistCreate, quota),
			wantStatus:  http.StatusTooManyRequests,
			wantError:   msgYouTubeQuota,
			wantSuggest: true,
			wantDetails: true,
		},
		{
			name:       "youtube auth",
			platform:   models.YouTube,
			createErr:  fmt.Errorf("%w: %w", shared.ErrPlaylistCreate, auth),
			wantStatus: http.StatusUnauthorized,
			wantError:  msgSignInAgain,
		},
		{
			name:        "youtube generic",
			platform:    models.YouTube,
			createErr:   errors.New("backend error"),
			wantStatus:  http.StatusInternalServerError,
			wantError:   msgYouTubeGeneric,
			wantSuggest: true,
			wantDetails: true,
		},
		{
			name:        "youtube quota from message text",
			platform:    models.YouTube,
			createErr:   errors.New("daily quota used up"),
			wantStatus:  http.StatusTooManyRequests,
			wantError:   msgYouTubeQuota,
			wantSuggest: true,
			wantDetails: true,
		},
		{
			name:       "spotify failure",
			platform:   models.Spotify,
			createErr:  fmt.Errorf("%w: boom", shared.ErrPlaylistCreate),
			wantStatus: http.StatusInternalServerError,
			wantError:  msgPlaylistFailed,
		},
		{
			name:        "production hides details",
			platform:    models.YouTube,
			createErr:   errors.New("backend error"),
			production:  true,
			wantStatus:  http.StatusInternalServerError,
			wantError:   msgYouTubeGeneric,
			wantSuggest: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := tu.NewMockService(tt.platform, 1, nil)
			svc.CreateErr = tt.createErr
			ta := newTestAPI(t, svc, func(o *APIOptions) { o.Production = tt.production })

			token := ta.token(t, tt.platform.Provider(), "a@example.com")
			rec := ta.do(t, http.MethodPost, "/playlists", map[string]any{"platform": string(tt.platform), "songs": []string{"a"}}, token)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Equal(t, tt.wantSuggest, resp.SuggestSpotify)
			if tt.wantDetails {
				assert.NotEmpty(t, resp.Details)
			}
			if tt.production {
				assert.Empty(t, resp.Details)
			}
			assert.Empty(t, svc.Searches())
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("%w: x", shared.ErrInvalidPlatform), http.StatusBadRequest},
		{shared.ErrPayloadTooLarge, http.StatusBadRequest},
		{shared.ErrNotAuthenticated, http.StatusUnauthorized},
		{shared.ErrInvalidSession, http.StatusUnauthorized},
		{shared.ErrRateLimited, http.StatusTooManyRequests},
		{shared.ErrQuotaExceeded, http.StatusTooManyRequests},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
