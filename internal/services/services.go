// package services defines interface Service for interacting with music platform HTTP APIs
//
// Spotify Web API, YouTube Data API v3
package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"golang.org/x/oauth2"
)

// Service defines the interface for music platforms (Spotify, YouTube Music) that playlists can be assembled on.
type Service interface {
	// Name returns the human readable name of the service (e.g., "Spotify", "YouTube Music")
	Name() string

	Platform() models.Platform

	// CreatePlaylist creates an empty private playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, name, description string) (*Playlist, error)

	// SearchTrack returns the top search result for "{name} {artist}".
	//
	// Returns [shared.ErrTrackNotFound] when the search has no results.
	SearchTrack(ctx context.Context, name, artist string) (*Track, error)

	// AddTracks appends track handles to a playlist, in order, using one call.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// BatchSize is the maximum number of handles accepted by one AddTracks call.
	//
	// A size of 1 means tracks are added one at a time, right after each search.
	BatchSize() int

	// PlaylistURL returns the public URL of a playlist.
	PlaylistURL(playlistID string) string
}

// Authenticator is implemented by services that support the OAuth2 authorization code flow.
type Authenticator interface {
	// Authenticate expects either an "access_token" or "auth_code" in credentials.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// AuthURL returns the authorization URL for user login.
	AuthURL(state string) string

	// Token returns the token set by Authenticate.
	Token() *oauth2.Token

	// UserEmail returns the email of the authenticated user.
	UserEmail(ctx context.Context) (string, error)
}

// Playlist represents a playlist created on any service
type Playlist struct {
	ID          string
	Name        string
	Description string
	Public      bool
}

// Track represents a search result from any service
type Track struct {
	ID     string // opaque handle used when adding to a playlist (Spotify URI, YouTube video id)
	Title  string
	Artist string
}

// Option configures a service.
type Option func(*options)

type options struct {
	baseURL     string
	userInfoURL string
	timeout     time.Duration
	httpClient  *http.Client
}

// WithBaseURL overrides the platform API base URL.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithUserInfoURL overrides the URL used to look up the signed-in user's email.
func WithUserInfoURL(u string) Option {
	return func(o *options) { o.userInfoURL = u }
}

// WithTimeout bounds every request made by the service.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient sets the base client wrapped by the OAuth2 transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func newOptions(baseURL, userInfoURL string, opts []Option) options {
	o := options{baseURL: baseURL, userInfoURL: userInfoURL}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// authenticate resolves credentials into a token and a bearer-token HTTP client.
func authenticate(ctx context.Context, config *oauth2.Config, o options, credentials map[string]string) (*oauth2.Token, *http.Client, error) {
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	var token *oauth2.Token
	if accessToken := credentials["access_token"]; accessToken != "" {
		token = &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	} else if code := credentials["auth_code"]; code != "" {
		if config.ClientID == "" || config.ClientSecret == "" {
			return nil, nil, fmt.Errorf("%w: client_id and client_secret are required to exchange an auth code", shared.ErrMissingCredentials)
		}
		t, err := config.Exchange(ctx, code)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		token = t
	} else {
		return nil, nil, fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
	}

	client := config.Client(ctx, token)
	client.Timeout = o.timeout
	return token, client, nil
}

// NewService builds an authenticated service for a platform from a bearer token.
func NewService(ctx context.Context, platform models.Platform, creds shared.CredentialsConfig, accessToken string, opts ...Option) (Service, error) {
	credentials := map[string]string{"access_token": accessToken}

	switch platform {
	case models.Spotify:
		svc := NewSpotifyService(creds.Spotify, opts...)
		if err := svc.Authenticate(ctx, credentials); err != nil {
			return nil, err
		}
		return svc, nil
	case models.YouTube:
		svc := NewYouTubeService(creds.Google, opts...)
		if err := svc.Authenticate(ctx, credentials); err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidPlatform, platform)
	}
}

// Lookup searches for a song and returns a new [models.ResolvedSong].
//
// The input descriptor is never modified. The error, when non-nil, explains why the song was
// not found; the returned song is still valid and carries found=false.
func Lookup(ctx context.Context, svc Service, song models.SongDescriptor) (models.ResolvedSong, error) {
	resolved := models.ResolvedSong{SongDescriptor: song}

	track, err := svc.SearchTrack(ctx, song.Name, song.Artist)
	if err != nil {
		return resolved.NotFound(), err
	}
	if track == nil || track.ID == "" {
		return resolved.NotFound(), fmt.Errorf("%w: %s", shared.ErrTrackNotFound, song.Query())
	}

	resolved.Found = true
	resolved.PlatformID = track.ID
	return resolved, nil
}

// Resolve is [Lookup] without the diagnostic error.
func Resolve(ctx context.Context, svc Service, song models.SongDescriptor) models.ResolvedSong {
	resolved, _ := Lookup(ctx, svc, song)
	return resolved
}
