// Spotify Web API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// spotifyBatchSize is the maximum number of URIs per add-items call.
	spotifyBatchSize = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

type spotifyCreatePlaylist struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type spotifyAddItems struct {
	URIs []string `json:"uris"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication.
type SpotifyService struct {
	config *oauth2.Config
	token  *oauth2.Token
	opts   options
	api    *apiClient
}

var (
	_ Service       = (*SpotifyService)(nil)
	_ Authenticator = (*SpotifyService)(nil)
)

// NewSpotifyService creates a new Spotify service with the given OAuth2 client registration.
//
// The client id and secret are only needed to exchange authorization codes; a service
// authenticated with a bearer token works without them.
func NewSpotifyService(creds shared.OAuthClientConfig, opts ...Option) *SpotifyService {
	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-modify-public",
			"playlist-modify-private",
			"user-read-email",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	o := newOptions(spotifyBaseURL, "", opts)
	return &SpotifyService{
		config: config,
		opts:   o,
		api:    &apiClient{platform: models.Spotify, baseURL: o.baseURL},
	}
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	token, client, err := authenticate(ctx, s.config, s.opts, credentials)
	if err != nil {
		return err
	}
	s.token = token
	s.api.httpClient = client
	return nil
}

func (s *SpotifyService) Name() string { return models.Spotify.Label() }

func (s *SpotifyService) Platform() models.Platform { return models.Spotify }

func (s *SpotifyService) BatchSize() int { return spotifyBatchSize }

func (s *SpotifyService) Token() *oauth2.Token { return s.token }

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// PlaylistURL returns the open.spotify.com link for a playlist.
func (s *SpotifyService) PlaylistURL(playlistID string) string {
	return "https://open.spotify.com/playlist/" + playlistID
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.api.do(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SpotifyService) UserEmail(ctx context.Context) (string, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// CreatePlaylist resolves the current user's id, then creates a private playlist owned by them.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string) (*Playlist, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPlaylistCreate, err)
	}

	var created SpotifyPlaylist
	body := spotifyCreatePlaylist{Name: name, Description: description, Public: false}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(user.ID))
	if err := s.api.do(ctx, http.MethodPost, endpoint, nil, body, &created); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPlaylistCreate, err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: response has no playlist id", shared.ErrPlaylistCreate)
	}

	return &Playlist{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		Public:      created.Public,
	}, nil
}

// SearchTrack returns the first track matching "{name} {artist}".
func (s *SpotifyService) SearchTrack(ctx context.Context, name, artist string) (*Track, error) {
	q := models.SongDescriptor{Name: name, Artist: artist}.Query()
	query := url.Values{
		"q":     {q},
		"type":  {"track"},
		"limit": {"1"},
	}

	var response spotifySearchResponse
	if err := s.api.do(ctx, http.MethodGet, "/search", query, nil, &response); err != nil {
		return nil, err
	}
	if len(response.Tracks.Items) == 0 || response.Tracks.Items[0].URI == "" {
		return nil, fmt.Errorf("%w: %q", shared.ErrTrackNotFound, q)
	}

	item := response.Tracks.Items[0]
	track := &Track{ID: item.URI, Title: item.Name}
	if len(item.Artists) > 0 {
		track.Artist = item.Artists[0].Name
	}
	return track, nil
}

// AddTracks appends up to [spotifyBatchSize] track URIs to a playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > spotifyBatchSize {
		return fmt.Errorf("%w: at most %d tracks per call, got %d", shared.ErrInvalidArgument, spotifyBatchSize, len(trackIDs))
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.api.do(ctx, http.MethodPost, endpoint, nil, spotifyAddItems{URIs: trackIDs}, nil)
}
