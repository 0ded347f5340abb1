// YouTube Data API v3 implementation of [Service]
//
// Response types based on https://developers.google.com/youtube/v3/docs
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
	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	youtubeBaseURL    = "https://www.googleapis.com/youtube/v3"
)

type youtubeSnippet struct {
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ChannelTitle string `json:"channelTitle,omitempty"`
}

// YouTubePlaylist represents a playlist resource.
type YouTubePlaylist struct {
	ID      string         `json:"id,omitempty"`
	Snippet youtubeSnippet `json:"snippet"`
}

type youtubeResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId,omitempty"`
}

// YouTubeSearchResult represents one item of a search.list response.
type YouTubeSearchResult struct {
	ID      youtubeResourceID `json:"id"`
	Snippet youtubeSnippet    `json:"snippet"`
}

type youtubeSearchResponse struct {
	Items []YouTubeSearchResult `json:"items"`
}

type youtubePlaylistItem struct {
	ID      string `json:"id,omitempty"`
	Snippet struct {
		PlaylistID string            `json:"playlistId"`
		ResourceID youtubeResourceID `json:"resourceId"`
	} `json:"snippet"`
}

// YouTubeService implements the Service interface against the YouTube Data API.
//
// Playlist items are inserted one per call, so [YouTubeService.BatchSize] is 1.
type YouTubeService struct {
	config *oauth2.Config
	token  *oauth2.Token
	opts   options
	api    *apiClient
}

var (
	_ Service       = (*YouTubeService)(nil)
	_ Authenticator = (*YouTubeService)(nil)
)

// NewYouTubeService creates a new YouTube service with the given Google OAuth2 client registration.
func NewYouTubeService(creds shared.OAuthClientConfig, opts ...Option) *YouTubeService {
	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"https://www.googleapis.com/auth/youtube",
			"openid",
			"email",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
	}

	o := newOptions(youtubeBaseURL, googleUserInfoURL, opts)
	return &YouTubeService{
		config: config,
		opts:   o,
		api:    &apiClient{platform: models.YouTube, baseURL: o.baseURL},
	}
}

// Authenticate expects either an "access_token" or "auth_code" in credentials.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	token, client, err := authenticate(ctx, y.config, y.opts, credentials)
	if err != nil {
		return err
	}
	y.token = token
	y.api.httpClient = client
	return nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string { return models.YouTube.Label() }

func (y *YouTubeService) Platform() models.Platform { return models.YouTube }

func (y *YouTubeService) BatchSize() int { return 1 }

func (y *YouTubeService) Token() *oauth2.Token { return y.token }

func (y *YouTubeService) AuthURL(state string) string {
	return y.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// PlaylistURL returns the music.youtube.com link for a playlist.
func (y *YouTubeService) PlaylistURL(playlistID string) string {
	return "https://music.youtube.com/playlist?list=" + url.QueryEscape(playlistID)
}

// UserEmail reads the email claim from the OpenID Connect userinfo endpoint.
func (y *YouTubeService) UserEmail(ctx context.Context) (string, error) {
	info := &apiClient{platform: models.YouTube, baseURL: y.opts.userInfoURL, httpClient: y.api.httpClient}

	var user struct {
		Email string `json:"email"`
	}
	if err := info.do(ctx, http.MethodGet, "", nil, nil, &user); err != nil {
		return "", err
	}
	return user.Email, nil
}

// CreatePlaylist inserts a playlist with the given title and description.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, name, description string) (*Playlist, error) {
	body := YouTubePlaylist{Snippet: youtubeSnippet{Title: name, Description: description}}
	query := url.Values{"part": {"snippet"}}

	var created YouTubePlaylist
	if err := y.api.do(ctx, http.MethodPost, "/playlists", query, body, &created); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPlaylistCreate, err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: response has no playlist id", shared.ErrPlaylistCreate)
	}

	return &Playlist{ID: created.ID, Name: created.Snippet.Title, Description: created.Snippet.Description}, nil
}

// SearchTrack runs a single-result video search for "{name} {artist}".
func (y *YouTubeService) SearchTrack(ctx context.Context, name, artist string) (*Track, error) {
	q := models.SongDescriptor{Name: name, Artist: artist}.Query()
	query := url.Values{
		"part":       {"snippet"},
		"q":          {q},
		"type":       {"video"},
		"maxResults": {"1"},
	}

	var response youtubeSearchResponse
	if err := y.api.do(ctx, http.MethodGet, "/search", query, nil, &response); err != nil {
		return nil, err
	}
	if len(response.Items) == 0 || response.Items[0].ID.VideoID == "" {
		return nil, fmt.Errorf("%w: %q", shared.ErrTrackNotFound, q)
	}

	item := response.Items[0]
	return &Track{ID: item.ID.VideoID, Title: item.Snippet.Title, Artist: item.Snippet.ChannelTitle}, nil
}

// AddTracks inserts each video into the playlist, one call per video, stopping at the first failure.
func (y *YouTubeService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	query := url.Values{"part": {"snippet"}}
	for _, videoID := range trackIDs {
		var item youtubePlaylistItem
		item.Snippet.PlaylistID = playlistID
		item.Snippet.ResourceID = youtubeResourceID{Kind: "youtube#video", VideoID: videoID}

		if err := y.api.do(ctx, http.MethodPost, "/playlistItems", query, item, nil); err != nil {
			return err
		}
	}
	return nil
}
