// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
)

// MockService is a test double for [services.Service].
//
// Tracks maps a search query ("{name} {artist}") to the handle returned by SearchTrack;
// queries missing from Tracks are not found. Calls are recorded and safe for concurrent use.
type MockService struct {
	PlatformName models.Platform
	Batch        int
	Tracks       map[string]string
	SearchErrs   map[string]error
	CreateErr    error
	AddErr       func(call int, ids []string) error

	mu       sync.Mutex
	created  []services.Playlist
	searches []string
	added    [][]string
}

var _ services.Service = (*MockService)(nil)

// NewMockService creates a mock for the platform that finds every query in tracks.
func NewMockService(platform models.Platform, batch int, tracks map[string]string) *MockService {
	return &MockService{PlatformName: platform, Batch: batch, Tracks: tracks}
}

func (m *MockService) Name() string { return m.Platform().Label() }

func (m *MockService) Platform() models.Platform {
	if m.PlatformName == "" {
		return models.Spotify
	}
	return m.PlatformName
}

func (m *MockService) BatchSize() int {
	if m.Batch <= 0 {
		return 1
	}
	return m.Batch
}

func (m *MockService) PlaylistURL(id string) string { return "https://example.com/playlist/" + id }

func (m *MockService) CreatePlaylist(ctx context.Context, name, description string) (*services.Playlist, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pl := services.Playlist{ID: fmt.Sprintf("pl%d", len(m.created)+1), Name: name, Description: description}
	m.created = append(m.created, pl)
	return &pl, nil
}

func (m *MockService) SearchTrack(ctx context.Context, name, artist string) (*services.Track, error) {
	query := strings.TrimSpace(name + " " + artist)

	m.mu.Lock()
	m.searches = append(m.searches, query)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.SearchErrs[query]; ok {
		return nil, err
	}
	id, ok := m.Tracks[query]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, query)
	}
	return &services.Track{ID: id, Title: name, Artist: artist}, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, ids []string) error {
	m.mu.Lock()
	call := len(m.added)
	m.added = append(m.added, append([]string(nil), ids...))
	m.mu.Unlock()

	if m.AddErr != nil {
		return m.AddErr(call, ids)
	}
	return nil
}

// Created returns the playlists created so far.
func (m *MockService) Created() []services.Playlist {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.Playlist(nil), m.created...)
}

// Searches returns every query passed to SearchTrack, in call order.
func (m *MockService) Searches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.searches...)
}

// Added returns the handles of every AddTracks call, in call order.
func (m *MockService) Added() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.added...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
