package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	tu "github.com/desertthunder/setlist/internal/testing"
)

func newTestEngine(concurrency int) *PlaylistEngine {
	return NewPlaylistEngine(EngineOpts{
		SearchConcurrency: concurrency,
		Logger:            shared.NewLogger(&bytes.Buffer{}),
	})
}

func songs(names ...string) []models.SongDescriptor {
	out := make([]models.SongDescriptor, len(names))
	for i, n := range names {
		out[i] = models.SongDescriptor{Name: n}
	}
	return out
}

func drain() (chan ProgressUpdate, func() []ProgressUpdate) {
	ch := make(chan ProgressUpdate, 1000)
	return ch, func() []ProgressUpdate {
		close(ch)
		var out []ProgressUpdate
		for u := range ch {
			out = append(out, u)
		}
		return out
	}
}

func TestPlaylistEngine_Assemble(t *testing.T) {
	tests := []struct {
		name         string
		svc          *tu.MockService
		songs        []string
		wantFound    []bool
		wantNotFound []string
		wantAdded    [][]string
	}{
		{
			name:      "spotify adds all found tracks in one batch",
			svc:       tu.NewMockService(models.Spotify, 100, map[string]string{"A": "uri:a", "B": "uri:b", "C": "uri:c"}),
			songs:     []string{"A", "B", "C"},
			wantFound: []bool{true, true, true},
			wantAdded: [][]string{{"uri:a", "uri:b", "uri:c"}},
		},
		{
			name:         "spotify skips songs without results",
			svc:          tu.NewMockService(models.Spotify, 100, map[string]string{"A": "uri:a", "C": "uri:c"}),
			songs:        []string{"A", "B", "C"},
			wantFound:    []bool{true, false, true},
			wantNotFound: []string{"B"},
			wantAdded:    [][]string{{"uri:a", "uri:c"}},
		},
		{
			name:      "youtube adds one video per call in order",
			svc:       tu.NewMockService(models.YouTube, 1, map[string]string{"A": "va", "B": "vb", "C": "vc"}),
			songs:     []string{"A", "B", "C"},
			wantFound: []bool{true, true, true},
			wantAdded: [][]string{{"va"}, {"vb"}, {"vc"}},
		},
		{
			name:         "nothing found still creates the playlist",
			svc:          tu.NewMockService(models.YouTube, 1, map[string]string{}),
			songs:        []string{"A", "B"},
			wantFound:    []bool{false, false},
			wantNotFound: []string{"A", "B"},
		},
		{
			name:  "empty song list",
			svc:   tu.NewMockService(models.Spotify, 100, nil),
			songs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(1)
			progress, collect := drain()

			report, err := engine.Assemble(context.Background(), tt.svc, AssembleRequest{Name: "Mix", Songs: songs(tt.songs...)}, progress)
			updates := collect()

			if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			if !report.Success {
				t.Error("Assemble() success = false, want true")
			}
			if report.PlaylistID != "pl1" {
				t.Errorf("Assemble() playlistId = %q, want pl1", report.PlaylistID)
			}
			if report.PlaylistURL != "https://example.com/playlist/pl1" {
				t.Errorf("Assemble() playlistUrl = %q", report.PlaylistURL)
			}
			if report.Platform != tt.svc.Platform().Label() {
				t.Errorf("Assemble() platform = %q, want %q", report.Platform, tt.svc.Platform().Label())
			}
			if len(report.Songs) != len(tt.songs) {
				t.Fatalf("Assemble() returned %d songs, want %d", len(report.Songs), len(tt.songs))
			}

			for i, s := range report.Songs {
				if s.Name != tt.songs[i] {
					t.Errorf("song %d = %q, want %q", i, s.Name, tt.songs[i])
				}
				if s.Found != tt.wantFound[i] {
					t.Errorf("song %d found = %v, want %v", i, s.Found, tt.wantFound[i])
				}
				if !s.Found && s.PlatformID != "" {
					t.Errorf("song %d not found but has platform id %q", i, s.PlatformID)
				}
			}

			wantNotFound := tt.wantNotFound
			if wantNotFound == nil {
				wantNotFound = []string{}
			}
			if !reflect.DeepEqual(report.NotFoundSongs, wantNotFound) {
				t.Errorf("Assemble() notFoundSongs = %v, want %v", report.NotFoundSongs, wantNotFound)
			}
			if got := tt.svc.Added(); !reflect.DeepEqual(got, tt.wantAdded) {
				t.Errorf("AddTracks calls = %v, want %v", got, tt.wantAdded)
			}

			if len(updates) == 0 || updates[len(updates)-1].Phase != Complete {
				t.Error("expected final progress update to be Complete")
			}
		})
	}
}

func TestPlaylistEngine_Assemble_Defaults(t *testing.T) {
	svc := tu.NewMockService(models.Spotify, 100, nil)

	if _, err := newTestEngine(1).Assemble(context.Background(), svc, AssembleRequest{}, nil); err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	created := svc.Created()
	if len(created) != 1 {
		t.Fatalf("expected 1 playlist, got %d", len(created))
	}
	if created[0].Name != DefaultPlaylistName {
		t.Errorf("name = %q, want %q", created[0].Name, DefaultPlaylistName)
	}
	if created[0].Description != DefaultPlaylistDescription {
		t.Errorf("description = %q, want %q", created[0].Description, DefaultPlaylistDescription)
	}
}

func TestPlaylistEngine_Assemble_Batches(t *testing.T) {
	tracks := map[string]string{}
	names := make([]string, 250)
	for i := range names {
		names[i] = fmt.Sprintf("song %03d", i)
		tracks[names[i]] = "uri:" + names[i]
	}

	t.Run("splits into batches of the service size", func(t *testing.T) {
		svc := tu.NewMockService(models.Spotify, 100, tracks)

		report, err := newTestEngine(4).Assemble(context.Background(), svc, AssembleRequest{Songs: songs(names...)}, nil)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}

		added := svc.Added()
		if len(added) != 3 {
			t.Fatalf("expected 3 AddTracks calls, got %d", len(added))
		}
		for i, want := range []int{100, 100, 50} {
			if len(added[i]) != want {
				t.Errorf("batch %d has %d tracks, want %d", i, len(added[i]), want)
			}
		}
		if added[1][0] != "uri:song 100" {
			t.Errorf("second batch starts with %q, want uri:song 100", added[1][0])
		}

		for i, s := range report.Songs {
			if s.Name != names[i] {
				t.Fatalf("song %d = %q, want %q", i, s.Name, names[i])
			}
		}
		if report.FoundCount() != 250 {
			t.Errorf("found %d songs, want 250", report.FoundCount())
		}
	})

	t.Run("failed batch marks only its songs not found", func(t *testing.T) {
		svc := tu.NewMockService(models.Spotify, 100, tracks)
		svc.AddErr = func(call int, ids []string) error {
			if call == 1 {
				return shared.ErrAPIRequest
			}
			return nil
		}

		report, err := newTestEngine(1).Assemble(context.Background(), svc, AssembleRequest{Songs: songs(names...)}, nil)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}

		if len(svc.Added()) != 3 {
			t.Errorf("expected later batches to continue, got %d calls", len(svc.Added()))
		}
		if report.FoundCount() != 150 {
			t.Errorf("found %d songs, want 150", report.FoundCount())
		}
		if len(report.NotFoundSongs) != 100 || report.NotFoundSongs[0] != "song 100" {
			t.Errorf("unexpected not found songs: %v", report.NotFoundSongs)
		}
		if !report.Songs[99].Found || report.Songs[100].Found || !report.Songs[200].Found {
			t.Error("batch boundaries not respected")
		}
	})
}

func TestPlaylistEngine_Assemble_Sequential(t *testing.T) {
	t.Run("attach failure marks the song and continues", func(t *testing.T) {
		svc := tu.NewMockService(models.YouTube, 1, map[string]string{"A": "va", "B": "vb", "C": "vc"})
		svc.AddErr = func(call int, ids []string) error {
			if ids[0] == "vb" {
				return errors.New("playlistItems.insert failed")
			}
			return nil
		}

		report, err := newTestEngine(1).Assemble(context.Background(), svc, AssembleRequest{Songs: songs("A", "B", "C")}, nil)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}

		if !reflect.DeepEqual(report.NotFoundSongs, []string{"B"}) {
			t.Errorf("notFoundSongs = %v, want [B]", report.NotFoundSongs)
		}
		if report.Songs[1].PlatformID != "" {
			t.Errorf("expected platform id cleared, got %q", report.Songs[1].PlatformID)
		}
	})

	t.Run("search and attach interleave", func(t *testing.T) {
		svc := tu.NewMockService(models.YouTube, 1, map[string]string{"A": "va", "C": "vc"})

		if _, err := newTestEngine(8).Assemble(context.Background(), svc, AssembleRequest{Songs: songs("A", "B", "C")}, nil); err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}

		if got := svc.Searches(); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
			t.Errorf("searches = %v, want [A B C]", got)
		}
		if got := svc.Added(); !reflect.DeepEqual(got, [][]string{{"va"}, {"vc"}}) {
			t.Errorf("adds = %v", got)
		}
	})

	t.Run("search query includes artist", func(t *testing.T) {
		svc := tu.NewMockService(models.YouTube, 1, map[string]string{"Hello Adele": "v1"})
		req := AssembleRequest{Songs: []models.SongDescriptor{{Name: "Hello", Artist: "Adele"}}}

		report, err := newTestEngine(1).Assemble(context.Background(), svc, req, nil)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		if !report.Songs[0].Found || report.Songs[0].Artist != "Adele" {
			t.Errorf("unexpected song: %+v", report.Songs[0])
		}
	})
}

func TestPlaylistEngine_Assemble_Errors(t *testing.T) {
	t.Run("service not initialized", func(t *testing.T) {
		_, err := newTestEngine(1).Assemble(context.Background(), nil, AssembleRequest{}, nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("Assemble() error = %v, want ErrServiceUnavailable", err)
		}
	})

	t.Run("create failure aborts before any search", func(t *testing.T) {
		svc := tu.NewMockService(models.YouTube, 1, map[string]string{"A": "va"})
		svc.CreateErr = fmt.Errorf("%w: quotaExceeded", shared.ErrQuotaExceeded)

		report, err := newTestEngine(1).Assemble(context.Background(), svc, AssembleRequest{Songs: songs("A")}, nil)
		if report != nil {
			t.Error("expected nil report")
		}
		if !errors.Is(err, shared.ErrQuotaExceeded) {
			t.Errorf("Assemble() error = %v, want ErrQuotaExceeded in chain", err)
		}
		if len(svc.Searches()) != 0 {
			t.Errorf("expected no searches, got %v", svc.Searches())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		svc := tu.NewMockService(models.Spotify, 100, map[string]string{"A": "uri:a"})
		engine := NewPlaylistEngine(EngineOpts{RequestsPerSecond: 1, Logger: shared.NewLogger(&bytes.Buffer{})})

		if _, err := engine.Assemble(ctx, svc, AssembleRequest{Songs: songs("A")}, nil); err == nil {
			t.Error("Assemble() expected error for cancelled context")
		}
	})
}

func TestPlaylistEngine_Assemble_SearchError(t *testing.T) {
	names := []string{"A", "B", "C", "D", "E"}
	tracks := map[string]string{"A": "a", "B": "b", "C": "c", "D": "d", "E": "e"}

	for _, batch := range []int{1, 100} {
		for _, k := range []int{0, 2, 4} {
			t.Run(fmt.Sprintf("batch %d song %d", batch, k), func(t *testing.T) {
				platform := models.Spotify
				if batch == 1 {
					platform = models.YouTube
				}
				svc := tu.NewMockService(platform, batch, tracks)
				svc.SearchErrs = map[string]error{names[k]: errors.New("search exploded")}

				report, err := newTestEngine(2).Assemble(context.Background(), svc, AssembleRequest{Songs: songs(names...)}, nil)
				if err != nil {
					t.Fatalf("Assemble() error = %v", err)
				}

				if got := len(svc.Searches()); got != len(names) {
					t.Errorf("searched %d songs, want %d", got, len(names))
				}
				if len(report.Songs) != len(names) {
					t.Fatalf("Assemble() returned %d songs, want %d", len(report.Songs), len(names))
				}
				for i, s := range report.Songs {
					if s.Found == (i == k) {
						t.Errorf("song %d (%s) found = %v", i, s.Name, s.Found)
					}
				}
				if !reflect.DeepEqual(report.NotFoundSongs, []string{names[k]}) {
					t.Errorf("notFoundSongs = %v, want [%s]", report.NotFoundSongs, names[k])
				}
			})
		}
	}
}

func TestPlaylistEngine_Assemble_Pacing(t *testing.T) {
	newEngine := func() *PlaylistEngine {
		return NewPlaylistEngine(EngineOpts{RequestsPerSecond: 1, Logger: shared.NewLogger(&bytes.Buffer{})})
	}

	t.Run("deadline after creation returns a report", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		for _, batch := range []int{1, 100} {
			svc := tu.NewMockService(models.YouTube, batch, map[string]string{"A": "va", "B": "vb", "C": "vc"})

			report, err := newEngine().Assemble(ctx, svc, AssembleRequest{Songs: songs("A", "B", "C")}, nil)
			if err != nil {
				t.Fatalf("batch %d: Assemble() error = %v", batch, err)
			}
			if len(svc.Created()) != 1 {
				t.Errorf("batch %d: expected the playlist to be created", batch)
			}
			if report.PlaylistID != "pl1" || len(report.Songs) != 3 {
				t.Fatalf("batch %d: unexpected report %+v", batch, report)
			}
			if !reflect.DeepEqual(report.NotFoundSongs, []string{"A", "B", "C"}) {
				t.Errorf("batch %d: notFoundSongs = %v", batch, report.NotFoundSongs)
			}
			if len(svc.Added()) != 0 {
				t.Errorf("batch %d: expected no adds, got %v", batch, svc.Added())
			}
		}
	})

	t.Run("concurrent requests are paced independently", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		engine := newEngine()
		for i := range 3 {
			svc := tu.NewMockService(models.Spotify, 100, nil)
			if _, err := engine.Assemble(ctx, svc, AssembleRequest{}, nil); err != nil {
				t.Fatalf("request %d: Assemble() error = %v", i, err)
			}
		}
	})
}

func TestPlaylistEngine_Progress(t *testing.T) {
	svc := tu.NewMockService(models.YouTube, 1, map[string]string{"A": "va"})
	progress, collect := drain()

	if _, err := newTestEngine(1).Assemble(context.Background(), svc, AssembleRequest{Name: "Mix", Songs: songs("A", "B")}, progress); err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	updates := collect()

	var phases []Phase
	for _, u := range updates {
		phases = append(phases, u.Phase)
	}
	want := []Phase{CreatePlaylist, CreatePlaylist, SearchTracks, SearchTracks, Complete}
	if !reflect.DeepEqual(phases, want) {
		t.Errorf("phases = %v, want %v", phases, want)
	}

	song, ok := updates[3].Data.(models.ResolvedSong)
	if !ok || song.Name != "B" || song.Found {
		t.Errorf("unexpected song update data: %#v", updates[3].Data)
	}
	if updates[3].Message != "[2/2] ✗ B" {
		t.Errorf("message = %q", updates[3].Message)
	}

	t.Run("full channel never blocks", func(t *testing.T) {
		full := make(chan ProgressUpdate)
		if _, err := newTestEngine(1).Assemble(context.Background(), svc, AssembleRequest{Songs: songs("A")}, full); err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
	})
}

func TestPhase_String(t *testing.T) {
	tests := map[Phase]string{
		CreatePlaylist: "create_playlist",
		SearchTracks:   "search_tracks",
		AddTracks:      "add_tracks",
		Complete:       "complete",
		Phase(42):      "",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
