package tasks

import (
	"fmt"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CreatePlaylist Phase = iota
	SearchTracks
	AddTracks
	Complete
)

func (p Phase) String() string {
	switch p {
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case AddTracks:
		return "add_tracks"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func createPlaylistUpdate(service string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist on %s...", service),
	}
}

func playlistCreatedUpdate(pl *services.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

// songResolvedUpdate carries the [models.ResolvedSong] as Data.
func songResolvedUpdate(step, total int, song models.ResolvedSong) ProgressUpdate {
	mark := "✓"
	if !song.Found {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, song.Query()),
		Data:    song,
	}
}

func addTracksUpdate(step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d tracks...", step, total, size),
	}
}

// completeUpdate carries the final [models.PlaylistReport] as Data.
func completeUpdate(report *models.PlaylistReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Added %d of %d songs", report.FoundCount(), len(report.Songs)),
		Data:    report,
	}
}
