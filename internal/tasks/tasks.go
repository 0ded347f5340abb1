// package tasks implements playlist assembly on a music service.
//
// The core abstraction is PlaylistEngine, which creates a playlist, resolves every song and attaches
// the resolved tracks. Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultPlaylistName        = "My Imported Playlist"
	DefaultPlaylistDescription = "Created with Playlist Creator"
)

// AssembleRequest describes the playlist to create.
type AssembleRequest struct {
	Name        string
	Description string
	Songs       []models.SongDescriptor
}

// Assembler creates playlists from song descriptors.
type Assembler interface {
	Assemble(ctx context.Context, svc services.Service, req AssembleRequest, progress chan<- ProgressUpdate) (*models.PlaylistReport, error)
}

// EngineOpts configures a [PlaylistEngine].
type EngineOpts struct {
	RequestsPerSecond float64 // pacing of platform calls; 0 disables pacing
	SearchConcurrency int     // concurrent searches for batched services (default: 1)
	Logger            *log.Logger
}

// EngineOptsFromConfig maps [shared.AssemblerConfig] onto [EngineOpts].
func EngineOptsFromConfig(cfg shared.AssemblerConfig, logger *log.Logger) EngineOpts {
	return EngineOpts{
		RequestsPerSecond: cfg.RequestsPerSecond,
		SearchConcurrency: cfg.SearchConcurrency,
		Logger:            logger,
	}
}

// PlaylistEngine implements [Assembler].
//
// Pacing is per call: every Assemble gets its own limiter, so concurrent requests do not
// slow each other down.
type PlaylistEngine struct {
	limit       rate.Limit
	concurrency int
	logger      *log.Logger
}

var _ Assembler = (*PlaylistEngine)(nil)

// NewPlaylistEngine creates a new PlaylistEngine with the provided options.
func NewPlaylistEngine(opts EngineOpts) *PlaylistEngine {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.SearchConcurrency <= 0 {
		opts.SearchConcurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &PlaylistEngine{
		limit:       limit,
		concurrency: min(opts.SearchConcurrency, 10),
		logger:      shared.WithLogger(opts.Logger, "component", "assembler"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Assemble creates a playlist on svc and attaches every song that resolves.
//
// Failure to create the playlist is returned as an error. Everything after that is partial
// success: a song whose search or attach fails is reported with found=false and the remaining
// songs are still processed. The report has one entry per requested song, in request order.
//
// Services with [services.Service.BatchSize] of 1 are driven strictly sequentially, each search
// immediately followed by its attach call. Batched services resolve every song first, then
// attach the found tracks in order, one call per batch; a failed batch does not undo earlier ones.
func (e *PlaylistEngine) Assemble(ctx context.Context, svc services.Service, req AssembleRequest, progress chan<- ProgressUpdate) (*models.PlaylistReport, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if req.Name == "" {
		req.Name = DefaultPlaylistName
	}
	if req.Description == "" {
		req.Description = DefaultPlaylistDescription
	}

	logger := shared.WithLogger(e.logger, "platform", svc.Platform())
	total := len(req.Songs)
	limiter := rate.NewLimiter(e.limit, 1)

	e.sendProgress(progress, createPlaylistUpdate(svc.Name()))
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	playlist, err := svc.CreatePlaylist(ctx, req.Name, req.Description)
	if err != nil {
		logger.Error("failed to create playlist", "name", req.Name, "error", err)
		return nil, err
	}
	e.sendProgress(progress, playlistCreatedUpdate(playlist))
	logger.Info("playlist created", "id", playlist.ID, "songs", total)

	var resolved []models.ResolvedSong
	if svc.BatchSize() <= 1 {
		resolved = e.resolveSequential(ctx, limiter, logger, svc, playlist.ID, req.Songs, progress)
	} else {
		resolved = e.resolveBatched(ctx, limiter, logger, svc, playlist.ID, req.Songs, progress)
	}

	report := buildReport(svc, playlist.ID, resolved)
	e.sendProgress(progress, completeUpdate(report))
	logger.Info("playlist assembled", "id", playlist.ID, "found", report.FoundCount(), "not_found", len(report.NotFoundSongs))
	return report, nil
}

// resolveSequential searches and attaches one song at a time. A failing song never stops the loop,
// and neither does a pacing failure: the song is reported as not found.
func (e *PlaylistEngine) resolveSequential(ctx context.Context, limiter *rate.Limiter, logger *log.Logger, svc services.Service, playlistID string, songs []models.SongDescriptor, progress chan<- ProgressUpdate) []models.ResolvedSong {
	total := len(songs)
	out := make([]models.ResolvedSong, total)

	for i, song := range songs {
		out[i] = e.resolveOne(ctx, limiter, logger, svc, playlistID, song)
		e.sendProgress(progress, songResolvedUpdate(i+1, total, out[i]))
	}
	return out
}

func (e *PlaylistEngine) resolveOne(ctx context.Context, limiter *rate.Limiter, logger *log.Logger, svc services.Service, playlistID string, song models.SongDescriptor) models.ResolvedSong {
	unresolved := models.ResolvedSong{SongDescriptor: song}
	if err := limiter.Wait(ctx); err != nil {
		logger.Warn("skipping search", "song", song.Query(), "error", err)
		return unresolved
	}

	r, err := services.Lookup(ctx, svc, song)
	if err != nil {
		logger.Warn("song not found", "song", song.Query(), "error", err)
	}
	if !r.Found {
		return r
	}

	if err := limiter.Wait(ctx); err != nil {
		logger.Warn("skipping add", "song", song.Query(), "error", err)
		return r.NotFound()
	}
	if err := svc.AddTracks(ctx, playlistID, []string{r.PlatformID}); err != nil {
		logger.Warn("failed to add song", "song", song.Query(), "id", r.PlatformID, "error", err)
		return r.NotFound()
	}
	return r
}

// resolveBatched searches every song, bounded by the engine's concurrency, then attaches the
// found tracks in order in batches of [services.Service.BatchSize].
func (e *PlaylistEngine) resolveBatched(ctx context.Context, limiter *rate.Limiter, logger *log.Logger, svc services.Service, playlistID string, songs []models.SongDescriptor, progress chan<- ProgressUpdate) []models.ResolvedSong {
	total := len(songs)
	out := make([]models.ResolvedSong, total)

	// Searches never fail the group; a failed song is recorded as not found.
	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, song := range songs {
		g.Go(func() error {
			r := models.ResolvedSong{SongDescriptor: song}
			if err := limiter.Wait(ctx); err != nil {
				logger.Warn("skipping search", "song", song.Query(), "error", err)
			} else if r, err = services.Lookup(ctx, svc, song); err != nil {
				logger.Warn("song not found", "song", song.Query(), "error", err)
			}
			out[i] = r
			e.sendProgress(progress, songResolvedUpdate(i+1, total, r))
			return nil
		})
	}
	_ = g.Wait()

	var found []int
	for i, r := range out {
		if r.Found {
			found = append(found, i)
		}
	}

	size := svc.BatchSize()
	batches := (len(found) + size - 1) / size
	for b := range batches {
		chunk := found[b*size : min((b+1)*size, len(found))]
		ids := make([]string, len(chunk))
		for j, idx := range chunk {
			ids[j] = out[idx].PlatformID
		}

		e.sendProgress(progress, addTracksUpdate(b+1, batches, len(ids)))
		err := limiter.Wait(ctx)
		if err == nil {
			err = svc.AddTracks(ctx, playlistID, ids)
		}
		if err != nil {
			logger.Warn("failed to add batch", "batch", b+1, "tracks", len(ids), "error", err)
			for _, idx := range chunk {
				out[idx] = out[idx].NotFound()
			}
		}
	}
	return out
}

func buildReport(svc services.Service, playlistID string, songs []models.ResolvedSong) *models.PlaylistReport {
	report := &models.PlaylistReport{
		Success:       true,
		Platform:      svc.Platform().Label(),
		PlaylistID:    playlistID,
		PlaylistURL:   svc.PlaylistURL(playlistID),
		Songs:         songs,
		NotFoundSongs: []string{},
	}
	for _, s := range songs {
		if !s.Found {
			report.NotFoundSongs = append(report.NotFoundSongs, s.Name)
		}
	}
	return report
}
