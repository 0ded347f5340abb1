package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/gate"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/songs"
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistCreate runs the full pipeline locally: normalize, optionally enrich, then assemble
// the playlist on the session's platform and render the report.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	platform, err := models.ParsePlatform(cmd.String("platform"))
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if _, err := formatter.Render(&models.PlaylistReport{}, format); err != nil {
		return err
	}

	session, err := r.session(cmd.String("token"), platform)
	if err != nil {
		return err
	}

	path := cmd.StringArg("path")
	if cmd.Bool("interactive") && (path == "" || path == "-") {
		return fmt.Errorf("%w: --interactive needs a song list file, stdin is used by the terminal UI", shared.ErrMissingArgument)
	}

	text, err := r.readInput(path)
	if err != nil {
		return err
	}

	list := songs.Normalize(text)
	if len(list) == 0 {
		return fmt.Errorf("%w: no songs provided", shared.ErrInvalidInput)
	}

	if platform == models.YouTube {
		limits := gate.PolicyFromConfig(r.config.Gate)
		if len(list) > limits.MaxSongs {
			return fmt.Errorf("%w: %s", shared.ErrPayloadTooLarge, limits.SizeMessage())
		}
	}

	if names := cmd.StringSlice("enrich"); len(names) > 0 {
		if list, err = r.enrichSongs(ctx, list, names); err != nil {
			return err
		}
	}

	svc, err := r.serviceFactory()(ctx, platform, session.AccessToken)
	if err != nil {
		return err
	}

	req := tasks.AssembleRequest{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Songs:       list,
	}

	var report *models.PlaylistReport
	if cmd.Bool("interactive") {
		report, err = r.runInteractive(ctx, svc, req)
	} else {
		report, err = r.assemble(ctx, svc, req)
	}
	if err != nil {
		return err
	}
	if report == nil {
		r.logger.Info("playlist creation cancelled")
		return nil
	}

	return r.writeReport(report, format, cmd.String("output"))
}

// session parses a session token and checks that it belongs to the platform's provider.
func (r *Runner) session(token string, platform models.Platform) (*models.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: pass --token or set SETLIST_SESSION (run 'setlist auth %s')", shared.ErrNotAuthenticated, platform)
	}

	session, err := r.sessions().Parse(token)
	if err != nil {
		return nil, err
	}
	if session.Provider != platform.Provider() {
		return nil, fmt.Errorf("%w: session is for %s, not %s", shared.ErrNotAuthenticated, session.Provider, platform.Label())
	}
	return session, nil
}

func (r *Runner) enrichSongs(ctx context.Context, list []models.SongDescriptor, names []string) ([]models.SongDescriptor, error) {
	phases, err := parsePhases(names)
	if err != nil {
		return nil, err
	}

	enricher, err := r.newEnricher()
	if err != nil {
		return nil, err
	}
	if enricher == nil {
		r.logger.Warn("enrich.api_key not set, skipping enrichment")
		return list, nil
	}

	r.logger.Info("enriching songs", "count", len(list), "phases", phases)
	return enricher.Enrich(ctx, list, phases...), nil
}

// assemble runs the engine and logs its progress.
func (r *Runner) assemble(ctx context.Context, svc services.Service, req tasks.AssembleRequest) (*models.PlaylistReport, error) {
	progress := make(chan tasks.ProgressUpdate, 100)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if update.Message != "" {
				r.logger.Info(update.Message, "phase", update.Phase)
			}
		}
	}()

	report, err := r.assembler().Assemble(ctx, svc, req, progress)
	close(progress)
	wg.Wait()

	if err != nil {
		return nil, fmt.Errorf("failed to create playlist on %s: %w", svc.Name(), err)
	}
	return report, nil
}

func (r *Runner) writeReport(report *models.PlaylistReport, format, output string) error {
	if output == "" {
		return formatter.Write(r.output, report, format)
	}

	path, err := formatter.WriteFile(report, format, output)
	if err != nil {
		return err
	}
	r.logger.Info("report saved", "path", path)
	return r.writePlain("✓ Added %d of %d songs to %s\n%s\nReport saved to %s\n",
		report.FoundCount(), len(report.Songs), report.Platform, report.PlaylistURL, path)
}
