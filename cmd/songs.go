package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/setlist/internal/enrich"
	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/songs"
	"github.com/urfave/cli/v3"
)

// SongsNormalize parses a song list and prints the descriptors.
func (r *Runner) SongsNormalize(ctx context.Context, cmd *cli.Command) error {
	text, err := r.readInput(cmd.StringArg("path"))
	if err != nil {
		return err
	}

	list := songs.Normalize(text)
	r.logger.Debug("normalized song list", "count", len(list))
	return r.writeSongs(list, cmd.Bool("json"))
}

// SongsEnrich parses a song list and runs the requested enrichment phases over it.
func (r *Runner) SongsEnrich(ctx context.Context, cmd *cli.Command) error {
	phases, err := parsePhases(cmd.StringSlice("phase"))
	if err != nil {
		return err
	}

	enricher, err := r.newEnricher()
	if err != nil {
		return err
	}
	if enricher == nil {
		return fmt.Errorf("%w: enrich.api_key (or OPENAI_API_KEY) is required", shared.ErrMissingCredentials)
	}

	text, err := r.readInput(cmd.StringArg("path"))
	if err != nil {
		return err
	}

	list := songs.Normalize(text)
	if len(list) == 0 {
		return fmt.Errorf("%w: no songs provided", shared.ErrInvalidInput)
	}

	r.logger.Info("enriching songs", "count", len(list), "phases", phases)
	return r.writeSongs(enricher.Enrich(ctx, list, phases...), cmd.Bool("json"))
}

func (r *Runner) writeSongs(list []models.SongDescriptor, asJSON bool) error {
	if asJSON {
		return r.writeJSON(list, true)
	}
	if _, err := r.output.Write(formatter.SongsToText(list)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func parsePhases(names []string) ([]enrich.Phase, error) {
	phases := make([]enrich.Phase, 0, len(names))
	for _, name := range names {
		p, err := enrich.ParsePhase(name)
		if err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	return phases, nil
}
