package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/gate"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/server"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	store, db, err := r.gateStore()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	enricher, err := r.newEnricher()
	if err != nil {
		return err
	}
	if enricher == nil {
		r.logger.Warn("enrich.api_key not set, enrichment requests will pass songs through")
	}

	g := gate.New(store, gate.PolicyFromConfig(r.config.Gate), r.logger)
	api := server.NewAPI(server.APIOptions{
		Enricher:   enricher,
		Gate:       g,
		Assembler:  r.assembler(),
		Services:   r.serviceFactory(),
		Sessions:   r.sessions(),
		Logger:     r.logger,
		Production: r.config.Server.IsProduction(),
	})

	go r.pruneLoop(ctx, g, cmd.Duration("prune-interval"))

	return server.New(r.config.Server, api, r.logger).Run(ctx)
}

// gateStore returns the configured rate limit store. The database is nil for the memory store.
func (r *Runner) gateStore() (gate.Store, *sql.DB, error) {
	switch r.config.Gate.Store {
	case "sqlite":
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open rate limit database: %w", err)
		}
		r.logger.Info("using sqlite rate limit store", "path", r.config.Database.Path)
		return repositories.NewRateLimitRepository(db), db, nil
	default:
		r.logger.Info("using in-memory rate limit store")
		return gate.NewMemoryStore(), nil, nil
	}
}

func (r *Runner) pruneLoop(ctx context.Context, g *gate.Gate, every time.Duration) {
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := g.Prune(ctx)
			if err != nil {
				r.logger.Warn("failed to prune rate limit entries", "error", err)
				continue
			}
			r.logger.Debug("pruned rate limit entries", "count", n)
		}
	}
}
