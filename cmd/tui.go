package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/desertthunder/setlist/internal/ui"
)

// runInteractive previews the songs, asks for confirmation and follows assembly in the terminal UI.
//
// A nil report with a nil error means the user quit before confirming.
func (r *Runner) runInteractive(ctx context.Context, svc services.Service, req tasks.AssembleRequest) (*models.PlaylistReport, error) {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/setlist-tui.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, svc, r.assembler(), req)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	m, ok := final.(ui.Model)
	if !ok {
		return nil, nil
	}
	if m.Err() != nil {
		return nil, fmt.Errorf("failed to create playlist on %s: %w", svc.Name(), m.Err())
	}
	return m.Report(), nil
}
