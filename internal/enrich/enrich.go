package enrich

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Phase is one independent enrichment pass.
type Phase string

const (
	PhaseCorrect Phase = "correct" // fix spelling and capitalization, attribute artists
	PhaseAnalyze Phase = "analyze" // attach tempo, genre, energy and mood
	PhaseOrder   Phase = "order"   // reorder for listening flow
)

// ParsePhase validates a phase name from user input.
func ParsePhase(s string) (Phase, error) {
	switch p := Phase(strings.ToLower(strings.TrimSpace(s))); p {
	case PhaseCorrect, PhaseAnalyze, PhaseOrder:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown enrichment phase %q", shared.ErrInvalidArgument, s)
	}
}

// Prompt is a single chat request to the text generation service.
type Prompt struct {
	System      string
	User        string
	Temperature float32
}

// Completer sends a prompt to a text generation service and returns its free-text reply.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Enricher is the contract consumed by the HTTP and CLI layers.
type Enricher interface {
	Enrich(ctx context.Context, songs []models.SongDescriptor, phases ...Phase) []models.SongDescriptor
}

// Gateway runs enrichment phases against a [Completer].
//
// Every phase returns exactly one descriptor per input descriptor. Upstream errors and
// unparseable replies degrade to returning the input unchanged.
type Gateway struct {
	client Completer
	logger *log.Logger
	temps  map[Phase]float32
}

var _ Enricher = (*Gateway)(nil)

// Option configures a [Gateway].
type Option func(*Gateway)

// WithLogger sets the logger used to report absorbed failures.
func WithLogger(l *log.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithTemperatures overrides the sampling temperature of each phase.
func WithTemperatures(correct, analyze, order float32) Option {
	return func(g *Gateway) {
		g.temps[PhaseCorrect] = correct
		g.temps[PhaseAnalyze] = analyze
		g.temps[PhaseOrder] = order
	}
}

// NewGateway creates a [Gateway]. A nil client makes every phase a pass-through.
func NewGateway(client Completer, opts ...Option) *Gateway {
	g := &Gateway{
		client: client,
		temps: map[Phase]float32{
			PhaseCorrect: 0.3,
			PhaseAnalyze: 0.3,
			PhaseOrder:   0.5,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = shared.NewLogger(nil)
	}
	g.logger = shared.WithLogger(g.logger, "component", "enrich")
	return g
}

// Correct fixes names and attributes a likely artist where one is missing.
func (g *Gateway) Correct(ctx context.Context, songs []models.SongDescriptor) []models.SongDescriptor {
	return g.run(ctx, PhaseCorrect, songs)
}

// Analyze attaches tempo, genre, energy and mood metadata.
func (g *Gateway) Analyze(ctx context.Context, songs []models.SongDescriptor) []models.SongDescriptor {
	return g.run(ctx, PhaseAnalyze, songs)
}

// Order reorders songs for listening flow.
func (g *Gateway) Order(ctx context.Context, songs []models.SongDescriptor) []models.SongDescriptor {
	return g.run(ctx, PhaseOrder, songs)
}

// Enrich runs the given phases in sequence, defaulting to [PhaseCorrect].
func (g *Gateway) Enrich(ctx context.Context, songs []models.SongDescriptor, phases ...Phase) []models.SongDescriptor {
	if len(phases) == 0 {
		phases = []Phase{PhaseCorrect}
	}
	out := slices.Clone(songs)
	for _, p := range phases {
		out = g.run(ctx, p, out)
	}
	return out
}

func (g *Gateway) run(ctx context.Context, phase Phase, songs []models.SongDescriptor) []models.SongDescriptor {
	if len(songs) == 0 || g.client == nil {
		return slices.Clone(songs)
	}

	prompt, err := buildPrompt(phase, songs, g.temps[phase])
	if err != nil {
		g.logger.Warn("could not build prompt", "phase", phase, "error", err)
		return slices.Clone(songs)
	}

	reply, err := g.client.Complete(ctx, prompt)
	if err != nil {
		g.logger.Warn("enrichment request failed, passing songs through", "phase", phase, "songs", len(songs), "error", err)
		return slices.Clone(songs)
	}

	parsed, err := ParseSongs(reply)
	if err != nil {
		g.logger.Warn("unparseable enrichment reply, passing songs through", "phase", phase, "error", err)
		return slices.Clone(songs)
	}

	out := Reconcile(songs, parsed)
	g.logger.Debug("phase complete", "phase", phase, "returned", len(parsed), "songs", len(out))
	return out
}
