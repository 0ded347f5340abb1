package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/enrich"
	"github.com/desertthunder/setlist/internal/server"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators left nil are built from the loaded config when a command first needs them.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	engine     tasks.Assembler
	enricher   enrich.Enricher
	services   server.ServiceFactory
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Engine     tasks.Assembler
	Enricher   enrich.Enricher
	Services   server.ServiceFactory
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		engine:     opts.Engine,
		enricher:   opts.Enricher,
		services:   opts.Services,
	}
}

// Before loads the config file named by --config (if it exists), overlays the environment
// and applies the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	r.config.ApplyEnv(nil)
	shared.SetLogLevel(r.logger, r.config.Log.Level)
	if cmd.Bool("verbose") {
		r.logger.SetLevel(log.DebugLevel)
	}
	return ctx, nil
}

// SetLogger replaces the logger used by commands and by collaborators built afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, songsCommand, playlistCommand, authCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) assembler() tasks.Assembler {
	if r.engine == nil {
		r.engine = tasks.NewPlaylistEngine(tasks.EngineOptsFromConfig(r.config.Assembler, r.logger))
	}
	return r.engine
}

func (r *Runner) serviceFactory() server.ServiceFactory {
	if r.services == nil {
		r.services = server.NewServiceFactory(r.config.Credentials, r.config.Assembler.Timeout)
	}
	return r.services
}

// newEnricher builds the OpenAI-backed enrichment gateway.
//
// Returns nil without error when no API key is configured so callers can pass songs through.
func (r *Runner) newEnricher() (enrich.Enricher, error) {
	if r.enricher != nil {
		return r.enricher, nil
	}
	if r.config.Enrich.APIKey == "" {
		return nil, nil
	}

	client, err := enrich.NewOpenAIClient(r.config.Enrich)
	if err != nil {
		return nil, err
	}
	cfg := r.config.Enrich
	r.enricher = enrich.NewGateway(client,
		enrich.WithLogger(r.logger),
		enrich.WithTemperatures(cfg.CorrectTemperature, cfg.AnalyzeTemperature, cfg.OrderTemperature),
	)
	return r.enricher, nil
}

func (r *Runner) sessions() *server.SessionService {
	return server.NewSessionService(r.config.Server.SessionSecret, r.config.Server.SessionTTL)
}

// readInput reads the file at path, or the runner's input when path is empty or "-".
func (r *Runner) readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(r.input)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return string(data), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
