package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playgen/internal/services"
	"github.com/desertthunder/playgen/internal/shared"
	"github.com/desertthunder/playgen/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.Catalog
	completer  services.Completer
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	busy       tasks.Busy
	engine     *tasks.Engine
	mu         sync.Mutex
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.Catalog
	Completer  services.Completer
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Busy       tasks.Busy
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		completer:  opts.Completer,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		busy:       opts.Busy,
	}
	r.engine = r.newEngine()
	return r
}

// SetLogger replaces the logger used by the runner and its engine.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.engine = r.newEngine()
}

// newEngine returns nil when either service is missing; commands report [shared.ErrServiceUnavailable].
func (r *Runner) newEngine() *tasks.Engine {
	if r.spotify == nil || r.completer == nil {
		return nil
	}

	return tasks.NewEngine(r.spotify, r.completer, tasks.EngineOptions{
		SearchRate:    r.config.Generator.SearchRate,
		SearchRetries: r.config.Generator.SearchRetries,
		Busy:          r.busy,
		Logger:        r.logger,
	})
}

// requireEngine reports which credentials are missing when no engine could be built.
func (r *Runner) requireEngine() error {
	if r.engine != nil {
		return nil
	}
	if err := r.config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	return fmt.Errorf("%w: playlist engine not initialized", shared.ErrServiceUnavailable)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, generateCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// connect builds the services that were not injected and the engine on top of them.
//
// Missing credentials are not fatal here: commands that need a service report [shared.ErrServiceUnavailable].
func (r *Runner) connect(ctx context.Context) {
	if r.spotify == nil {
		if svc, err := r.newSpotifyService(ctx); err == nil {
			r.spotify = svc
		} else {
			r.logger.Debug("spotify service unavailable", "error", err)
		}
	}

	if r.completer == nil {
		if svc, err := services.NewCompletionService(r.config.Credentials.Completion, r.httpClient); err == nil {
			r.completer = svc
		} else {
			r.logger.Debug("completion service unavailable", "error", err)
		}
	}

	r.engine = r.newEngine()
}

// newSpotifyService builds the Spotify catalog from config and restores the saved session.
//
// Refreshed tokens are written back to the config file.
func (r *Runner) newSpotifyService(ctx context.Context) (*services.SpotifyService, error) {
	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map())
	if err != nil {
		return nil, err
	}

	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveTokens(token); err != nil {
			r.logger.Warn("failed to save refreshed token", "error", err)
			return
		}
		r.logger.Debug("refreshed spotify token saved", "path", r.configPath)
	})

	if token := r.config.Credentials.Spotify.Token(); token != nil {
		if err := svc.OAuthenticate(ctx, token); err != nil {
			return nil, fmt.Errorf("failed to restore spotify session: %w", err)
		}
	}

	return svc, nil
}

// saveTokens stores token in the config and writes the token fields to the config path, if one is set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrInvalidConfig)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveTokens(r.configPath, r.config.Credentials.Spotify); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
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
