// package tasks implements the playlist generation cycle.
//
// The core abstraction is Engine, which turns a free-text request into a playlist in the catalog.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playgen/internal/models"
	"github.com/desertthunder/playgen/internal/services"
	"github.com/desertthunder/playgen/internal/shared"
)

// Busy is notified while a blocking external call is in flight so surfaces can show a working indicator.
type Busy interface {
	// Acquire marks the start of label's work. The returned func ends it and must be called exactly once.
	Acquire(label string) (release func())
}

// BusyFunc adapts a function to [Busy].
type BusyFunc func(label string) func()

func (f BusyFunc) Acquire(label string) func() {
	return f(label)
}

type noopBusy struct{}

func (noopBusy) Acquire(string) func() { return func() {} }

// GenerationResult contains everything produced by one cycle, including partial output on failure.
type GenerationResult struct {
	CycleID  string                 `json:"cycle_id"`
	Request  models.PlaylistRequest `json:"request"`
	User     *models.User           `json:"user,omitempty"`
	Spec     *models.PlaylistSpec   `json:"spec,omitempty"`
	Tracks   []models.Track         `json:"tracks,omitempty"`
	Playlist *models.Playlist       `json:"playlist,omitempty"`
	State    State                  `json:"-"`
	Err      error                  `json:"-"`
	Duration time.Duration          `json:"-"`
}

// Succeeded reports whether the cycle reached [Done].
func (r *GenerationResult) Succeeded() bool {
	return r.State == Done && r.Err == nil
}

// EngineOptions configures an [Engine].
type EngineOptions struct {
	SearchRate    float64
	SearchRetries int
	SearchBackoff time.Duration
	Busy          Busy
	Logger        *log.Logger
}

// Engine runs generation cycles against a catalog and a completion service.
//
// Cycles share no mutable state, so an Engine may run several concurrently.
type Engine struct {
	catalog      services.Catalog
	completer    services.Completer
	resolver     *Resolver
	materializer *Materializer
	busy         Busy
	logger       *log.Logger
}

// NewEngine creates a new Engine with the provided services.
func NewEngine(catalog services.Catalog, completer services.Completer, opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	busy := opts.Busy
	if busy == nil {
		busy = noopBusy{}
	}

	return &Engine{
		catalog:   catalog,
		completer: completer,
		resolver: NewResolver(catalog, ResolverOptions{
			Rate:    opts.SearchRate,
			Retries: opts.SearchRetries,
			Backoff: opts.SearchBackoff,
			Logger:  logger,
		}),
		materializer: NewMaterializer(catalog),
		busy:         busy,
		logger:       logger,
	}
}

// Run performs one generation cycle: authenticate, complete, resolve, materialize.
//
// The returned result is never nil; on failure it holds whatever was produced before the failing step and the
// same error that is returned.
func (e *Engine) Run(ctx context.Context, req models.PlaylistRequest, progress chan<- ProgressUpdate) (*GenerationResult, error) {
	cycle := NewCycle()
	result := &GenerationResult{CycleID: cycle.ID, Request: req, State: cycle.State()}
	logger := shared.WithLogger(e.logger, "cycle", cycle.ID)
	started := time.Now()

	forward := Reporter(func(u ProgressUpdate) {
		u.CycleID = cycle.ID
		sendProgress(progress, u)
	})

	fail := func(err error) (*GenerationResult, error) {
		at := cycle.State()
		if ferr := cycle.Fail(err); ferr != nil {
			logger.Error("could not fail cycle", "error", ferr)
		}
		result.State = cycle.State()
		result.Err = err
		result.Duration = time.Since(started)
		logger.Error("cycle failed", "state", at, "error", err)
		forward(failureUpdate(at, err))
		return result, err
	}

	advance := func(next State) error {
		if err := cycle.Advance(next); err != nil {
			return err
		}
		result.State = next
		logger.Debug("cycle advanced", "state", next)
		return nil
	}

	if e.catalog == nil || e.completer == nil {
		return fail(fmt.Errorf("%w: engine services not initialized", shared.ErrServiceUnavailable))
	}

	if err := req.Validate(); err != nil {
		return fail(err)
	}

	forward(authenticateUpdate())
	release := e.busy.Acquire("Checking Spotify session")
	user, err := e.catalog.CurrentUser(ctx)
	release()
	if err != nil {
		return fail(fmt.Errorf("%w: %w", shared.ErrAuthentication, err))
	}
	result.User = user
	logger.Info("logged in", "user", user.String())
	forward(loggedInUpdate(user))

	if err := advance(AwaitingCompletion); err != nil {
		return fail(err)
	}

	chatReq, err := Format(req)
	if err != nil {
		return fail(err)
	}

	forward(generateUpdate(req.SongCount))
	release = e.busy.Acquire("Generating playlist")
	resp, err := e.completer.Complete(ctx, chatReq)
	release()
	if err != nil {
		return fail(fmt.Errorf("completion request failed: %w", err))
	}

	interpreted := Interpret(resp)
	if err := interpreted.Err(); err != nil {
		return fail(err)
	}

	spec := interpreted.Spec
	result.Spec = &spec
	if len(spec.Songs) != req.SongCount {
		logger.Warn("song count differs from request", "requested", req.SongCount, "received", len(spec.Songs))
	}
	logger.Info("playlist generated", "name", spec.Name, "songs", len(spec.Songs))
	forward(specUpdate(&spec))

	if err := advance(Resolving); err != nil {
		return fail(err)
	}

	release = e.busy.Acquire("Searching tracks")
	tracks, err := e.resolver.Resolve(ctx, spec.Songs, forward)
	release()
	if err != nil {
		return fail(err)
	}
	result.Tracks = tracks

	if err := advance(Materializing); err != nil {
		return fail(err)
	}

	release = e.busy.Acquire("Creating playlist")
	playlist, err := e.materializer.Materialize(ctx, user, spec, tracks, forward)
	release()
	if err != nil {
		var creation *PlaylistCreationError
		if errors.As(err, &creation) {
			result.Playlist = creation.Playlist
		}
		return fail(err)
	}
	result.Playlist = playlist

	if err := advance(Done); err != nil {
		return fail(err)
	}

	result.Duration = time.Since(started)
	logger.Info("playlist created", "id", playlist.ID, "url", playlist.URL, "duration", result.Duration)
	forward(finishedUpdate(playlist))
	return result, nil
}
