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
	"golang.org/x/time/rate"
)

const defaultBackoff = 500 * time.Millisecond

// ResolverOptions configures a [Resolver].
type ResolverOptions struct {
	Rate    float64       // Searches per second; zero or less disables pacing
	Retries int           // Extra attempts per song after a transient search failure
	Backoff time.Duration // Base delay between attempts, multiplied by the attempt number; zero uses 500ms, negative disables
	Logger  *log.Logger
}

// Resolver maps song specs to catalog tracks, one search per song.
type Resolver struct {
	catalog services.Catalog
	limiter *rate.Limiter
	retries int
	backoff time.Duration
	logger  *log.Logger
}

// NewResolver creates a [Resolver] searching catalog.
func NewResolver(catalog services.Catalog, opts ResolverOptions) *Resolver {
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	backoff := opts.Backoff
	switch {
	case backoff == 0:
		backoff = defaultBackoff
	case backoff < 0:
		backoff = 0
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Resolver{
		catalog: catalog,
		limiter: rate.NewLimiter(limit, 1),
		retries: max(opts.Retries, 0),
		backoff: backoff,
		logger:  logger,
	}
}

// Resolve returns the top hit for each song, in input order.
//
// A song without hits fails the whole batch with a [*TrackNotFoundError].
func (r *Resolver) Resolve(ctx context.Context, songs []models.SongSpec, report Reporter) ([]models.Track, error) {
	tracks := make([]models.Track, 0, len(songs))

	for i, song := range songs {
		report.send(searchTracksUpdate(i+1, len(songs), song))

		track, err := r.ResolveSong(ctx, song)
		if err != nil {
			return nil, err
		}

		r.logger.Debug("resolved song", "song", song.Label(), "track", track.ID)
		tracks = append(tracks, *track)
	}

	return tracks, nil
}

// ResolveSong searches for a single song and returns its top hit.
func (r *Resolver) ResolveSong(ctx context.Context, song models.SongSpec) (*models.Track, error) {
	query := song.Query()

	var (
		hits []models.Track
		err  error
	)

	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			r.logger.Warn("retrying search", "query", query, "attempt", attempt, "error", err)
			if werr := sleep(ctx, time.Duration(attempt)*r.backoff); werr != nil {
				return nil, werr
			}
		}

		if werr := r.limiter.Wait(ctx); werr != nil {
			return nil, werr
		}

		hits, err = r.catalog.SearchTracks(ctx, query, 1)
		if err == nil || !retryable(err) {
			break
		}
	}

	if err != nil {
		return nil, fmt.Errorf("search for %q failed: %w", query, err)
	}

	if len(hits) == 0 {
		return nil, &TrackNotFoundError{Song: song, Query: query}
	}
	return &hits[0], nil
}

// retryable reports whether a search failure may succeed on a later attempt.
//
// Errors without an HTTP status are treated as transport failures.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired), errors.Is(err, shared.ErrAuthFailed):
		return false
	case errors.Is(err, shared.ErrInvalidArgument):
		return false
	}

	var status *shared.StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
