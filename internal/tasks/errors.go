package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/playgen/internal/models"
	"github.com/desertthunder/playgen/internal/shared"
)

// Steps reported by [PlaylistCreationError].
const (
	StepCreate    = "create"
	StepAddTracks = "add_tracks"
)

var ErrIllegalTransition = fmt.Errorf("illegal state transition")

// MalformedCompletionError reports a completion without a usable create_playlist call.
type MalformedCompletionError struct {
	Reason     string
	Violations []string
}

func (e *MalformedCompletionError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("%v: %s", shared.ErrMalformedCompletion, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", shared.ErrMalformedCompletion, e.Reason, strings.Join(e.Violations, "; "))
}

func (e *MalformedCompletionError) Unwrap() error {
	return shared.ErrMalformedCompletion
}

// TrackNotFoundError reports a song with zero catalog hits.
type TrackNotFoundError struct {
	Song  models.SongSpec
	Query string
}

func (e *TrackNotFoundError) Error() string {
	return fmt.Sprintf("%v: no results for %q", shared.ErrTrackNotFound, e.Query)
}

func (e *TrackNotFoundError) Unwrap() error {
	return shared.ErrTrackNotFound
}

// PlaylistCreationError reports a failure while materializing a playlist.
//
// Playlist is set when the playlist was created but tracks could not be added.
type PlaylistCreationError struct {
	Step     string
	Playlist *models.Playlist
	Err      error
}

func (e *PlaylistCreationError) Error() string {
	if e.Playlist != nil {
		return fmt.Sprintf("%v at %s (playlist %s exists): %v", shared.ErrPlaylistCreation, e.Step, e.Playlist.ID, e.Err)
	}
	return fmt.Sprintf("%v at %s: %v", shared.ErrPlaylistCreation, e.Step, e.Err)
}

func (e *PlaylistCreationError) Unwrap() []error {
	return []error{shared.ErrPlaylistCreation, e.Err}
}

// Explain renders err as a message for the user, naming the failed step and song where known.
func Explain(err error) string {
	if err == nil {
		return ""
	}

	var (
		malformed *MalformedCompletionError
		notFound  *TrackNotFoundError
		creation  *PlaylistCreationError
	)

	switch {
	case errors.Is(err, shared.ErrAuthentication):
		return "Could not verify your Spotify session. Run 'playgen auth login' and try again."
	case errors.As(err, &malformed):
		msg := "The model did not return a usable playlist (" + malformed.Reason + ")."
		if len(malformed.Violations) > 0 {
			msg += " Problems: " + strings.Join(malformed.Violations, "; ") + "."
		}
		return msg + " Try again or rephrase your description."
	case errors.As(err, &notFound):
		return fmt.Sprintf("Could not find %q on Spotify, so no playlist was created.", notFound.Song.Label())
	case errors.As(err, &creation):
		if creation.Step == StepAddTracks && creation.Playlist != nil {
			return fmt.Sprintf("Created playlist %q (%s) but could not add its tracks: %v",
				creation.Playlist.Name, creation.Playlist.URL, creation.Err)
		}
		return fmt.Sprintf("Spotify could not create the playlist: %v", creation.Err)
	case errors.Is(err, shared.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, shared.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, shared.ErrAuthFailed):
		return fmt.Sprintf("Authentication was rejected: %v. Check your API credentials.", err)
	default:
		return fmt.Sprintf("Playlist generation failed: %v", err)
	}
}
