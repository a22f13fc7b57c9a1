package tasks

import (
	"fmt"

	"github.com/desertthunder/playgen/internal/models"
)

// ProgressUpdate represents a progress event during a generation cycle.
//
// Used to send real-time updates to the CLI, TUI or web layer for display.
type ProgressUpdate struct {
	CycleID string // Cycle the update belongs to
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Authenticate Phase = iota
	Generate
	SearchTracks
	CreatePlaylist
	Finished
	Failure
)

func (p Phase) String() string {
	switch p {
	case Authenticate:
		return "authenticate"
	case Generate:
		return "generate"
	case SearchTracks:
		return "search_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case Finished:
		return "finished"
	case Failure:
		return "failure"
	default:
		return ""
	}
}

// Reporter receives progress updates. A nil Reporter discards them.
type Reporter func(ProgressUpdate)

func (r Reporter) send(u ProgressUpdate) {
	if r != nil {
		r(u)
	}
}

// ChannelReporter returns a [Reporter] that forwards to progress without blocking.
func ChannelReporter(progress chan<- ProgressUpdate) Reporter {
	return func(u ProgressUpdate) { sendProgress(progress, u) }
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func authenticateUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Authenticate, Step: 1, Total: 1, Message: "Checking Spotify session..."}
}

func loggedInUpdate(user *models.User) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Logged in as %s", user),
		Data:    user,
	}
}

func generateUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Generate,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Asking the model for %d songs...", count),
	}
}

func specUpdate(spec *models.PlaylistSpec) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Generate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Generated %q with %d songs", spec.Name, len(spec.Songs)),
		Data:    spec,
	}
}

func searchTracksUpdate(step, total int, song models.SongSpec) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, song.Label()),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   2,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func addTracksUpdate(pl *models.Playlist, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Adding %d tracks to %s...", count, pl.Name),
		Data:    pl,
	}
}

func finishedUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finished,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s", pl.URL),
		Data:    pl,
	}
}

func failureUpdate(state State, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failure,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Failed while %s: %s", state, Explain(err)),
		Data:    err,
	}
}
