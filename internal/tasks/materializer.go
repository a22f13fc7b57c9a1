package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/playgen/internal/models"
	"github.com/desertthunder/playgen/internal/services"
	"github.com/desertthunder/playgen/internal/shared"
)

const playlistURLPrefix = "https://open.spotify.com/playlist/"

// Materializer creates a playlist in the catalog and fills it.
type Materializer struct {
	catalog services.Catalog
}

func NewMaterializer(catalog services.Catalog) *Materializer {
	return &Materializer{catalog: catalog}
}

// Materialize creates a private playlist for user named after spec and adds tracks in one batch.
//
// When adding fails the returned [*PlaylistCreationError] carries the playlist that was created.
func (m *Materializer) Materialize(ctx context.Context, user *models.User, spec models.PlaylistSpec, tracks []models.Track, report Reporter) (*models.Playlist, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%w: no user to own the playlist", shared.ErrMissingArgument)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks to add", shared.ErrInvalidArgument)
	}

	report.send(createPlaylistUpdate(spec.Name))

	playlist, err := m.catalog.CreatePlaylist(ctx, user.ID, spec.Name, spec.Description, false)
	if err != nil {
		return nil, &PlaylistCreationError{Step: StepCreate, Err: err}
	}

	if playlist.URL == "" {
		playlist.URL = playlistURLPrefix + playlist.ID
	}

	refs := make([]models.TrackReference, 0, len(tracks))
	for _, t := range tracks {
		refs = append(refs, t.Reference())
	}

	report.send(addTracksUpdate(playlist, len(refs)))

	if err := m.catalog.AddTracks(ctx, playlist.ID, refs); err != nil {
		return nil, &PlaylistCreationError{Step: StepAddTracks, Playlist: playlist, Err: err}
	}

	playlist.Tracks = refs
	return playlist, nil
}
