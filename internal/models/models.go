// package models defines the data model for the playlist generator
package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/playgen/internal/shared"
)

// Bounds on the number of songs a user may request.
const (
	MinSongs = 1
	MaxSongs = 5
)

// PlaylistRequest is the user's free-text music preference and desired song count.
type PlaylistRequest struct {
	Description string `json:"description"`
	SongCount   int    `json:"song_count"`
}

// NewPlaylistRequest trims the description and validates the request.
func NewPlaylistRequest(description string, songCount int) (PlaylistRequest, error) {
	req := PlaylistRequest{Description: strings.TrimSpace(description), SongCount: songCount}
	if err := req.Validate(); err != nil {
		return PlaylistRequest{}, err
	}
	return req, nil
}

// Validate checks the description is present and the song count is within [MinSongs, MaxSongs].
func (r PlaylistRequest) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description must not be empty", shared.ErrInvalidInput)
	}
	if r.SongCount < MinSongs || r.SongCount > MaxSongs {
		return fmt.Errorf("%w: song count must be between %d and %d, got %d", shared.ErrInvalidInput, MinSongs, MaxSongs, r.SongCount)
	}
	return nil
}

// SongSpec is a song the model asked for; it is not yet tied to a catalog entry.
type SongSpec struct {
	Name    string   `json:"song_name"`
	Artists []string `json:"artists"`
}

// Query builds the catalog search query: the song name followed by the comma-joined artists.
func (s SongSpec) Query() string {
	return strings.TrimSpace(s.Name + " " + strings.Join(s.Artists, ","))
}

// Label renders the song for display, e.g. "Imagine by John Lennon".
func (s SongSpec) Label() string {
	if len(s.Artists) == 0 {
		return s.Name
	}
	return fmt.Sprintf("%s by %s", s.Name, strings.Join(s.Artists, ", "))
}

// PlaylistSpec is the structured answer returned by the completion service.
type PlaylistSpec struct {
	Name        string     `json:"playlist_name"`
	Description string     `json:"playlist_description"`
	Songs       []SongSpec `json:"songs"`
}

// TrackReference identifies a single recording in the catalog.
type TrackReference struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// Track is a catalog search hit.
type Track struct {
	ID      string   `json:"id"`
	URI     string   `json:"uri"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// Reference returns the track's [TrackReference].
func (t Track) Reference() TrackReference {
	return TrackReference{ID: t.ID, URI: t.URI}
}

// Playlist is a playlist created in the catalog.
type Playlist struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	URL         string           `json:"url"`
	Public      bool             `json:"public"`
	Tracks      []TrackReference `json:"tracks"`
}

// User is the authenticated catalog account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// String renders the user as "Display Name (id)".
func (u User) String() string {
	if u.DisplayName == "" {
		return u.ID
	}
	return fmt.Sprintf("%s (%s)", u.DisplayName, u.ID)
}
