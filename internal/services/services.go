// package services defines the interfaces for the external collaborators of a generation cycle
//
// Spotify (catalog), OpenAI-compatible chat completions (Groq)
package services

import (
	"context"

	"github.com/desertthunder/playgen/internal/models"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2"
)

// Catalog defines the four music service capabilities a generation cycle needs.
type Catalog interface {
	// CurrentUser returns the authenticated user.
	CurrentUser(ctx context.Context) (*models.User, error)

	// SearchTracks searches the catalog by free text and returns at most limit ranked hits.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends refs to the playlist, in order, as a single batch.
	AddTracks(ctx context.Context, playlistID string, refs []models.TrackReference) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends [Catalog] for providers using the OAuth2 authorization code flow.
type OAuthService interface {
	Catalog

	// GetAuthURL returns the URL the user visits to approve access.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the [oauth2.Config] used by the callback handler to exchange codes.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate configures the service with a token obtained from the authorization flow.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}

// Completer sends a chat completion request.
type Completer interface {
	Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}
