// Spotify implementation of [Catalog] backed by github.com/zmb3/spotify/v2
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/playgen/internal/models"
	"github.com/desertthunder/playgen/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	defaultRedirectURI = "http://localhost:8502/callback"
	playlistURLPrefix  = "https://open.spotify.com/playlist/"
)

var _ OAuthService = (*SpotifyService)(nil)

// SpotifyService implements [Catalog] for the Spotify Web API.
type SpotifyService struct {
	config         *oauth2.Config
	client         *spotify.Client
	token          *oauth2.Token
	baseURL        string
	onTokenRefresh func(*oauth2.Token)
	mu             sync.Mutex
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithSpotifyBaseURL points the API client at an alternative base URL.
func WithSpotifyBaseURL(url string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = url }
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// The service requests the scopes needed to read the user profile and write private playlists.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes: []string{
				spotifyauth.ScopeUserReadPrivate,
				spotifyauth.ScopePlaylistModifyPrivate,
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the underlying [oauth2.Config].
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers fn to receive every new token issued by the token source.
//
// Must be called before [SpotifyService.OAuthenticate] to take effect.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTokenRefresh = fn
}

// Authenticate accepts either an "access_token" or an "auth_code" to exchange.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken := credentials["access_token"]; accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		})
	}

	if authCode := credentials["auth_code"]; authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrMissingCredentials)
}

// OAuthenticate builds the API client from token. Expired tokens are refreshed transparently.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: no token", shared.ErrNotAuthenticated)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
		last:     token,
	}
	httpClient := oauth2.NewClient(ctx, source)

	opts := []spotify.ClientOption{spotify.WithRetry(true)}
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}

	s.token = token
	s.client = spotify.New(httpClient, opts...)
	return nil
}

func (s *SpotifyService) api() (*spotify.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, fmt.Errorf("%w: run 'playgen auth login' first", shared.ErrNotAuthenticated)
	}
	return s.client, nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, mapSpotifyError(err)
	}

	return &models.User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// SearchTracks searches for tracks matching query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 50 {
		limit = 50
	}

	results, err := client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, mapSpotifyError(err)
	}

	if results.Tracks == nil {
		return []models.Track{}, nil
	}

	tracks := make([]models.Track, 0, len(results.Tracks.Tracks))
	for _, item := range results.Tracks.Tracks {
		artists := make([]string, 0, len(item.Artists))
		for _, artist := range item.Artists {
			artists = append(artists, artist.Name)
		}

		tracks = append(tracks, models.Track{
			ID:      string(item.ID),
			URI:     string(item.URI),
			Title:   item.Name,
			Artists: artists,
			Album:   item.Album.Name,
			URL:     item.ExternalURLs["spotify"],
		})
	}

	return tracks, nil
}

// CreatePlaylist creates a non-collaborative playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	p, err := client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, mapSpotifyError(err)
	}

	url := p.ExternalURLs["spotify"]
	if url == "" {
		url = playlistURLPrefix + string(p.ID)
	}

	return &models.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		URL:         url,
		Public:      p.IsPublic,
	}, nil
}

// AddTracks appends refs to playlistID in one request. Spotify accepts at most 100 items per call.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, refs []models.TrackReference) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	if len(refs) > 100 {
		return fmt.Errorf("%w: at most 100 tracks can be added at once, got %d", shared.ErrInvalidArgument, len(refs))
	}

	ids := make([]spotify.ID, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, spotify.ID(ref.ID))
	}

	if _, err := client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return mapSpotifyError(err)
	}
	return nil
}

// mapSpotifyError converts API and token errors into shared sentinels.
func mapSpotifyError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: token refresh failed: %v", shared.ErrTokenExpired, err)
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		return &shared.StatusError{Status: apiErr.Status, Err: fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)}
	}

	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports tokens it has not seen before.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     *oauth2.Token
	mu       sync.Mutex
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := r.last == nil || r.last.AccessToken != token.AccessToken
	r.last = token
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}
