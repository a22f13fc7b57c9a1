// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/playgen/internal/models"
	"github.com/sashabaranov/go-openai"
)

// CreatedPlaylist records a call to [MockCatalog.CreatePlaylist].
type CreatedPlaylist struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Public      bool
}

// MockCatalog is a test double for [services.Catalog].
//
// Search hits are keyed by the exact query string. Every call is recorded.
type MockCatalog struct {
	User       *models.User
	UserErr    error
	Hits       map[string][]models.Track
	SearchErr  error
	SearchErrs []error // consumed one per search before SearchErr and Hits are consulted
	CreateErr  error
	AddErr     error

	mu      sync.Mutex
	queries []string
	created []CreatedPlaylist
	added   map[string][]models.TrackReference
}

// NewMockCatalog returns a catalog logged in as "user123".
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		User: &models.User{ID: "user123", DisplayName: "Test User"},
		Hits: map[string][]models.Track{},
	}
}

// AddHit registers tracks as the results for query.
func (m *MockCatalog) AddHit(query string, tracks ...models.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Hits == nil {
		m.Hits = map[string][]models.Track{}
	}
	m.Hits[query] = append(m.Hits[query], tracks...)
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	return m.User, nil
}

func (m *MockCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, query)

	if len(m.SearchErrs) > 0 {
		err := m.SearchErrs[0]
		m.SearchErrs = m.SearchErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	hits := m.Hits[query]
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return append([]models.Track(nil), hits...), nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	id := fmt.Sprintf("playlist-%d", len(m.created)+1)
	m.created = append(m.created, CreatedPlaylist{
		ID:          id,
		UserID:      userID,
		Name:        name,
		Description: description,
		Public:      public,
	})

	return &models.Playlist{
		ID:          id,
		Name:        name,
		Description: description,
		URL:         "https://open.spotify.com/playlist/" + id,
		Public:      public,
	}, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, refs []models.TrackReference) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.added == nil {
		m.added = map[string][]models.TrackReference{}
	}
	m.added[playlistID] = append(m.added[playlistID], refs...)
	return m.AddErr
}

// Queries returns the search queries received so far, in order.
func (m *MockCatalog) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Created returns the playlists created so far, in order.
func (m *MockCatalog) Created() []CreatedPlaylist {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CreatedPlaylist(nil), m.created...)
}

// Added returns the references added to playlistID.
func (m *MockCatalog) Added(playlistID string) []models.TrackReference {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TrackReference(nil), m.added[playlistID]...)
}

// MockCompleter is a test double for [services.Completer].
type MockCompleter struct {
	Response openai.ChatCompletionResponse
	Err      error

	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
}

// NewMockCompleter returns a completer that always answers with a single create_playlist call for spec.
func NewMockCompleter(spec models.PlaylistSpec) *MockCompleter {
	return &MockCompleter{Response: ToolCallResponse(SpecArguments(spec))}
}

func (m *MockCompleter) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	if m.Err != nil {
		return openai.ChatCompletionResponse{}, m.Err
	}
	return m.Response, nil
}

// Requests returns the requests received so far.
func (m *MockCompleter) Requests() []openai.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]openai.ChatCompletionRequest(nil), m.requests...)
}

// ToolCallResponse builds a response whose first choice carries one create_playlist tool call per arguments value.
func ToolCallResponse(arguments ...string) openai.ChatCompletionResponse {
	calls := make([]openai.ToolCall, 0, len(arguments))
	for i, args := range arguments {
		calls = append(calls, openai.ToolCall{
			ID:   fmt.Sprintf("call_%d", i+1),
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      "create_playlist",
				Arguments: args,
			},
		})
	}

	return openai.ChatCompletionResponse{
		ID: "chatcmpl-test",
		Choices: []openai.ChatCompletionChoice{
			{
				Index:        0,
				FinishReason: openai.FinishReasonToolCalls,
				Message: openai.ChatCompletionMessage{
					Role:      openai.ChatMessageRoleAssistant,
					ToolCalls: calls,
				},
			},
		},
	}
}

// SpecArguments encodes spec as create_playlist arguments.
func SpecArguments(spec models.PlaylistSpec) string {
	data, err := json.Marshal(spec)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// SampleSpec returns a two song spec whose queries are "Yesterday The Beatles" and "Imagine John Lennon".
func SampleSpec() models.PlaylistSpec {
	return models.PlaylistSpec{
		Name:        "Golden Oldies",
		Description: "Timeless classics",
		Songs: []models.SongSpec{
			{Name: "Yesterday", Artists: []string{"The Beatles"}},
			{Name: "Imagine", Artists: []string{"John Lennon"}},
		},
	}
}

// SampleCatalog returns a catalog with hits for every song in [SampleSpec].
func SampleCatalog() *MockCatalog {
	c := NewMockCatalog()
	c.AddHit("Yesterday The Beatles", models.Track{
		ID: "t-yesterday", URI: "spotify:track:t-yesterday", Title: "Yesterday", Artists: []string{"The Beatles"},
	})
	c.AddHit("Imagine John Lennon", models.Track{
		ID: "t-imagine", URI: "spotify:track:t-imagine", Title: "Imagine", Artists: []string{"John Lennon"},
	})
	return c
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
