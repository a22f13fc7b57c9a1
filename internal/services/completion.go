// OpenAI-compatible chat completion transport backed by github.com/sashabaranov/go-openai
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/playgen/internal/shared"
	"github.com/sashabaranov/go-openai"
)

var _ Completer = (*CompletionService)(nil)

// CompletionService sends chat completion requests to an OpenAI-compatible endpoint.
type CompletionService struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewCompletionService builds a client from cfg. A nil httpClient uses the library default.
func NewCompletionService(cfg shared.CompletionConfig, httpClient *http.Client) (*CompletionService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: completion api_key", shared.ErrMissingCredentials)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: completion model must be set", shared.ErrInvalidConfig)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	return &CompletionService{
		client:  openai.NewClientWithConfig(config),
		model:   cfg.Model,
		timeout: cfg.Timeout(),
	}, nil
}

// Model returns the configured model identifier.
func (s *CompletionService) Model() string {
	return s.model
}

// Complete sends req, filling in the configured model when req has none.
func (s *CompletionService) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if req.Model == "" {
		req.Model = s.model
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionResponse{}, mapCompletionError(ctx, err)
	}
	return resp, nil
}

func mapCompletionError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: completion request: %v", shared.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}
