package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config file values.
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvCompletionAPIKey    = "GROQ_API_KEY"
	EnvCompletionModel     = "COMPLETION_MODEL"
	EnvCompletionBaseURL   = "COMPLETION_BASE_URL"
	EnvSearchRetries       = "PLAYGEN_SEARCH_RETRIES"
)

// LoadEnv loads KEY=VALUE pairs from the given dotenv files into the process environment.
//
// Missing files are skipped; variables already set in the environment win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with any set environment variables.
func ApplyEnv(config *Config) error {
	setString(&config.Credentials.Spotify.ClientID, EnvSpotifyClientID)
	setString(&config.Credentials.Spotify.ClientSecret, EnvSpotifyClientSecret)
	setString(&config.Credentials.Completion.APIKey, EnvCompletionAPIKey)
	setString(&config.Credentials.Completion.Model, EnvCompletionModel)
	setString(&config.Credentials.Completion.BaseURL, EnvCompletionBaseURL)

	if v := os.Getenv(EnvSearchRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvSearchRetries, v)
		}
		config.Generator.SearchRetries = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
