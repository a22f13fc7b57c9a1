package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/playgen/internal/models"
	"github.com/desertthunder/playgen/internal/shared"
	"github.com/desertthunder/playgen/internal/tasks"
	tu "github.com/desertthunder/playgen/internal/testing"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2"
)

// newTestRunner returns a runner over mocks with output captured in the returned buffer.
func newTestRunner(catalog *tu.MockCatalog) (*Runner, *bytes.Buffer) {
	output := &bytes.Buffer{}
	config := shared.DefaultConfig()
	config.Generator.SearchRetries = 0

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Spotify:   catalog,
		Completer: tu.NewMockCompleter(tu.SampleSpec()),
		Logger:    shared.NewLogger(io.Discard),
		Output:    output,
	})
	return runner, output
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := tu.NewMockCatalog()
			completer := tu.NewMockCompleter(tu.SampleSpec())

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Spotify:    catalog,
				Completer:  completer,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.spotify != catalog {
				t.Error("expected spotify to be set")
			}
			if runner.completer != completer {
				t.Error("expected completer to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built from the services")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("without services has no engine", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.engine != nil {
				t.Fatal("expected nil engine")
			}

			err := runner.requireEngine()
			if !errors.Is(err, shared.ErrServiceUnavailable) || !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected unavailable service with missing credentials, got %v", err)
			}
		})
	})

	t.Run("connect", func(t *testing.T) {
		t.Run("builds services from config", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = "id"
			config.Credentials.Spotify.ClientSecret = "secret"
			config.Credentials.Spotify.AccessToken = "access"
			config.Credentials.Completion.APIKey = "key"

			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})
			runner.connect(context.Background())

			if runner.spotify == nil || runner.completer == nil || runner.engine == nil {
				t.Errorf("expected services and engine, got %+v %+v %+v", runner.spotify, runner.completer, runner.engine)
			}
		})

		t.Run("leaves services nil without credentials", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})
			runner.connect(context.Background())

			if runner.spotify != nil || runner.completer != nil || runner.engine != nil {
				t.Error("expected no services without credentials")
			}
		})

		t.Run("keeps injected services", func(t *testing.T) {
			runner, _ := newTestRunner(tu.SampleCatalog())
			catalog := runner.spotify
			runner.connect(context.Background())

			if runner.spotify != catalog {
				t.Error("expected injected catalog to be kept")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("Next steps:")
			if output.String() != "\nNext steps:\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "generate", "tui", "serve"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("saveTokens", func(t *testing.T) {
		t.Run("saves tokens successfully", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")

			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = "test_id"
			config.Credentials.Spotify.ClientSecret = "test_secret"

			if err := shared.SaveConfig(configPath, config); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath})

			token := &oauth2.Token{AccessToken: "new_access_token", RefreshToken: "new_refresh_token"}
			if err := runner.saveTokens(token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loadedConfig, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loadedConfig.Credentials.Spotify.AccessToken != "new_access_token" {
				t.Errorf("expected access token to be updated, got %s", loadedConfig.Credentials.Spotify.AccessToken)
			}
			if loadedConfig.Credentials.Spotify.RefreshToken != "new_refresh_token" {
				t.Errorf("expected refresh token to be updated, got %s", loadedConfig.Credentials.Spotify.RefreshToken)
			}
			if loadedConfig.Credentials.Spotify.ClientID != "test_id" {
				t.Error("expected other settings to be kept")
			}
		})

		t.Run("handles nil config error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/tmp/test.toml"})
			runner.config = nil

			err := runner.saveTokens(&oauth2.Token{AccessToken: "test"})
			if err == nil || !strings.Contains(err.Error(), "config is nil") {
				t.Errorf("expected nil config error, got %v", err)
			}
		})

		t.Run("handles empty configPath", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.saveTokens(&oauth2.Token{AccessToken: "new_token", RefreshToken: "new_refresh"}); err != nil {
				t.Fatalf("expected no error with empty path, got %v", err)
			}
			if config.Credentials.Spotify.AccessToken != "new_token" {
				t.Error("expected config to be updated in memory")
			}
		})

		t.Run("handles SaveConfig failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config:     shared.DefaultConfig(),
				ConfigPath: filepath.Join(t.TempDir(), "missing", "config.toml"),
			})

			err := runner.saveTokens(&oauth2.Token{AccessToken: "test"})
			if err == nil || !strings.Contains(err.Error(), "failed to save config") {
				t.Errorf("expected save config error, got %v", err)
			}
		})

		t.Run("handles Update error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig()})

			err := runner.saveTokens(nil)
			if err == nil || !strings.Contains(err.Error(), "failed to update spotify configuration") {
				t.Fatalf("expected update error, got %v", err)
			}
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials in chain, got %v", err)
			}
		})

		t.Run("keeps refresh token when refreshed token omits it", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Spotify.RefreshToken = "original_refresh"
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.saveTokens(&oauth2.Token{AccessToken: "updated_access"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config.Credentials.Spotify.RefreshToken != "original_refresh" {
				t.Errorf("expected refresh token to be kept, got %q", runner.config.Credentials.Spotify.RefreshToken)
			}
		})

		t.Run("keeps environment secrets out of the config file", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := shared.CreateConfigFile(configPath); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			t.Setenv(shared.EnvCompletionAPIKey, "gsk_from_environment")
			t.Setenv(shared.EnvSpotifyClientSecret, "spotify_secret_from_environment")

			config, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}
			if err := shared.ApplyEnv(config); err != nil {
				t.Fatalf("failed to apply env: %v", err)
			}

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath})
			if err := runner.saveTokens(&oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			data := tu.MustReadFile(t, configPath)
			for _, secret := range []string{"gsk_from_environment", "spotify_secret_from_environment"} {
				if strings.Contains(data, secret) {
					t.Errorf("expected %q not to be written to %s", secret, configPath)
				}
			}
			if !strings.Contains(data, `"access"`) {
				t.Errorf("expected access token in saved config, got:\n%s", data)
			}
			if runner.config.Credentials.Completion.APIKey != "gsk_from_environment" {
				t.Error("expected in-memory config to keep the environment secret")
			}
		})
	})
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("text output", func(t *testing.T) {
		catalog := tu.SampleCatalog()
		runner, output := newTestRunner(catalog)

		err := generateCommand(runner).Run(ctx, []string{"generate", "--prompt", "old songs", "--count", "2"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, want := range []string{
			"Logged in as Test User (user123)",
			"Playlist: Golden Oldies",
			"1. Yesterday by The Beatles",
			"Playlist created: https://open.spotify.com/playlist/playlist-1",
		} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("output missing %q, got:\n%s", want, output.String())
			}
		}

		if created := catalog.Created(); len(created) != 1 || created[0].Public {
			t.Errorf("expected one private playlist, got %+v", created)
		}
	})

	t.Run("json output", func(t *testing.T) {
		runner, output := newTestRunner(tu.SampleCatalog())

		err := generateCommand(runner).Run(ctx, []string{"generate", "-p", "old songs", "-n", "2", "--format", "json"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var decoded struct {
			State    string          `json:"state"`
			Playlist models.Playlist `json:"playlist"`
		}
		if err := json.Unmarshal(output.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, output.String())
		}
		if decoded.State != "done" || decoded.Playlist.ID != "playlist-1" {
			t.Errorf("unexpected result %s", output.String())
		}
	})

	t.Run("output file", func(t *testing.T) {
		runner, output := newTestRunner(tu.SampleCatalog())
		path := filepath.Join(t.TempDir(), "playlist.csv")

		err := generateCommand(runner).Run(ctx, []string{"generate", "-p", "old songs", "-n", "2", "-f", "csv", "-o", path})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.HasPrefix(content, "Position,Song,Artists") {
			t.Errorf("unexpected CSV content:\n%s", content)
		}
		if !strings.Contains(output.String(), "Result written to "+path) {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("output file confirmation failure", func(t *testing.T) {
		runner, _ := newTestRunner(tu.SampleCatalog())
		runner.output = &tu.FWriter{}
		path := filepath.Join(t.TempDir(), "playlist.json")

		err := generateCommand(runner).Run(ctx, []string{"generate", "-p", "old songs", "-n", "2", "-f", "json", "-o", path})
		if err == nil || !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected write error, got %v", err)
		}
		tu.AssertFileExists(t, path)
	})

	t.Run("default count", func(t *testing.T) {
		runner, _ := newTestRunner(tu.SampleCatalog())
		completer := runner.completer.(*tu.MockCompleter)

		if err := generateCommand(runner).Run(ctx, []string{"generate", "-p", "old songs"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		reqs := completer.Requests()
		if len(reqs) != 1 || !strings.Contains(reqs[0].Messages[1].Content, "with 5 songs") {
			t.Errorf("expected default song count in prompt, got %+v", reqs)
		}
	})

	t.Run("invalid count", func(t *testing.T) {
		catalog := tu.SampleCatalog()
		runner, _ := newTestRunner(catalog)

		err := generateCommand(runner).Run(ctx, []string{"generate", "-p", "old songs", "-n", "6"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(catalog.Queries()) != 0 {
			t.Error("invalid request must not search")
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		runner, _ := newTestRunner(tu.SampleCatalog())

		err := generateCommand(runner).Run(ctx, []string{"generate", "-p", "old songs", "-f", "yaml"})
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("unresolved song", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.AddHit("Yesterday The Beatles", models.Track{ID: "t-yesterday", URI: "spotify:track:t-yesterday"})
		runner, output := newTestRunner(catalog)

		err := generateCommand(runner).Run(ctx, []string{"generate", "-p", "old songs", "-n", "2"})

		var notFound *tasks.TrackNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected TrackNotFoundError, got %v", err)
		}
		if !strings.Contains(output.String(), `Error: Could not find "Imagine by John Lennon"`) {
			t.Errorf("expected explained error in output, got:\n%s", output.String())
		}
		if len(catalog.Created()) != 0 {
			t.Error("no playlist should be created")
		}
	})

	t.Run("without services", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})

		err := generateCommand(runner).Run(ctx, []string{"generate", "-p", "old songs"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("cancellation waits for the cycle", func(t *testing.T) {
		for _, terminal := range []bool{false, true} {
			name := "buffer output"
			if terminal {
				name = "terminal output"
			}

			t.Run(name, func(t *testing.T) {
				var output io.Writer = &bytes.Buffer{}
				if terminal {
					f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
					if err != nil {
						t.Skipf("cannot open %s: %v", os.DevNull, err)
					}
					defer f.Close()
					if !isTerminal(f) {
						t.Skipf("%s is not a character device", os.DevNull)
					}
					output = f
				}

				completer := &lingeringCompleter{started: make(chan struct{})}
				runner := NewRunner(RunnerOpts{
					Config:    shared.DefaultConfig(),
					Spotify:   tu.SampleCatalog(),
					Completer: completer,
					Logger:    shared.NewLogger(io.Discard),
					Output:    output,
				})

				ctx, cancel := context.WithCancel(context.Background())
				defer cancel()
				go func() {
					<-completer.started
					cancel()
				}()

				result, err := runner.runCycle(ctx, models.PlaylistRequest{Description: "old songs", SongCount: 2})
				if !errors.Is(err, context.Canceled) {
					t.Fatalf("expected context.Canceled, got %v", err)
				}
				if result.CycleID == "" || result.State != tasks.Failed {
					t.Errorf("expected the engine's failed result, got %+v", result)
				}
				if msg := tasks.Explain(err); msg != "Cancelled." {
					t.Errorf("expected cancellation message, got %q", msg)
				}
			})
		}
	})
}

// lingeringCompleter blocks until its context is cancelled and answers a little later.
type lingeringCompleter struct {
	started chan struct{}
}

func (c *lingeringCompleter) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	close(c.started)
	<-ctx.Done()
	time.Sleep(100 * time.Millisecond)
	return openai.ChatCompletionResponse{}, ctx.Err()
}

func TestAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("status", func(t *testing.T) {
		runner, output := newTestRunner(tu.SampleCatalog())

		if err := runner.AuthStatus(ctx, authCommand(runner).Commands[1]); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "✓ Logged in as Test User (user123)\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("status without session", func(t *testing.T) {
		catalog := tu.SampleCatalog()
		catalog.UserErr = shared.ErrNotAuthenticated
		runner, output := newTestRunner(catalog)

		err := runner.AuthStatus(ctx, authCommand(runner).Commands[1])
		if !errors.Is(err, shared.ErrAuthentication) {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
		if !strings.Contains(output.String(), "playgen auth login") {
			t.Errorf("expected login hint, got %q", output.String())
		}
	})

	t.Run("login without credentials", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})

		err := authCommand(runner).Run(ctx, []string{"auth", "login", "--config", filepath.Join(t.TempDir(), "config.toml")})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("login with catalog lacking OAuth", func(t *testing.T) {
		runner, _ := newTestRunner(tu.SampleCatalog())
		runner.config.Credentials.Spotify.ClientID = "id"
		runner.config.Credentials.Spotify.ClientSecret = "secret"

		err := authCommand(runner).Run(ctx, []string{"auth", "login", "--config", filepath.Join(t.TempDir(), "config.toml")})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.toml")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})

	if err := setupCommand(runner).Run(ctx, []string{"setup", "--config", path}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	tu.AssertFileExists(t, path)
	if !strings.Contains(output.String(), "Config written to "+path) {
		t.Errorf("unexpected output %q", output.String())
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if config.Server.Port != 8502 {
		t.Errorf("expected callback port 8502, got %d", config.Server.Port)
	}

	output.Reset()
	if err := setupCommand(runner).Run(ctx, []string{"setup", "--config", path}); err != nil {
		t.Fatalf("expected no error on existing config, got %v", err)
	}
	if !strings.Contains(output.String(), "Using existing config") {
		t.Errorf("unexpected output %q", output.String())
	}

	t.Run("reports output failures", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}, Logger: shared.NewLogger(io.Discard)})
		fresh := filepath.Join(t.TempDir(), "config.toml")

		err := setupCommand(runner).Run(ctx, []string{"setup", "--config", fresh})
		if err == nil || !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected write error, got %v", err)
		}
	})
}
