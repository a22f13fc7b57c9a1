package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/playgen/internal/models"
	"github.com/desertthunder/playgen/internal/shared"
	"github.com/desertthunder/playgen/internal/tasks"
	th "github.com/desertthunder/playgen/internal/testing"
)

func successResult() *tasks.GenerationResult {
	spec := th.SampleSpec()
	return &tasks.GenerationResult{
		CycleID: "cycle-1",
		Request: models.PlaylistRequest{Description: "old songs", SongCount: 2},
		User:    &models.User{ID: "user123", DisplayName: "Test User"},
		Spec:    &spec,
		Tracks: []models.Track{
			{ID: "t-yesterday", URI: "spotify:track:t-yesterday", URL: "https://open.spotify.com/track/t-yesterday"},
			{ID: "t-imagine", URI: "spotify:track:t-imagine"},
		},
		Playlist: &models.Playlist{ID: "pl1", Name: spec.Name, URL: "https://open.spotify.com/playlist/pl1"},
		State:    tasks.Done,
	}
}

func failedResult() *tasks.GenerationResult {
	spec := th.SampleSpec()
	return &tasks.GenerationResult{
		CycleID: "cycle-2",
		Request: models.PlaylistRequest{Description: "old songs", SongCount: 2},
		Spec:    &spec,
		State:   tasks.Failed,
		Err:     &tasks.TrackNotFoundError{Song: spec.Songs[1], Query: spec.Songs[1].Query()},
	}
}

func TestFormatters(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		tests := map[string]Format{"": Text, "text": Text, "MD": Markdown, "markdown": Markdown, "json": JSON, " csv ": CSV}
		for in, want := range tests {
			got, err := ParseFormat(in)
			if err != nil || got != want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
			}
		}

		if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("ResultToText", func(t *testing.T) {
		t.Run("success", func(t *testing.T) {
			output := string(ResultToText(successResult()))

			for _, want := range []string{
				"Logged in as Test User (user123)",
				"Playlist: Golden Oldies",
				"Description: Timeless classics",
				"1. Yesterday by The Beatles",
				"2. Imagine by John Lennon",
				"Playlist created: https://open.spotify.com/playlist/pl1",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("text output missing %q, got:\n%s", want, output)
				}
			}
			if strings.Contains(output, "Error") {
				t.Errorf("unexpected error in output:\n%s", output)
			}
		})

		t.Run("failure", func(t *testing.T) {
			output := string(ResultToText(failedResult()))
			if !strings.Contains(output, `Error: Could not find "Imagine by John Lennon"`) {
				t.Errorf("expected explained error, got:\n%s", output)
			}
			if strings.Contains(output, "Playlist created") {
				t.Error("failed result should not report a playlist")
			}
		})
	})

	t.Run("ResultToMarkdown", func(t *testing.T) {
		output := string(ResultToMarkdown(successResult()))

		for _, want := range []string{
			"# Golden Oldies",
			"**Description**: Timeless classics",
			"**Request**: old songs",
			"## Songs",
			"1. **Yesterday** by The Beatles ([listen](https://open.spotify.com/track/t-yesterday))",
			"2. **Imagine** by John Lennon\n",
			"[Open playlist](https://open.spotify.com/playlist/pl1)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown output missing %q, got:\n%s", want, output)
			}
		}

		failed := failedResult()
		failed.Spec = nil
		output = string(ResultToMarkdown(failed))
		if !strings.HasPrefix(output, "# Playlist generation failed") || !strings.Contains(output, "> **Error**") {
			t.Errorf("unexpected failure markdown:\n%s", output)
		}
	})

	t.Run("ResultToJSON", func(t *testing.T) {
		data, err := ResultToJSON(successResult())
		if err != nil {
			t.Fatalf("ResultToJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["state"] != "done" || decoded["cycle_id"] != "cycle-1" {
			t.Errorf("unexpected JSON %s", data)
		}
		if _, ok := decoded["error"]; ok {
			t.Error("successful result should have no error field")
		}

		data, _ = ResultToJSON(failedResult())
		if !strings.Contains(string(data), `"state": "failed"`) || !strings.Contains(string(data), `"error":`) {
			t.Errorf("expected failed state and error, got %s", data)
		}
	})

	t.Run("ResultToCSV", func(t *testing.T) {
		data, err := ResultToCSV(successResult())
		if err != nil {
			t.Fatalf("ResultToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d:\n%s", len(lines), data)
		}
		if lines[0] != "Position,Song,Artists,Track ID,Track URI,URL" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[1] != "1,Yesterday,The Beatles,t-yesterday,spotify:track:t-yesterday,https://open.spotify.com/track/t-yesterday" {
			t.Errorf("unexpected first row %q", lines[1])
		}

		data, _ = ResultToCSV(failedResult())
		lines = strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[2] != "2,Imagine,John Lennon,,," {
			t.Errorf("unresolved rows should leave track columns empty, got %q", lines[2])
		}
	})

	t.Run("Render", func(t *testing.T) {
		for _, f := range Formats {
			if _, err := Render(successResult(), f); err != nil {
				t.Errorf("Render(%s) failed: %v", f, err)
			}
		}
		if _, err := Render(nil, Text); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := Render(successResult(), Format("xml")); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Write", func(t *testing.T) {
		var sb strings.Builder
		if err := Write(&sb, successResult(), Text); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.Contains(sb.String(), "Golden Oldies") {
			t.Errorf("unexpected output %s", sb.String())
		}

		if err := Write(&th.FWriter{}, successResult(), Text); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("WriteFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "playlist.md")
		if err := WriteFile(path, successResult(), Markdown); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "# Golden Oldies") {
			t.Errorf("unexpected file content:\n%s", content)
		}

		if err := WriteFile(filepath.Join(t.TempDir(), "missing", "out.txt"), successResult(), Text); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("SongList", func(t *testing.T) {
		spec := th.SampleSpec()
		if got := SongList(&spec); got != "1. Yesterday by The Beatles\n2. Imagine by John Lennon\n" {
			t.Errorf("unexpected song list %q", got)
		}
		if SongList(nil) != "" {
			t.Error("expected empty list for nil spec")
		}
	})
}
