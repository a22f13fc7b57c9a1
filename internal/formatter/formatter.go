// package formatter renders generation results to various formats (plain text, Markdown, JSON, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/playgen/internal/models"
	"github.com/desertthunder/playgen/internal/shared"
	"github.com/desertthunder/playgen/internal/tasks"
)

// Format is an output format for a generation result.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	JSON     Format = "json"
	CSV      Format = "csv"
)

// Formats lists the supported formats.
var Formats = []Format{Text, Markdown, JSON, CSV}

// ParseFormat parses a --format flag value. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown, json or csv)", shared.ErrInvalidFlag, s)
	}
}

// Render converts result to the given format.
func Render(result *tasks.GenerationResult, format Format) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no result to render", shared.ErrMissingArgument)
	}

	switch format {
	case Text, "":
		return ResultToText(result), nil
	case Markdown:
		return ResultToMarkdown(result), nil
	case JSON:
		return ResultToJSON(result)
	case CSV:
		return ResultToCSV(result)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// SongList renders the generated songs as a numbered list: "1. Song by Artist, Artist".
func SongList(spec *models.PlaylistSpec) string {
	if spec == nil {
		return ""
	}

	var b strings.Builder
	for i, song := range spec.Songs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, song.Label())
	}
	return b.String()
}

// ResultToText converts a result to plain text
func ResultToText(result *tasks.GenerationResult) []byte {
	var buf bytes.Buffer

	if result.User != nil {
		fmt.Fprintf(&buf, "Logged in as %s\n\n", result.User)
	}

	if spec := result.Spec; spec != nil {
		fmt.Fprintf(&buf, "Playlist: %s\n", spec.Name)
		if spec.Description != "" {
			fmt.Fprintf(&buf, "Description: %s\n", spec.Description)
		}
		fmt.Fprintf(&buf, "Songs: %d\n\n", len(spec.Songs))
		buf.WriteString(SongList(spec))
	}

	if result.Playlist != nil {
		fmt.Fprintf(&buf, "\nPlaylist created: %s\n", result.Playlist.URL)
	}

	if result.Err != nil {
		fmt.Fprintf(&buf, "\nError: %s\n", tasks.Explain(result.Err))
	}

	return buf.Bytes()
}

// ResultToMarkdown converts a result to Markdown
func ResultToMarkdown(result *tasks.GenerationResult) []byte {
	var buf bytes.Buffer

	spec := result.Spec
	if spec == nil {
		buf.WriteString("# Playlist generation failed\n\n")
	} else {
		fmt.Fprintf(&buf, "# %s\n\n", spec.Name)
		if spec.Description != "" {
			fmt.Fprintf(&buf, "**Description**: %s\n\n", spec.Description)
		}
	}

	fmt.Fprintf(&buf, "**Request**: %s\n", result.Request.Description)
	fmt.Fprintf(&buf, "**Songs requested**: %d\n\n", result.Request.SongCount)

	if spec != nil {
		buf.WriteString("## Songs\n\n")
		for i, song := range spec.Songs {
			line := fmt.Sprintf("%d. **%s**", i+1, song.Name)
			if len(song.Artists) > 0 {
				line += " by " + strings.Join(song.Artists, ", ")
			}
			if i < len(result.Tracks) && result.Tracks[i].URL != "" {
				line += fmt.Sprintf(" ([listen](%s))", result.Tracks[i].URL)
			}
			buf.WriteString(line + "\n")
		}
		buf.WriteString("\n")
	}

	if result.Playlist != nil {
		fmt.Fprintf(&buf, "[Open playlist](%s)\n", result.Playlist.URL)
	}

	if result.Err != nil {
		fmt.Fprintf(&buf, "> **Error**: %s\n", tasks.Explain(result.Err))
	}

	return buf.Bytes()
}

type jsonResult struct {
	*tasks.GenerationResult
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// ResultToJSON converts a result to indented JSON, including its state and any error message
func ResultToJSON(result *tasks.GenerationResult) ([]byte, error) {
	out := jsonResult{GenerationResult: result, State: result.State.String()}
	if result.Err != nil {
		out.Error = tasks.Explain(result.Err)
	}
	return shared.MarshalJSON(out, true)
}

// ResultToCSV converts a result to CSV with columns: Position, Song, Artists, Track ID, Track URI, URL
//
// Songs without a resolved track leave the track columns empty.
func ResultToCSV(result *tasks.GenerationResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Song", "Artists", "Track ID", "Track URI", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	if result.Spec != nil {
		for i, song := range result.Spec.Songs {
			record := []string{strconv.Itoa(i + 1), song.Name, strings.Join(song.Artists, ", "), "", "", ""}
			if i < len(result.Tracks) {
				track := result.Tracks[i]
				record[3], record[4], record[5] = track.ID, track.URI, track.URL
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Write renders result and writes it to w.
func Write(w io.Writer, result *tasks.GenerationResult, format Format) error {
	data, err := Render(result, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteFile renders result to the file at path.
func WriteFile(path string, result *tasks.GenerationResult, format Format) error {
	data, err := Render(result, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
