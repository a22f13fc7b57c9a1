package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/desertthunder/playgen/internal/formatter"
	"github.com/desertthunder/playgen/internal/models"
	"github.com/desertthunder/playgen/internal/shared"
	"github.com/desertthunder/playgen/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Generate runs one generation cycle and writes the result in the requested format.
//
// Missing --prompt or --count values are asked for with a form when stdin is a terminal.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if err := r.requireEngine(); err != nil {
		return err
	}

	description := cmd.String("prompt")
	count := cmd.Int("count")

	if strings.TrimSpace(description) == "" {
		if !isTerminal(os.Stdin) {
			return fmt.Errorf("%w: --prompt is required when not running in a terminal", shared.ErrMissingArgument)
		}
		if count == 0 {
			count = r.config.Generator.DefaultSongCount
		}
		if err := promptRequest(&description, &count); err != nil {
			return err
		}
	}
	if count == 0 {
		count = r.config.Generator.DefaultSongCount
	}

	req, err := models.NewPlaylistRequest(description, count)
	if err != nil {
		return err
	}

	result, runErr := r.runCycle(ctx, req)

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, result, format); err != nil {
			return errors.Join(runErr, err)
		}
		if err := r.writePlain("✓ Result written to %s\n", path); err != nil {
			return errors.Join(runErr, err)
		}
	} else if err := formatter.Write(r.output, result, format); err != nil {
		return errors.Join(runErr, err)
	}

	return runErr
}

// runCycle runs the engine, behind a spinner when output goes to a terminal. Progress is logged at debug level.
//
// The spinner stops as soon as ctx is cancelled; the cycle is still waited for so progress is only closed
// once the engine can no longer send on it.
func (r *Runner) runCycle(ctx context.Context, req models.PlaylistRequest) (*tasks.GenerationResult, error) {
	progress := make(chan tasks.ProgressUpdate, 50)
	logged := make(chan struct{})
	go func() {
		defer close(logged)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	var (
		result *tasks.GenerationResult
		runErr error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		result, runErr = r.engine.Run(ctx, req, progress)
	}()

	if isTerminal(r.output) {
		wait := func() { <-finished }
		if err := spinner.New().Title("Generating playlist...").Context(ctx).Action(wait).Run(); err != nil {
			r.logger.Debug("spinner stopped", "error", err)
		}
	}

	<-finished
	close(progress)
	<-logged

	if result == nil {
		result = &tasks.GenerationResult{Request: req, State: tasks.Failed, Err: runErr}
	}
	return result, runErr
}

// promptRequest asks for the description and song count.
func promptRequest(description *string, count *int) error {
	options := make([]huh.Option[int], 0, models.MaxSongs)
	for n := models.MinSongs; n <= models.MaxSongs; n++ {
		options = append(options, huh.NewOption(fmt.Sprint(n), n))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Describe the music you'd like to hear..").
				Value(description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("description cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[int]().
				Title("Songs").
				Options(options...).
				Value(count),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return context.Canceled
		}
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
