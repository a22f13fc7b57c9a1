package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/playgen/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the configuration template to the config path, leaving an existing file untouched.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
		return r.writePlain("✓ Using existing config at %s\n", configPath)
	}

	r.logger.Info("config file not found, creating from template", "path", configPath)
	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return r.writePlain("✓ Config written to %s\n\nNext steps:\n"+
		"1. Set %s and %s (or add them to %s)\n"+
		"2. Set %s for the completion API\n"+
		"3. Run 'playgen auth login'\n",
		configPath, shared.EnvSpotifyClientID, shared.EnvSpotifyClientSecret, configPath, shared.EnvCompletionAPIKey)
}
