package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/wabridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates a starter config file and the session directory.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
	} else {
		r.logger.Info("creating config file from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
	}
	config.FromEnv()

	if err := os.MkdirAll(config.WhatsApp.SessionDir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	r.logger.Info("session directory ready", "path", config.WhatsApp.SessionDir)

	r.warnMissing(config)

	r.writePlain("✓ Configuration ready at %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set API_KEY, SHEET_ID and GOOGLE_APPLICATION_CREDENTIALS_BASE64 (or edit %s)\n", configPath)
	r.writePlain("2. Run 'wabridge serve' and scan the pairing code\n")
	r.writePlain("3. Run 'wabridge send --template \"Hi {name}!\"' to start a batch\n")

	return nil
}
