package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/topmix/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration file for the user to fill in.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.writePlain("✓ Wrote %s\n", configPath)
	r.writePlain("Fill in your Spotify credentials and session secret, then run: topmix setup database\n")

	return nil
}

// SetupDatabase initializes the SQLite database and applies migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("running migrations on %v", config.Database.Path)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	r.writePlain("✓ Database ready at %s\n", config.Database.Path)

	return nil
}
