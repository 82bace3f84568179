package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/sortifyr/internal/repositories"
	"github.com/desertthunder/sortifyr/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadConfig reads the config at path, creating it from the template when it
// does not exist. Any failure falls back to the defaults.
func (r *Runner) loadConfig(path string) *shared.Config {
	var config *shared.Config
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", path)
			if config, err = shared.LoadConfig(path); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	return config
}

// openDatabase opens the configured database and brings its schema up to date.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// SetupConfig writes a config file populated with the defaults.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.success("Config written to %s", path)
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.success("Database ready at %s", config.Database.Path)
	return nil
}

// SetupSeed loads a seed document into the database.
func (r *Runner) SetupSeed(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	seed, err := repositories.LoadSeed(cmd.String("file"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := repositories.Seed(ctx, db, seed)
	if err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	r.logger.Info("database seeded", "directories", counts.Directories, "playlists", counts.Playlists, "links", counts.Links)
	r.success("Seeded %d directories, %s and %s",
		counts.Directories,
		shared.Plural(counts.Playlists, "playlist"),
		shared.Plural(counts.Links, "link"),
	)
	return nil
}
