package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/topmix/internal/auth"
	"github.com/desertthunder/topmix/internal/repositories"
	"github.com/desertthunder/topmix/internal/services"
	"github.com/desertthunder/topmix/internal/shared"
	"github.com/desertthunder/topmix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistCommand, sweepCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration for a command: the Runner's
// preloaded config, or the file named by the --config flag. Validation
// failures abort the command before any network or database work.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	config := r.config

	if config == nil {
		configPath := cmd.String("config")
		if configPath == "" {
			configPath = "config.toml"
		}

		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrMissingConfig, err)
		}
		config = loaded
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// deps bundles the wired dependencies most commands need.
type deps struct {
	config  *shared.Config
	db      *sql.DB
	store   repositories.CredentialStore
	service *services.SpotifyService
	tokens  *auth.TokenManager
	mode    tasks.NamingMode
}

// build wires the credential store, Spotify service, and token manager
// from configuration. The returned closer releases the database handle.
func (r *Runner) build(cmd *cli.Command) (*deps, func(), error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	mode, err := tasks.ParseNamingMode(config.Playlist.NamingMode)
	if err != nil {
		return nil, nil, err
	}

	service, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
	if err != nil {
		return nil, nil, err
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	store := repositories.NewCredentialRepository(db)
	tokens := auth.NewTokenManager(store, service.GetOAuthConfig(), service)

	d := &deps{
		config:  config,
		db:      db,
		store:   store,
		service: service,
		tokens:  tokens,
		mode:    mode,
	}

	return d, func() { db.Close() }, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
