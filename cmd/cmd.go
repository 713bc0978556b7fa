// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "External user id (defaults to the only stored user)",
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml scaffold to fill in",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize a Spotify account using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "List stored credentials and their expiry",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete a stored credential",
				Flags:  []cli.Flag{configFlag(), userFlag()},
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistCommand handles managed playlist operations
func playlistCommand(r *Runner) *cli.Command {
	outputFlags := []cli.Flag{
		configFlag(),
		userFlag(),
		&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
	}

	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage the top-tracks playlist",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show whether the managed playlist exists",
				Flags:  outputFlags,
				Action: r.PlaylistStatus,
			},
			{
				Name:   "create",
				Usage:  "Create the playlist if it does not exist",
				Flags:  outputFlags,
				Action: r.PlaylistCreate,
			},
			{
				Name:   "update",
				Usage:  "Refresh the playlist name and track list",
				Flags:  outputFlags,
				Action: r.PlaylistUpdate,
			},
			{
				Name:   "delete",
				Usage:  "Unfollow the managed playlist",
				Flags:  outputFlags,
				Action: r.PlaylistDelete,
			},
		},
	}
}

// sweepCommand runs the scheduled update across all stored users
func sweepCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Refresh playlists for every stored user",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
			&cli.BoolFlag{Name: "ui", Usage: "Interactive progress view"},
		},
		Action: r.Sweep,
	}
}

// serveCommand starts the web application
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the web application",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}
