// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the playlist HTTP API",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "prune-interval",
				Usage: "How often expired rate limit entries are removed",
				Value: time.Hour,
			},
		},
		Action: r.Serve,
	}
}

// songsCommand handles song list operations
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Song list operations",
		Commands: []*cli.Command{
			{
				Name:  "normalize",
				Usage: "Parse free text into song descriptors",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SongsNormalize,
			},
			{
				Name:  "enrich",
				Usage: "Correct, analyze or order a song list with the text generation service",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "phase",
						Aliases: []string{"p"},
						Usage:   "Enrichment phases to run, in order (correct, analyze, order)",
						Value:   []string{"correct"},
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SongsEnrich,
			},
		},
	}
}

// playlistCommand handles playlist creation
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a playlist from a song list file (or stdin)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "platform",
						Aliases: []string{"P"},
						Usage:   "Target platform (spotify or youtube)",
						Value:   "spotify",
					},
					&cli.StringFlag{
						Name:    "token",
						Aliases: []string{"t"},
						Usage:   "Session token from 'setlist auth'",
						Sources: cli.EnvVars("SETLIST_SESSION"),
					},
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Playlist name",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.StringSliceFlag{
						Name:  "enrich",
						Usage: "Enrichment phases to run before assembly (correct, analyze, order)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Report format (json, csv, markdown, txt)",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the report to a file instead of stdout",
					},
					&cli.BoolFlag{
						Name:    "interactive",
						Aliases: []string{"i"},
						Usage:   "Preview, confirm and follow progress in a terminal UI",
					},
				},
				Action: r.PlaylistCreate,
			},
		},
	}
}

// authCommand handles sign-in
func authCommand(r *Runner) *cli.Command {
	flags := func() []cli.Flag {
		return []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: 2 * time.Minute,
			},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in and mint a session token",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Sign in with Spotify using OAuth2",
				Flags:  flags(),
				Action: r.AuthSpotify,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt", "google"},
				Usage:   "Sign in with Google for YouTube Music using OAuth2",
				Flags:   flags(),
				Action:  r.AuthYouTube,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
