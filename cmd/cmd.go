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

// setupCommand handles database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// rowsCommand manages the tracking table.
func rowsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "rows",
		Usage: "Manage tracked playlist rows",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tracked rows",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.RowsList,
			},
			{
				Name:  "add",
				Usage: "Track a destination playlist with one or more sources",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "playlist",
						Usage:    "Destination playlist ID",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Source token: channel ID, playlist ID, username, or ALL (repeatable)",
						Required: true,
					},
					&cli.FloatFlag{
						Name:  "frequency",
						Usage: "Minimum hours between syncs (0 = every run)",
					},
					&cli.IntFlag{
						Name:  "retention",
						Usage: "Delete videos older than this many days (0 = keep forever)",
					},
				},
				Action: r.RowsAdd,
			},
			{
				Name:  "remove",
				Usage: "Stop tracking a row by position",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:     "position",
						Usage:    "1-based row position",
						Required: true,
					},
				},
				Action: r.RowsRemove,
			},
		},
	}
}

// syncCommand runs the synchronization engine.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize subscriptions into playlists",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one sync pass over the tracking table",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "row",
						Usage: "Only sync the row at this position",
					},
					&cli.BoolFlag{
						Name:  "skip-checkpoint",
						Usage: "Debug: leave checkpoints untouched",
					},
					&cli.BoolFlag{
						Name:  "skip-inserts",
						Usage: "Debug: record an error instead of mutating playlists",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SyncRun,
			},
		},
	}
}

// logsCommand browses past run logs.
func logsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Browse execution logs of past runs",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List recent run timestamps",
				Flags:  []cli.Flag{configFlag()},
				Action: r.LogsList,
			},
			{
				Name:  "show",
				Usage: "Show the log lines of one run",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "run",
					},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.LogsShow,
			},
			{
				Name:    "ui",
				Aliases: []string{"interactive"},
				Usage:   "Interactive TUI for browsing run logs",
				Flags:   []cli.Flag{configFlag()},
				Action:  r.LogsUI,
			},
		},
	}
}

// serveCommand starts the web trigger service.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP trigger server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (overrides config)",
			},
		},
		Action: r.Serve,
	}
}
