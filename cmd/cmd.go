// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootCommand builds the personify CLI. --config and --verbose are visible to every subcommand.
func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "personify",
		Usage:   "Roast your Spotify top tracks",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Load,
		Commands: r.register(),
	}
}

// setupCommand handles setup operations for configuration and the session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// roastFlags are shared by every roast subcommand.
func roastFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Output PNG path",
			Value:   "critique.png",
		},
		&cli.StringFlag{
			Name:  "export",
			Usage: "Directory for a Markdown export (README.md, roast.json, critique.png)",
		},
		&cli.StringFlag{
			Name:  "text",
			Usage: "Write the critique as plain text to this path",
		},
		&cli.StringFlag{
			Name:  "csv",
			Usage: "Write the track list as CSV to this path",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the result as JSON",
		},
		&cli.BoolFlag{
			Name:  "plain",
			Usage: "Print progress as lines instead of the interactive view",
		},
	}
}

// roastCommand generates and renders critiques
func roastCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "roast",
		Usage: "Critique a music taste and render it as an image",
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "Roast a JSON list of {\"name\", \"artist\"} tracks",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Tracks JSON file",
						Required: true,
					},
				}, roastFlags()...),
				Action: r.RoastTracks,
			},
			{
				Name:  "render",
				Usage: "Render an existing critique without calling the AI provider",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "critique",
						Usage:    "Critique text file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Tracks JSON file",
						Required: true,
					},
				}, roastFlags()...),
				Action: r.RoastRender,
			},
			{
				Name:    "spotify",
				Aliases: []string{"spot"},
				Usage:   "Authorize with Spotify and roast your top tracks",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of top tracks to fetch",
						Value: 10,
					},
				}, roastFlags()...),
				Action: r.RoastSpotify,
			},
		},
	}
}

// serveCommand runs the web service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web service (/login, /callback, /get-critique, /get-image)",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override [server] port",
			},
		},
		Action: r.Serve,
	}
}
