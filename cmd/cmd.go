// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

// setupCommand handles setup operations for the configuration and local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml populated with defaults",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "seed",
				Usage: "Load directories, playlists and links from a JSON dump",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Seed file (the output of 'api dump')",
						Required: true,
					},
				},
				Action: r.SetupSeed,
			},
		},
	}
}

// serveCommand runs the local backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the link, directory and playlist API from the local database",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// apiCommand handles direct calls to the backend API
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Dump directories, playlists and links as a seed document",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also save the dump to this file",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

func refFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "from",
			Usage:    "Source entity, e.g. directory:12 or playlist:7",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "to",
			Usage:    "Target entity, e.g. directory:12 or playlist:7",
			Required: true,
		},
	}
}

// linksCommand handles link operations
func linksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "links",
		Aliases: []string{"link", "l"},
		Usage:   "Inspect, export and edit links",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List links with entity names",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.LinksList,
			},
			{
				Name:  "tree",
				Usage: "Show the directory tree with link counts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "root",
						Usage: "Label of the tree root",
						Value: "Library",
					},
				},
				Action: r.LinksTree,
			},
			{
				Name:  "export",
				Usage: "Export links to csv, md, txt, svg or json",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format, repeat for several (csv, md, txt, svg, json)",
						Value:   []string{"csv"},
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every format",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file for one format, directory for several",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers when exporting several formats",
						Value: 3,
					},
					&cli.BoolFlag{
						Name:  "clipboard",
						Usage: "Copy a single format to the clipboard instead of writing a file",
					},
				},
				Action: r.LinksExport,
			},
			{
				Name:  "render",
				Usage: "Render the two-column link diagram as SVG",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "links.svg",
					},
				},
				Action: r.LinksRender,
			},
			{
				Name:  "plan",
				Usage: "Expand links into playlist-to-playlist routes",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.LinksPlan,
			},
			{
				Name:   "add",
				Usage:  "Link a source entity to a target entity and save",
				Flags:  refFlags(),
				Action: r.LinksAdd,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove the link between two entities and save",
				Flags:   refFlags(),
				Action:  r.LinksRemove,
			},
		},
	}
}

// editCommand returns the top-level TUI command for interactive link editing.
func editCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "edit",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive link editor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "File receiving log output while the editor runs",
				Value: "./tmp/sortifyr-tui.log",
			},
		},
		Action: r.Edit,
	}
}
