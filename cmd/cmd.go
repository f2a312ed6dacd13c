// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging",
	}
}

// serveCommand runs the messaging API server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the messaging API server",
		Flags: []cli.Flag{
			configFlag(),
			verboseFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override the listen port",
			},
		},
		Action: r.Serve,
	}
}

// sendCommand posts a message template to a running server.
func sendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Send a templated message to every contact in the sheet",
		Flags: []cli.Flag{
			configFlag(),
			verboseFlag(),
			&cli.StringFlag{
				Name:    "template",
				Aliases: []string{"t"},
				Usage:   "Message template, {name} is replaced per contact",
			},
			&cli.StringFlag{
				Name:    "template-file",
				Aliases: []string{"f"},
				Usage:   "Read the message template from a file",
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Base URL of the running server",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "API key sent in the x-api-key header",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the raw JSON report",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Send,
	}
}

// statusCommand launches the interactive pairing and status monitor.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "status",
		Aliases: []string{"monitor"},
		Usage:   "Watch session status and scan the pairing code",
		Flags: []cli.Flag{
			configFlag(),
			verboseFlag(),
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Base URL of the running server",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "API key sent in the x-api-key header",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Poll interval",
				Value: 3 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Print the current status once and exit",
			},
		},
		Action: r.Status,
	}
}

// proxyCommand runs the front-end forwarding proxy.
func proxyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "proxy",
		Usage: "Run a forwarding proxy that injects the API key",
		Flags: []cli.Flag{
			configFlag(),
			verboseFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address for the proxy",
				Value: ":8888",
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Base URL of the backend server",
			},
		},
		Action: r.Proxy,
	}
}

// setupCommand creates the config file and session directory.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a starter config file and the session directory",
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: r.Setup,
	}
}
