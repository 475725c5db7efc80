package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/thinkscotty/briefing/internal/backend"
	"github.com/thinkscotty/briefing/internal/config"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "briefing",
		Usage: "Read and manage AI news summaries from a briefing backend",
		Description: `Briefing is a client for a news summarization backend. It shows
		the latest article summaries, manages the feed sources the backend reads
		and triggers summary regeneration.

		Settings come from a YAML config file. Some can be overridden with flags
		or environment variables, e.g.:

		--backend-url => BRIEFING_BACKEND_URL=http://localhost:8000`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "Path to configuration file",
				EnvVars: []string{"BRIEFING_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "backend-url",
				Usage:   "Base URL of the backend API (overrides backend.base_url)",
				EnvVars: []string{"BRIEFING_BACKEND_URL"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn or error (overrides logging.level)",
				EnvVars: []string{"BRIEFING_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			articlesCmd(),
			feedsCmd(),
			pipelineCmd(),
			activityCmd(),
			versionCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return cli.ShowAppHelp(ctx)
		},
	}
}

// loadConfig reads the config file, applies flag overrides and installs the
// default logger.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if u := ctx.String("backend-url"); u != "" {
		cfg.Backend.BaseURL = u
	}
	if lvl := ctx.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	level := config.ParseLevel(cfg.Logging.Level)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

func newClient(cfg config.Config) *backend.Client {
	return backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout(), backend.WithUserAgent(cfg.Backend.UserAgent))
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version and exit",
		Action: func(ctx *cli.Context) error {
			fmt.Fprintf(ctx.App.Writer, "Briefing %s (built %s)\n", version, buildTime)
			return nil
		},
	}
}
