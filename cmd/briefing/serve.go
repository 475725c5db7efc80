package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	briefing "github.com/thinkscotty/briefing"
	"github.com/thinkscotty/briefing/internal/config"
	"github.com/thinkscotty/briefing/internal/database"
	"github.com/thinkscotty/briefing/internal/discovery"
	"github.com/thinkscotty/briefing/internal/server"
)

const cleanupInterval = time.Hour

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web interface",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP port (overrides server.port)",
				EnvVars: []string{"BRIEFING_PORT"},
			},
			&cli.StringFlag{
				Name:  "themes",
				Usage: "Path to themes file (overrides ui.themes_path)",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if p := ctx.Int("port"); p != 0 {
				cfg.Server.Port = p
			}
			if t := ctx.String("themes"); t != "" {
				cfg.UI.ThemesPath = t
			}
			return serve(cfg)
		},
	}
}

func serve(cfg config.Config) error {
	slog.Info("Starting Briefing", "version", version)

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("Database initialized", "path", cfg.Database.Path)

	themes, err := config.LoadThemes(cfg.UI.ThemesPath, briefing.ThemesYAML)
	if err != nil {
		return err
	}
	slog.Info("Loaded themes", "count", len(themes))

	client := newClient(cfg)
	disc := discovery.New(cfg.Backend.UserAgent, 15*time.Second)
	srv := server.New(cfg, client, db, disc, themes, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runCleanup(ctx, db, cfg.Activity.RetentionDays)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// runCleanup trims the activity log on start and then once per interval.
func runCleanup(ctx context.Context, db *database.DB, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	clean := func() {
		removed, err := db.CleanOldActivity(retentionDays)
		if err != nil {
			slog.Error("Activity cleanup failed", "error", err)
			return
		}
		if removed > 0 {
			slog.Info("Cleaned old activity", "removed", removed)
		}
	}

	clean()
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			clean()
		}
	}
}
