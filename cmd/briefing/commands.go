package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/thinkscotty/briefing/internal/backend"
	"github.com/thinkscotty/briefing/internal/config"
	"github.com/thinkscotty/briefing/internal/database"
	"github.com/thinkscotty/briefing/internal/discovery"
	"github.com/thinkscotty/briefing/internal/models"
	"github.com/thinkscotty/briefing/internal/views"
)

var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "Print JSON instead of a table",
}

// openRecorder opens the activity log so CLI mutations are recorded next to
// the ones made in the web UI. A database that cannot be opened only costs
// the audit entry.
func openRecorder(cfg config.Config) (views.Recorder, func()) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		slog.Warn("Activity log unavailable", "path", cfg.Database.Path, "error", err)
		return nil, func() {}
	}
	return db, func() { db.Close() }
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func articlesCmd() *cli.Command {
	return &cli.Command{
		Name:  "articles",
		Usage: "List article summaries, newest first",
		Flags: []cli.Flag{
			jsonFlag,
			&cli.BoolFlag{
				Name:    "summary",
				Aliases: []string{"s"},
				Usage:   "Include the summary text",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			feed := views.NewSummaryFeed(newClient(cfg), nil)
			if err := feed.Load(ctx.Context); err != nil {
				return fmt.Errorf("fetch articles: %s", backend.Message(err))
			}
			snap := feed.Snapshot()

			out := ctx.App.Writer
			if ctx.Bool("json") {
				return writeJSON(out, snap.Articles)
			}
			if snap.Empty() {
				fmt.Fprintln(out, "No articles found.")
				return nil
			}

			if ctx.Bool("summary") {
				for _, a := range snap.Articles {
					fmt.Fprintf(out, "%s\n  %s | %s | %s\n  %s\n\n", a.Title, a.Source, a.Published, a.URL, a.Summary)
				}
				return nil
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "PUBLISHED\tSOURCE\tTITLE")
			for _, a := range snap.Articles {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Published, a.Source, a.Title)
			}
			return tw.Flush()
		},
	}
}

func feedsCmd() *cli.Command {
	return &cli.Command{
		Name:  "feeds",
		Usage: "Manage feed sources",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List configured feed sources",
				Flags: []cli.Flag{jsonFlag},
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}

					dir := views.NewFeedDirectory(newClient(cfg), nil)
					if err := dir.Load(ctx.Context); err != nil {
						return fmt.Errorf("fetch feeds: %s", backend.Message(err))
					}
					feeds := dir.Snapshot().Feeds

					out := ctx.App.Writer
					if ctx.Bool("json") {
						return writeJSON(out, feeds)
					}
					if len(feeds) == 0 {
						fmt.Fprintln(out, "No feeds configured.")
						return nil
					}
					tw := newTable(out)
					fmt.Fprintln(tw, "NAME\tTYPE\tLANG\tDIVERSITY\tPERSPECTIVE\tREGION\tURL")
					for _, f := range feeds {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%s\t%s\t%s\n",
							f.Name, f.Type, f.Lang, f.DiversityScore, f.Perspective, f.Region, f.URL)
					}
					return tw.Flush()
				},
			},
			{
				Name:  "add",
				Usage: "Add a feed source",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Unique feed name", Required: true},
					&cli.StringFlag{Name: "url", Usage: "Feed URL", Required: true},
					&cli.StringFlag{Name: "type", Value: models.FeedTypeRSS, Usage: "Feed type: rss, atom or json"},
					&cli.StringFlag{Name: "lang", Value: "en", Usage: "Language code"},
					&cli.Float64Flag{Name: "diversity", Value: models.DefaultDiversityScore, Usage: "Diversity score (1-10)"},
					&cli.StringFlag{Name: "perspective", Usage: "Editorial perspective"},
					&cli.StringFlag{Name: "region", Usage: "Region covered"},
				},
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}
					rec, closeRec := openRecorder(cfg)
					defer closeRec()

					feed := models.FeedSource{
						Name:           ctx.String("name"),
						Type:           ctx.String("type"),
						URL:            ctx.String("url"),
						Lang:           ctx.String("lang"),
						DiversityScore: ctx.Float64("diversity"),
						Perspective:    ctx.String("perspective"),
						Region:         ctx.String("region"),
					}
					added, err := views.NewFeedDirectory(newClient(cfg), rec).Add(ctx.Context, feed)
					if err != nil {
						return fmt.Errorf("add feed: %s", backend.Message(err))
					}
					fmt.Fprintf(ctx.App.Writer, "Added feed %q (%s)\n", added.Name, added.URL)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a feed source by name",
				ArgsUsage: "NAME",
				Action: func(ctx *cli.Context) error {
					name := ctx.Args().First()
					if name == "" {
						return errors.New("feed name is required")
					}
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}
					rec, closeRec := openRecorder(cfg)
					defer closeRec()

					if err := views.NewFeedDirectory(newClient(cfg), rec).Delete(ctx.Context, name); err != nil {
						return fmt.Errorf("delete feed: %s", backend.Message(err))
					}
					fmt.Fprintf(ctx.App.Writer, "Deleted feed %q\n", name)
					return nil
				},
			},
			{
				Name:      "discover",
				Usage:     "Find the feed advertised by a web page",
				ArgsUsage: "PAGE_URL",
				Action: func(ctx *cli.Context) error {
					pageURL := ctx.Args().First()
					if pageURL == "" {
						return errors.New("page URL is required")
					}
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}

					found, err := discovery.New(cfg.Backend.UserAgent, 15*time.Second).Discover(ctx.Context, pageURL)
					if err != nil {
						return err
					}
					tw := newTable(ctx.App.Writer)
					fmt.Fprintf(tw, "Title:\t%s\n", found.Title)
					fmt.Fprintf(tw, "Type:\t%s\n", found.Type)
					fmt.Fprintf(tw, "URL:\t%s\n", found.URL)
					return tw.Flush()
				},
			},
		},
	}
}

func pipelineCmd() *cli.Command {
	return &cli.Command{
		Name:  "pipeline",
		Usage: "Control the backend summarization pipeline",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Regenerate summaries and wait for the result",
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}
					rec, closeRec := openRecorder(cfg)
					defer closeRec()

					feed := views.NewSummaryFeed(newClient(cfg), rec)
					fmt.Fprintln(ctx.App.Writer, "Regenerating summaries...")
					start := time.Now()
					if err := feed.Regenerate(ctx.Context); err != nil {
						var pe *views.PipelineError
						if errors.As(err, &pe) && pe.Result.Stderr != "" {
							fmt.Fprintln(ctx.App.ErrWriter, pe.Result.Stderr)
						}
						return fmt.Errorf("regenerate summaries: %s", backend.Message(err))
					}
					fmt.Fprintf(ctx.App.Writer, "%s (%s)\n", feed.Snapshot().Status, time.Since(start).Round(time.Second))
					return nil
				},
			},
		},
	}
}

func activityCmd() *cli.Command {
	return &cli.Command{
		Name:  "activity",
		Usage: "Show recent client activity",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of entries (default activity.display_limit)"},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			db, err := database.New(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			limit := ctx.Int("limit")
			if limit <= 0 {
				limit = cfg.Activity.DisplayLimit
			}
			entries, err := db.RecentActivity(limit)
			if err != nil {
				return err
			}

			tw := newTable(ctx.App.Writer)
			fmt.Fprintln(tw, "WHEN\tKIND\tTARGET\tRESULT\tDURATION")
			for _, e := range entries {
				result := "ok"
				if !e.Success {
					result = "failed: " + e.Message
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dms\n",
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Target, result, e.DurationMs)
			}
			return tw.Flush()
		},
	}
}
