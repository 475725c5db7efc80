package server

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	briefing "github.com/thinkscotty/briefing"
	"github.com/thinkscotty/briefing/internal/backend"
	"github.com/thinkscotty/briefing/internal/config"
	"github.com/thinkscotty/briefing/internal/database"
	"github.com/thinkscotty/briefing/internal/discovery"
	"github.com/thinkscotty/briefing/internal/models"
	"github.com/thinkscotty/briefing/internal/views"
)

type Server struct {
	cfg       config.Config
	backend   *backend.Client
	db        *database.DB
	summaries *views.SummaryFeed
	directory *views.FeedDirectory
	discover  *discovery.Discoverer
	themes    []config.Theme
	version   string
	pages     map[string]*template.Template
	partials  *template.Template
	httpSrv   *http.Server
}

func New(cfg config.Config, client *backend.Client, db *database.DB, disc *discovery.Discoverer, themes []config.Theme, version string) *Server {
	return &Server{
		cfg:       cfg,
		backend:   client,
		db:        db,
		summaries: views.NewSummaryFeed(client, db),
		directory: views.NewFeedDirectory(client, db),
		discover:  disc,
		themes:    themes,
		version:   version,
	}
}

// Handler loads templates and builds the routed handler.
func (s *Server) Handler() (http.Handler, error) {
	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	s.routes(r)
	return r, nil
}

// Start builds the handler and serves until Shutdown.
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	slog.Info("Starting server", "addr", addr, "backend", s.backend.BaseURL())
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes(r chi.Router) {
	staticFS, _ := fs.Sub(briefing.StaticFS, "web/static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/", s.handleSummariesPage)
	r.Get("/summaries", s.handleSummariesList)
	r.Post("/summaries/regenerate", s.handleRegenerate)

	r.Get("/feeds", s.handleFeedsPage)
	r.Get("/feeds/list", s.handleFeedsList)
	r.Get("/feeds/discover", s.handleFeedDiscover)
	r.Post("/feeds", s.handleFeedAdd)
	r.Delete("/feeds/{name}", s.handleFeedDelete)

	r.Get("/activity", s.handleActivityPage)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
}

// articleCard pairs an article with its position for the summary_card partial.
type articleCard struct {
	Index   int
	Article models.Article
}

func (s *Server) loadTemplates() error {
	funcMap := template.FuncMap{
		"timeAgo": func(t time.Time) string {
			if t.IsZero() {
				return "Never"
			}
			d := time.Since(t)
			switch {
			case d < time.Minute:
				return "Just now"
			case d < time.Hour:
				return fmt.Sprintf("%dm ago", int(d.Minutes()))
			case d < 24*time.Hour:
				return fmt.Sprintf("%dh ago", int(d.Hours()))
			default:
				return fmt.Sprintf("%dd ago", int(d.Hours()/24))
			}
		},
		"pathEscape": url.PathEscape,
		"card": func(i int, a models.Article) articleCard {
			return articleCard{Index: i, Article: a}
		},
		"score": func(f float64) string {
			return strconv.FormatFloat(f, 'f', 1, 64)
		},
		"formatBytes": func(b int64) string {
			const unit = 1024
			if b < unit {
				return fmt.Sprintf("%d B", b)
			}
			div, exp := int64(unit), 0
			for n := b / unit; n >= unit; n /= unit {
				div *= unit
				exp++
			}
			return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
		},
	}

	s.pages = make(map[string]*template.Template)

	pageNames := []string{"summaries", "feeds", "activity"}
	for _, page := range pageNames {
		t, err := template.New("base.html").Funcs(funcMap).ParseFS(briefing.TemplateFS,
			"web/templates/layouts/base.html",
			"web/templates/partials/*.html",
			"web/templates/pages/"+page+".html",
		)
		if err != nil {
			return fmt.Errorf("parse template %s: %w", page, err)
		}
		s.pages[page] = t
	}

	partials, err := template.New("partials").Funcs(funcMap).ParseFS(briefing.TemplateFS,
		"web/templates/partials/*.html",
	)
	if err != nil {
		return fmt.Errorf("parse partials: %w", err)
	}
	s.partials = partials
	return nil
}

// render executes a full page template.
func (s *Server) render(w http.ResponseWriter, page string, data map[string]any) {
	tmpl, ok := s.pages[page]
	if !ok {
		http.Error(w, "Template not found", 500)
		return
	}

	data["Page"] = page
	data["Version"] = s.version
	theme := config.FindTheme(s.themes, s.cfg.UI.Theme)
	data["ThemeCSS"] = template.CSS(config.ResolveThemeCSS(theme))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		slog.Error("Template execution error", "page", page, "error", err)
	}
}

// renderPartial executes a named partial template for htmx responses.
func (s *Server) renderPartial(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.partials.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Partial execution error", "name", name, "error", err)
	}
}
