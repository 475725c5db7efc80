package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thinkscotty/briefing/internal/discovery"
	"github.com/thinkscotty/briefing/internal/models"
	"github.com/thinkscotty/briefing/internal/views"
)

// directoryData is the model for the feed_directory partial.
type directoryData struct {
	views.DirectorySnapshot
	Types       []string
	MinScore    float64
	MaxScore    float64
	DiscoverMsg string
}

func (s *Server) directoryData() directoryData {
	return directoryData{
		DirectorySnapshot: s.directory.Snapshot(),
		Types:             []string{models.FeedTypeRSS, models.FeedTypeAtom, models.FeedTypeJSON},
		MinScore:          models.MinDiversityScore,
		MaxScore:          models.MaxDiversityScore,
	}
}

func (s *Server) handleFeedsPage(w http.ResponseWriter, r *http.Request) {
	s.summaries.Deactivate()
	s.render(w, "feeds", map[string]any{
		"Title": "Feeds",
	})
}

func (s *Server) handleFeedsList(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.Load(r.Context()); err != nil {
		slog.Warn("Feed directory rendered with error", "error", err)
	}
	s.renderPartial(w, http.StatusOK, "feed_directory", s.directoryData())
}

func (s *Server) handleFeedAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	feed, err := views.ParseFeedForm(r.PostForm)
	if err != nil {
		s.directory.RejectForm(feed, err.Error())
		s.renderPartial(w, http.StatusOK, "feed_directory", s.directoryData())
		return
	}

	// Backend failures are shown inside the directory partial.
	s.directory.Add(context.WithoutCancel(r.Context()), feed)
	s.renderPartial(w, http.StatusOK, "feed_directory", s.directoryData())
}

func (s *Server) handleFeedDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		// chi matched against the escaped path.
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			http.Error(w, "Invalid feed name", http.StatusBadRequest)
			return
		}
		name = unescaped
	}
	if name == "" {
		http.Error(w, "Feed name is required", http.StatusBadRequest)
		return
	}

	err := s.directory.Delete(context.WithoutCancel(r.Context()), name)
	if errors.Is(err, views.ErrDeleteInProgress) {
		s.renderPartial(w, http.StatusConflict, "feed_directory", s.directoryData())
		return
	}
	s.renderPartial(w, http.StatusOK, "feed_directory", s.directoryData())
}

// handleFeedDiscover looks up the feed advertised by a page and prefills the
// add form with it.
func (s *Server) handleFeedDiscover(w http.ResponseWriter, r *http.Request) {
	pageURL := strings.TrimSpace(r.URL.Query().Get("page_url"))
	data := s.directoryData()
	if pageURL == "" {
		data.DiscoverMsg = "Enter a page URL to look for a feed."
		s.renderPartial(w, http.StatusOK, "feed_directory", data)
		return
	}

	found, err := s.discover.Discover(r.Context(), pageURL)
	if err != nil {
		slog.Warn("Feed discovery failed", "url", pageURL, "error", err)
		if errors.Is(err, discovery.ErrNoFeed) {
			data.DiscoverMsg = "No feed found on " + pageURL
		} else {
			data.DiscoverMsg = "Discovery failed: " + err.Error()
		}
		s.renderPartial(w, http.StatusOK, "feed_directory", data)
		return
	}

	form := models.DefaultFeedSource()
	form.Name = found.Title
	form.URL = found.URL
	form.Type = found.Type
	s.directory.PrefillForm(form)

	data = s.directoryData()
	data.DiscoverMsg = "Found " + found.Type + " feed: " + found.URL
	s.renderPartial(w, http.StatusOK, "feed_directory", data)
}
