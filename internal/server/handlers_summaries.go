package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/thinkscotty/briefing/internal/views"
)

func (s *Server) handleSummariesPage(w http.ResponseWriter, r *http.Request) {
	s.directory.Deactivate()
	s.render(w, "summaries", map[string]any{
		"Title": "Summaries",
	})
}

// handleSummariesList activates the summary view and returns the list
// partial. The page shell requests it on load.
func (s *Server) handleSummariesList(w http.ResponseWriter, r *http.Request) {
	if err := s.summaries.Load(r.Context()); err != nil {
		slog.Warn("Summary list rendered with error", "error", err)
	}
	s.renderPartial(w, http.StatusOK, "summary_list", s.summaries.Snapshot())
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	// The pipeline keeps running on the backend if the browser goes away, so
	// the view should still pick up its result.
	ctx := context.WithoutCancel(r.Context())

	err := s.summaries.Regenerate(ctx)
	if errors.Is(err, views.ErrRegenerateInProgress) {
		s.renderPartial(w, http.StatusConflict, "summary_list", s.summaries.Snapshot())
		return
	}
	s.renderPartial(w, http.StatusOK, "summary_list", s.summaries.Snapshot())
}
