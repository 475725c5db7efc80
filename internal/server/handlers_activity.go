package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/thinkscotty/briefing/internal/database"
	"github.com/thinkscotty/briefing/internal/models"
)

func (s *Server) handleActivityPage(w http.ResponseWriter, r *http.Request) {
	entries, err := s.db.RecentActivity(s.cfg.Activity.DisplayLimit)
	if err != nil {
		slog.Error("Failed to load activity", "error", err)
		http.Error(w, "Failed to load activity", 500)
		return
	}
	counts, err := s.db.ActivityCounts()
	if err != nil {
		slog.Error("Failed to load activity counts", "error", err)
		counts = map[string]database.OutcomeCount{}
	}
	dbSize, _ := s.db.SizeBytes()

	s.render(w, "activity", map[string]any{
		"Title":   "Activity",
		"Entries": entries,
		"Counts": []struct {
			Label string
			database.OutcomeCount
		}{
			{"Pipeline runs", counts[models.ActivityPipeline]},
			{"Feeds added", counts[models.ActivityFeedAdd]},
			{"Feeds deleted", counts[models.ActivityFeedDelete]},
		},
		"DBSize": dbSize,
	})
}

// handleHealth reports whether this process and the backend are reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok", "backend": "ok"}
	if err := s.backend.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["backend"] = err.Error()
	}
	jsonResponse(w, status, body)
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
