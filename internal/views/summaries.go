package views

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thinkscotty/briefing/internal/backend"
	"github.com/thinkscotty/briefing/internal/models"
)

// PipelineError is a regeneration the backend answered but did not complete.
type PipelineError struct {
	Result models.PipelineResult
}

func (e *PipelineError) Error() string {
	switch {
	case e.Result.Message != "":
		return e.Result.Message
	case e.Result.Stderr != "":
		return e.Result.Stderr
	case e.Result.Status != "":
		return "pipeline status: " + e.Result.Status
	default:
		return "pipeline returned no status"
	}
}

// SummaryFeed loads article summaries and triggers backend regeneration.
type SummaryFeed struct {
	src ArticleSource
	rec Recorder

	regenerating atomic.Bool

	mu       sync.Mutex
	state    State
	articles []models.Article
	errMsg   string
	status   string
	seq      uint64
	live     bool
}

// SummarySnapshot is a point-in-time copy of the summary feed for rendering.
type SummarySnapshot struct {
	State        State
	Articles     []models.Article
	Error        string
	Status       string
	StatusFailed bool
	Regenerating bool
}

// Empty reports whether a ready list has nothing to show.
func (s SummarySnapshot) Empty() bool {
	return len(s.Articles) == 0
}

func NewSummaryFeed(src ArticleSource, rec Recorder) *SummaryFeed {
	return &SummaryFeed{src: src, rec: rec, state: StateIdle}
}

// Load activates the view and reads the article collection once. On failure
// the view moves to the error state and shows no articles. A response that
// arrives after a newer read was issued, or after Deactivate, is dropped.
func (f *SummaryFeed) Load(ctx context.Context) error {
	return f.load(ctx, true)
}

func (f *SummaryFeed) load(ctx context.Context, activate bool) error {
	f.mu.Lock()
	if activate {
		f.live = true
	}
	if !f.live {
		f.mu.Unlock()
		return nil
	}
	f.seq++
	seq := f.seq
	// A populated view keeps showing its articles while the read is out.
	if f.state == StateIdle || f.state == StateError {
		f.state = StateLoading
	}
	f.mu.Unlock()

	articles, err := f.src.ListArticles(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.seq || !f.live {
		slog.Debug("Discarding stale article response", "seq", seq, "latest", f.seq)
		return nil
	}
	if err != nil {
		f.state = StateError
		f.articles = nil
		f.errMsg = errorMessage(err)
		return err
	}
	f.state = StateReady
	f.articles = articles
	f.errMsg = ""
	return nil
}

// Regenerate asks the backend to rebuild summaries and reloads on success.
// Only one regeneration runs at a time; a second call while one is in flight
// returns ErrRegenerateInProgress without contacting the backend. On failure
// the current articles are kept and a status message is set.
func (f *SummaryFeed) Regenerate(ctx context.Context) error {
	if !f.regenerating.CompareAndSwap(false, true) {
		return ErrRegenerateInProgress
	}
	defer f.regenerating.Store(false)

	f.mu.Lock()
	prev := f.state
	if f.live {
		f.state = StateRefreshing
	}
	f.status = "Regenerating summaries..."
	f.mu.Unlock()

	start := time.Now()
	result, err := f.src.RunPipeline(ctx)
	if err == nil && !result.OK() {
		err = &PipelineError{Result: result}
	}
	record(f.rec, models.ActivityPipeline, "run_pipeline", start, err)

	if err != nil {
		slog.Error("Pipeline run failed", "error", err)
		f.mu.Lock()
		if f.live {
			f.state = StateRefreshError
			f.status = "Regeneration failed: " + errorMessage(err)
		} else if f.state == StateRefreshing {
			f.state = prev
		}
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	if !f.live && f.state == StateRefreshing {
		// Deactivated mid-run, so the reload below is skipped.
		f.state = prev
	}
	f.status = "Summaries regenerated."
	if result.Message != "" {
		f.status = "Summaries regenerated: " + result.Message
	}
	f.mu.Unlock()

	return f.load(ctx, false)
}

// Regenerating reports whether a regeneration is in flight.
func (f *SummaryFeed) Regenerating() bool {
	return f.regenerating.Load()
}

// Deactivate marks the view as no longer shown. Responses still in flight
// will not touch its state.
func (f *SummaryFeed) Deactivate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = false
	f.seq++
}

func (f *SummaryFeed) Snapshot() SummarySnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return SummarySnapshot{
		State:        f.state,
		Articles:     slices.Clone(f.articles),
		Error:        f.errMsg,
		Status:       f.status,
		StatusFailed: f.state == StateRefreshError,
		Regenerating: f.regenerating.Load(),
	}
}

func errorMessage(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	return backend.Message(err)
}
