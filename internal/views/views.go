// Package views holds the client-side state of the two screens: the summary
// feed and the feed directory. Each view owns an in-memory copy of the last
// successful backend response and is safe for concurrent use.
package views

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/thinkscotty/briefing/internal/models"
)

// State is the lifecycle position of a view.
type State string

const (
	StateIdle         State = "idle"
	StateLoading      State = "loading"
	StateReady        State = "ready"
	StateError        State = "error"
	StateRefreshing   State = "refreshing"
	StateRefreshError State = "refreshing-error"
)

var (
	ErrRegenerateInProgress = errors.New("regeneration already in progress")
	ErrDeleteInProgress     = errors.New("delete already in progress")
)

// ArticleSource is the part of the backend the summary feed reads from.
type ArticleSource interface {
	ListArticles(ctx context.Context) ([]models.Article, error)
	RunPipeline(ctx context.Context) (models.PipelineResult, error)
}

// FeedStore is the part of the backend the feed directory manages.
type FeedStore interface {
	ListFeeds(ctx context.Context) ([]models.FeedSource, error)
	AddFeed(ctx context.Context, feed models.FeedSource) (models.FeedSource, error)
	DeleteFeed(ctx context.Context, name string) error
}

// Recorder receives one entry per user-initiated mutation.
type Recorder interface {
	LogActivity(entry models.ActivityEntry) error
}

func record(rec Recorder, kind, target string, start time.Time, err error) {
	if rec == nil {
		return
	}
	entry := models.ActivityEntry{
		Kind:       kind,
		Target:     target,
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Message = errorMessage(err)
	}
	if lerr := rec.LogActivity(entry); lerr != nil {
		slog.Warn("Failed to record activity", "kind", kind, "target", target, "error", lerr)
	}
}
