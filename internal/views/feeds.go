package views

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/thinkscotty/briefing/internal/models"
)

// FeedDirectory lists feed sources and applies add/delete against the backend.
// The local list only changes after the backend acknowledges a mutation.
type FeedDirectory struct {
	store FeedStore
	rec   Recorder

	mu       sync.Mutex
	state    State
	feeds    []models.FeedSource
	errMsg   string
	form     models.FeedSource
	deleting map[string]bool
	seq      uint64
	live     bool
}

// DirectorySnapshot is a point-in-time copy of the directory for rendering.
type DirectorySnapshot struct {
	State    State
	Feeds    []models.FeedSource
	Error    string
	Form     models.FeedSource
	Deleting []string
}

// IsDeleting reports whether a delete for name is awaiting the backend.
func (s DirectorySnapshot) IsDeleting(name string) bool {
	return slices.Contains(s.Deleting, name)
}

func NewFeedDirectory(store FeedStore, rec Recorder) *FeedDirectory {
	return &FeedDirectory{
		store:    store,
		rec:      rec,
		state:    StateIdle,
		form:     models.DefaultFeedSource(),
		deleting: make(map[string]bool),
	}
}

// Load activates the view and reads the feed-source collection once.
func (d *FeedDirectory) Load(ctx context.Context) error {
	d.mu.Lock()
	d.live = true
	d.seq++
	seq := d.seq
	if d.state == StateIdle || d.state == StateError {
		d.state = StateLoading
	}
	d.mu.Unlock()

	feeds, err := d.store.ListFeeds(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq || !d.live {
		slog.Debug("Discarding stale feed list response", "seq", seq, "latest", d.seq)
		return nil
	}
	if err != nil {
		d.state = StateError
		d.feeds = nil
		d.errMsg = "Failed to fetch feeds: " + errorMessage(err)
		return err
	}
	d.state = StateReady
	d.feeds = feeds
	d.errMsg = ""
	return nil
}

// Add submits feed. On success the record returned by the backend is appended
// (or replaces an entry with the same name) and the form resets to defaults.
// On failure the list is untouched and the submitted values stay in the form.
func (d *FeedDirectory) Add(ctx context.Context, feed models.FeedSource) (models.FeedSource, error) {
	start := time.Now()
	added, err := d.store.AddFeed(ctx, feed)
	record(d.rec, models.ActivityFeedAdd, feed.Name, start, err)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		slog.Error("Failed to add feed", "name", feed.Name, "error", err)
		if d.live {
			d.errMsg = "Failed to add feed: " + errorMessage(err)
			d.form = feed
		}
		return models.FeedSource{}, err
	}

	if d.live {
		if _, idx, ok := lo.FindIndexOf(d.feeds, func(f models.FeedSource) bool { return f.Name == added.Name }); ok {
			d.feeds[idx] = added
		} else {
			d.feeds = append(d.feeds, added)
		}
		d.form = models.DefaultFeedSource()
		d.errMsg = ""
	}
	slog.Info("Feed added", "name", added.Name, "url", added.URL)
	return added, nil
}

// RejectForm keeps the submitted values in the form and shows msg. Used when
// the form could not be parsed and nothing was sent to the backend.
func (d *FeedDirectory) RejectForm(feed models.FeedSource, msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.form = feed
	d.errMsg = "Failed to add feed: " + msg
}

// PrefillForm replaces the form values, for example after feed discovery.
func (d *FeedDirectory) PrefillForm(feed models.FeedSource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.form = feed
}

// Delete removes the feed named name. A second delete for the same name while
// the first is pending returns ErrDeleteInProgress. Deletes of different names
// do not block each other.
func (d *FeedDirectory) Delete(ctx context.Context, name string) error {
	d.mu.Lock()
	if d.deleting[name] {
		d.mu.Unlock()
		return ErrDeleteInProgress
	}
	d.deleting[name] = true
	d.mu.Unlock()

	start := time.Now()
	err := d.store.DeleteFeed(ctx, name)
	record(d.rec, models.ActivityFeedDelete, name, start, err)

	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.deleting, name)
	if err != nil {
		slog.Error("Failed to delete feed", "name", name, "error", err)
		if d.live {
			d.errMsg = "Failed to delete feed: " + errorMessage(err)
		}
		return err
	}

	if d.live {
		d.feeds = lo.Reject(d.feeds, func(f models.FeedSource, _ int) bool { return f.Name == name })
		d.errMsg = ""
	}
	slog.Info("Feed deleted", "name", name)
	return nil
}

// Deactivate marks the view as no longer shown.
func (d *FeedDirectory) Deactivate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.live = false
	d.seq++
}

func (d *FeedDirectory) Snapshot() DirectorySnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	deleting := lo.Keys(d.deleting)
	sort.Strings(deleting)
	return DirectorySnapshot{
		State:    d.state,
		Feeds:    slices.Clone(d.feeds),
		Error:    d.errMsg,
		Form:     d.form,
		Deleting: deleting,
	}
}
