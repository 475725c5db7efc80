package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

type Article struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	Summary   string `json:"summary"`
	URL       string `json:"url"`
	Published string `json:"published"`
}

// publishedLayouts covers the ISO-8601 variants the pipeline emits, plus the
// RFC 1123 dates some feeds pass through untouched.
var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// PublishedAt parses the published timestamp. ok is false when the value is
// empty or in no known layout.
func (a Article) PublishedAt() (t time.Time, ok bool) {
	raw := strings.TrimSpace(a.Published)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Key is the rendering identity: the URL, or the list position when the
// article has none.
func (a Article) Key(index int) string {
	if a.URL != "" {
		return a.URL
	}
	return "#" + strconv.Itoa(index)
}

// SortByPublishedDesc orders articles newest first. The sort is stable and
// articles with unparseable timestamps go last.
func SortByPublishedDesc(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		ti, oki := articles[i].PublishedAt()
		tj, okj := articles[j].PublishedAt()
		switch {
		case oki && okj:
			return ti.After(tj)
		case oki:
			return true
		default:
			return false
		}
	})
}

// Feed source types the backend understands.
const (
	FeedTypeRSS  = "rss"
	FeedTypeAtom = "atom"
	FeedTypeJSON = "json"
)

// Diversity score bounds. The backend owns the meaning of the score.
const (
	MinDiversityScore     = 1.0
	MaxDiversityScore     = 10.0
	DefaultDiversityScore = 5.0
)

type FeedSource struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	URL            string  `json:"url"`
	Lang           string  `json:"lang"`
	DiversityScore float64 `json:"diversity_score"`
	Perspective    string  `json:"perspective"`
	Region         string  `json:"region"`
}

// DefaultFeedSource is the value the add form starts from and resets to.
func DefaultFeedSource() FeedSource {
	return FeedSource{
		Type:           FeedTypeRSS,
		Lang:           "en",
		DiversityScore: DefaultDiversityScore,
	}
}

// PipelineResult is the reply to a regeneration trigger.
type PipelineResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Stderr  string `json:"stderr,omitempty"`
}

// OK reports whether the backend accepted and completed the run.
func (r PipelineResult) OK() bool {
	return r.Status == "success"
}

// Activity kinds recorded in the local audit log.
const (
	ActivityPipeline   = "pipeline"
	ActivityFeedAdd    = "feed_add"
	ActivityFeedDelete = "feed_delete"
)

type ActivityEntry struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	Target     string    `json:"target"`
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
