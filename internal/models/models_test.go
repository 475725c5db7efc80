package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortByPublishedDesc(t *testing.T) {
	articles := []Article{
		{Title: "undated", Published: "someday"},
		{Title: "A", Published: "2024-01-01T00:00:00Z"},
		{Title: "C", Published: "2024-03-01"},
		{Title: "B", Published: "2024-02-01T00:00:00+00:00"},
		{Title: "empty"},
	}

	SortByPublishedDesc(articles)

	var titles []string
	for _, a := range articles {
		titles = append(titles, a.Title)
	}
	require.Equal(t, []string{"C", "B", "A", "undated", "empty"}, titles)
}

func TestPublishedAt(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		year int
	}{
		{"2024-02-01T00:00:00Z", true, 2024},
		{"2023-12-31T23:59:59.123456", true, 2023},
		{"2023-12-31 08:00:00", true, 2023},
		{"Mon, 02 Jan 2006 15:04:05 -0700", true, 2006},
		{"", false, 0},
		{"yesterday", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Article{Published: tt.raw}.PublishedAt()
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, tt.year, got.Year())
			}
		})
	}
}

func TestArticleKey(t *testing.T) {
	require.Equal(t, "https://example.com/a", Article{URL: "https://example.com/a"}.Key(3))
	require.Equal(t, "#3", Article{}.Key(3))
}

func TestDefaultFeedSource(t *testing.T) {
	f := DefaultFeedSource()
	require.Equal(t, "rss", f.Type)
	require.Equal(t, "en", f.Lang)
	require.Equal(t, 5.0, f.DiversityScore)
	require.Empty(t, f.Name)
	require.Empty(t, f.URL)
	require.Empty(t, f.Perspective)
	require.Empty(t, f.Region)
}

func TestPipelineResultOK(t *testing.T) {
	require.True(t, PipelineResult{Status: "success"}.OK())
	require.False(t, PipelineResult{Status: "failed", Message: "success was not reached"}.OK())
	require.False(t, PipelineResult{}.OK())
}
