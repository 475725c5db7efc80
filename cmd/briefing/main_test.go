package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thinkscotty/briefing/internal/database"
	"github.com/thinkscotty/briefing/internal/models"
)

// runApp runs the CLI against a fake backend with a throwaway config and
// returns stdout.
func runApp(t *testing.T, backendURL string, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "briefing.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  path: "+dbPath+"\n"), 0o644))

	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard

	full := append([]string{"briefing", "--config", cfgPath, "--backend-url", backendURL, "--log-level", "error"}, args...)
	err := app.Run(full)
	return out.String(), dbPath, err
}

func TestArticlesCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/graph/", r.URL.Path)
		io.WriteString(w, `{"data":[
			{"title":"Old","source":"Wire","published":"2024-01-01T00:00:00Z"},
			{"title":"New","source":"Daily","published":"2024-06-01T00:00:00Z"}
		]}`)
	}))
	t.Cleanup(srv.Close)

	out, _, err := runApp(t, srv.URL, "articles")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "PUBLISHED")
	require.Contains(t, lines[1], "New")
	require.Contains(t, lines[2], "Old")

	out, _, err = runApp(t, srv.URL, "articles", "--json")
	require.NoError(t, err)
	var articles []models.Article
	require.NoError(t, json.Unmarshal([]byte(out), &articles))
	require.Equal(t, "New", articles[0].Title)
}

func TestArticlesCommandBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, _, err := runApp(t, srv.URL, "articles")
	require.EqualError(t, err, "fetch articles: HTTP error! status: 502")
}

func TestFeedsAddRecordsActivity(t *testing.T) {
	var got models.FeedSource
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{"source": got})
	}))
	t.Cleanup(srv.Close)

	out, dbPath, err := runApp(t, srv.URL, "feeds", "add", "--name", "DW", "--url", "https://dw.test/rss", "--region", "EU")
	require.NoError(t, err)
	require.Contains(t, out, `Added feed "DW"`)
	require.Equal(t, "rss", got.Type)
	require.Equal(t, "en", got.Lang)
	require.Equal(t, models.DefaultDiversityScore, got.DiversityScore)
	require.Equal(t, "EU", got.Region)

	db, err := database.New(dbPath)
	require.NoError(t, err)
	defer db.Close()
	entries, err := db.RecentActivity(5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "DW", entries[0].Target)
}

func TestFeedsDeleteEscapesName(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		io.WriteString(w, `{"message":"ok"}`)
	}))
	t.Cleanup(srv.Close)

	out, _, err := runApp(t, srv.URL, "feeds", "delete", "A/B feed")
	require.NoError(t, err)
	require.Equal(t, "/api/graph/feeds/A%2FB%20feed", path)
	require.Contains(t, out, `Deleted feed "A/B feed"`)
}

func TestPipelineRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"error","message":"no feeds","stderr":"trace"}`)
	}))
	t.Cleanup(srv.Close)

	_, _, err := runApp(t, srv.URL, "pipeline", "run")
	require.EqualError(t, err, "regenerate summaries: no feeds")
}
