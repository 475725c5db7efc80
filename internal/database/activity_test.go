package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thinkscotty/briefing/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "briefing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogAndListActivity(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.LogActivity(models.ActivityEntry{Kind: models.ActivityFeedAdd, Target: "bbc", Success: true, DurationMs: 12}))
	require.NoError(t, db.LogActivity(models.ActivityEntry{Kind: models.ActivityFeedDelete, Target: "dw", Message: "Feed not found", DurationMs: 3}))
	require.NoError(t, db.LogActivity(models.ActivityEntry{Kind: models.ActivityPipeline, Target: "run_pipeline", Success: true}))

	entries, err := db.RecentActivity(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.ActivityPipeline, entries[0].Kind)
	require.Equal(t, "dw", entries[1].Target)
	require.False(t, entries[1].Success)
	require.Equal(t, "Feed not found", entries[1].Message)
	require.False(t, entries[1].CreatedAt.IsZero())
}

func TestActivityCounts(t *testing.T) {
	db := openTestDB(t)
	for _, ok := range []bool{true, true, false} {
		require.NoError(t, db.LogActivity(models.ActivityEntry{Kind: models.ActivityPipeline, Success: ok}))
	}
	require.NoError(t, db.LogActivity(models.ActivityEntry{Kind: models.ActivityFeedAdd, Success: true}))

	counts, err := db.ActivityCounts()
	require.NoError(t, err)
	require.Equal(t, OutcomeCount{Succeeded: 2, Failed: 1}, counts[models.ActivityPipeline])
	require.Equal(t, OutcomeCount{Succeeded: 1}, counts[models.ActivityFeedAdd])
}

func TestCleanOldActivity(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.LogActivity(models.ActivityEntry{Kind: models.ActivityFeedAdd, Target: "fresh"}))
	_, err := db.conn.Exec(`INSERT INTO activity_log (kind, target, created_at) VALUES (?, ?, datetime('now', '-40 days'))`,
		models.ActivityFeedAdd, "stale")
	require.NoError(t, err)

	removed, err := db.CleanOldActivity(30)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	entries, err := db.RecentActivity(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "fresh", entries[0].Target)
}
