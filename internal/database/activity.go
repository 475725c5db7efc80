package database

import (
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"

	"github.com/thinkscotty/briefing/internal/models"
)

// LogActivity records one client action.
func (db *DB) LogActivity(entry models.ActivityEntry) error {
	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("activity_log").
		Cols("kind", "target", "success", "message", "duration_ms").
		Values(entry.Kind, entry.Target, boolToInt(entry.Success), entry.Message, entry.DurationMs)

	query, args := ib.BuildWithFlavor(sqlbuilder.SQLite)
	if _, err := db.conn.Exec(query, args...); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// RecentActivity returns the newest entries first.
func (db *DB) RecentActivity(limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "kind", "target", "success", "message", "duration_ms", "created_at").
		From("activity_log").
		OrderBy("created_at DESC", "id DESC").
		Limit(limit)

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		var success int
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Kind, &e.Target, &success, &e.Message, &e.DurationMs, &createdAt); err != nil {
			return nil, err
		}
		e.Success = success == 1
		e.CreatedAt, _ = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ActivityCounts returns the number of entries per kind, split by outcome.
func (db *DB) ActivityCounts() (map[string]OutcomeCount, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("kind", "SUM(success)", "COUNT(*) - SUM(success)").
		From("activity_log").
		GroupBy("kind")

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]OutcomeCount)
	for rows.Next() {
		var kind string
		var c OutcomeCount
		if err := rows.Scan(&kind, &c.Succeeded, &c.Failed); err != nil {
			return nil, err
		}
		counts[kind] = c
	}
	return counts, rows.Err()
}

type OutcomeCount struct {
	Succeeded int
	Failed    int
}

// CleanOldActivity removes entries older than the given number of days.
func (db *DB) CleanOldActivity(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)

	dq := sqlbuilder.NewDeleteBuilder()
	dq.DeleteFrom("activity_log").Where(dq.LessThan("created_at", cutoff))

	query, args := dq.BuildWithFlavor(sqlbuilder.SQLite)
	result, err := db.conn.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("clean activity: %w", err)
	}
	return result.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
