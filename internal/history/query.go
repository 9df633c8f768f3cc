package history

import (
	"database/sql"
	"time"
)

const recordColumns = `
	id, run_id, started_at, finished_at, target, file_name, object_type,
	delay_seconds, delay_defaulted, status, size, error_message
`

// GetRecentRuns returns the N most recently finished runs
func (d *DB) GetRecentRuns(limit int) ([]Record, error) {
	query := `
	SELECT` + recordColumns + `
	FROM runs
	ORDER BY finished_at DESC, id DESC
	LIMIT ?
	`

	return d.queryRuns(query, limit)
}

// GetRunsByStatus returns runs with the given status
func (d *DB) GetRunsByStatus(status string) ([]Record, error) {
	query := `
	SELECT` + recordColumns + `
	FROM runs
	WHERE status = ?
	ORDER BY finished_at DESC, id DESC
	`

	return d.queryRuns(query, status)
}

// GetRunsByTarget returns runs whose target matches a SQL LIKE pattern
func (d *DB) GetRunsByTarget(pattern string) ([]Record, error) {
	query := `
	SELECT` + recordColumns + `
	FROM runs
	WHERE target LIKE ?
	ORDER BY finished_at DESC, id DESC
	`

	return d.queryRuns(query, pattern)
}

// GetTotalBytesRemoved returns bytes removed by successful runs in a time range
func (d *DB) GetTotalBytesRemoved(start, end time.Time) (int64, error) {
	query := `
	SELECT COALESCE(SUM(size), 0)
	FROM runs
	WHERE status = 'deleted' AND finished_at BETWEEN ? AND ?
	`

	var total int64
	err := d.db.QueryRow(query, start.UTC(), end.UTC()).Scan(&total)
	return total, err
}

// GetCountByStatus returns run counts grouped by status since a point in time
func (d *DB) GetCountByStatus(since time.Time) (map[string]int, error) {
	query := `
	SELECT status, COUNT(*)
	FROM runs
	WHERE finished_at >= ?
	GROUP BY status
	`

	rows, err := d.db.Query(query, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// RunStats holds aggregated statistics
type RunStats struct {
	TotalRuns         int            `json:"total_runs"`
	TotalBytesRemoved int64          `json:"total_bytes_removed"`
	ByStatus          map[string]int `json:"by_status"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           time.Time      `json:"end_date"`
}

// GetRunStats returns statistics for the last N days
func (d *DB) GetRunStats(days int) (*RunStats, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	stats := &RunStats{
		StartDate: since,
		EndDate:   now,
	}

	var err error
	stats.ByStatus, err = d.GetCountByStatus(since)
	if err != nil {
		return nil, err
	}
	for _, n := range stats.ByStatus {
		stats.TotalRuns += n
	}

	stats.TotalBytesRemoved, err = d.GetTotalBytesRemoved(since, now)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// DeleteOldRecords removes runs that finished more than olderThanDays ago
func (d *DB) DeleteOldRecords(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays).UTC()

	result, err := d.db.Exec(`DELETE FROM runs WHERE finished_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// queryRuns executes a query and scans records
func (d *DB) queryRuns(query string, args ...interface{}) ([]Record, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var fileName, errMsg sql.NullString

		err := rows.Scan(
			&r.ID, &r.RunID, &r.StartedAt, &r.FinishedAt, &r.Target, &fileName, &r.ObjectType,
			&r.DelaySeconds, &r.DelayDefaulted, &r.Status, &r.Size, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		r.FileName = fileName.String
		r.ErrorMessage = errMsg.String
		records = append(records, r)
	}

	return records, rows.Err()
}
