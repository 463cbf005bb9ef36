package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const selectRecords = `
	SELECT uuid, username, filename, startTime, endTime, status
	FROM file_tracking
	WHERE startTime BETWEEN ? AND ?
	ORDER BY startTime
`

// Query reads all tracking records whose startTime falls in [from, to].
// Any failure is returned to the caller; report generation treats it as
// fatal rather than producing a partial report.
func Query(ctx context.Context, conn Connection, from, to time.Time) ([]Record, error) {
	db, err := sql.Open("mysql", conn.MySQL())
	if err != nil {
		return nil, fmt.Errorf("failed to open tracking store at %s: %w", conn.Host, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, selectRecords, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracking store at %s: %w", conn.Host, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r   Record
			end sql.NullTime
		)
		if err := rows.Scan(&r.UUID, &r.Username, &r.Filename, &r.StartTime, &end, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan tracking record: %w", err)
		}
		if end.Valid {
			r.EndTime = &end.Time
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracking records: %w", err)
	}
	return records, nil
}

// QueryFunc matches Query; the report path takes one so tests can substitute
// in-memory record sets for a live store.
type QueryFunc func(ctx context.Context, conn Connection, from, to time.Time) ([]Record, error)
