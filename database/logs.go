package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"skylog/models"

	"github.com/jackc/pgx/v5"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// BatchInsertError indicates which log failed during batch insert.
// Contains the index of the failed log and the total batch size for debugging.
type BatchInsertError struct {
	FailedIndex int
	TotalLogs   int
	Err         error
}

func (e *BatchInsertError) Error() string {
	return fmt.Sprintf("failed to insert log at index %d/%d: %v", e.FailedIndex, e.TotalLogs, e.Err)
}

func (e *BatchInsertError) Unwrap() error {
	return e.Err
}

// InsertLogEvents bulk-inserts a batch of enriched log events in a single
// network round-trip using pgx batching. The insert is unordered and
// duplicate-tolerant: an id collision means the batch was redelivered, so the
// conflicting row is skipped via ON CONFLICT DO NOTHING rather than failing
// the batch. Any other error aborts the call with a BatchInsertError.
// Empty slice is a no-op and returns nil.
func (db *DB) InsertLogEvents(ctx context.Context, events []models.LogEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		log.Printf("InsertLogEvents: duration=%v count=%d", time.Since(start), len(events))
	}()

	query := fmt.Sprintf(`
		INSERT INTO logs (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, logColumns)

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(query,
			ev.ID, ev.Organization, ev.Project, ev.UserEmail,
			ev.Level, ev.Message, ev.Source,
			ev.SessionID, ev.HostID, ev.TraceID, ev.Metadata,
			ev.Timestamp)
	}

	results := db.Pool.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	for i := 0; i < len(events); i++ {
		_, err := results.Exec()
		if err != nil {
			return &BatchInsertError{
				FailedIndex: i,
				TotalLogs:   len(events),
				Err:         err,
			}
		}
	}

	return nil
}

// GetLogByID fetches a single log scoped to the caller's organization.
// Returns ErrNotFound when the id does not exist or belongs to another tenant.
func (db *DB) GetLogByID(ctx context.Context, organization, id string) (*models.LogEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM logs
		WHERE %s = $1 AND %s = $2
	`, logColumns, columnID, columnOrganization)

	ev, err := scanLogEvent(db.Pool.QueryRow(ctx, query, id, organization), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get log: %w", err)
	}

	return ev, nil
}

// GetLogContext returns the chronological window around the target log:
// up to beforeN logs strictly older and afterN logs strictly newer, within
// the caller's organization. When the target carries a session id the window
// is narrowed to that session. Both slices come back in ascending timestamp
// order for display.
func (db *DB) GetLogContext(ctx context.Context, organization, id string, beforeN, afterN int) (*models.LogContext, error) {
	target, err := db.GetLogByID(ctx, organization, id)
	if err != nil {
		return nil, err
	}

	before, err := db.queryContextWindow(ctx, target, beforeN, "<", "DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query preceding logs: %w", err)
	}
	reverseLogs(before)

	after, err := db.queryContextWindow(ctx, target, afterN, ">", "ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query following logs: %w", err)
	}

	return &models.LogContext{
		TargetLog: *target,
		Before:    before,
		After:     after,
	}, nil
}

func (db *DB) queryContextWindow(ctx context.Context, target *models.LogEvent, n int, operator, direction string) ([]models.LogEvent, error) {
	if n <= 0 {
		return []models.LogEvent{}, nil
	}

	qb := NewQueryBuilder()
	qb.AddCondition(columnOrganization, target.Organization)
	qb.AddComparison(columnTimestamp, operator, target.Timestamp)
	if target.SessionID != "" {
		qb.AddCondition(columnSessionID, target.SessionID)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM logs
		%s
		ORDER BY %s %s
		LIMIT $%d
	`, logColumns, qb.WhereClause(), columnTimestamp, direction, qb.NextArgNum())

	args := append(qb.Args(), n)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.LogEvent{}
	for rows.Next() {
		ev, err := scanLogEvent(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		logs = append(logs, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating logs: %w", err)
	}

	return logs, nil
}

// Helper functions

func reverseLogs(logs []models.LogEvent) {
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLogEvent(row rowScanner, includeRank bool) (*models.LogEvent, error) {
	var ev models.LogEvent

	dest := []interface{}{
		&ev.ID, &ev.Organization, &ev.Project, &ev.UserEmail,
		&ev.Level, &ev.Message, &ev.Source,
		&ev.SessionID, &ev.HostID, &ev.TraceID, &ev.Metadata,
		&ev.Timestamp,
	}
	if includeRank {
		var rank float64
		dest = append(dest, &rank)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		ev.Rank = &rank
		return &ev, nil
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &ev, nil
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanRankedLogs consumes search result rows carrying an optional rank column
// plus the COUNT(*) OVER() total.
func scanRankedLogs(rows rowsScanner, includeRank bool) ([]models.LogEvent, int64, error) {
	logs := []models.LogEvent{}
	var total int64

	for rows.Next() {
		var ev models.LogEvent
		var rank float64

		dest := []interface{}{
			&ev.ID, &ev.Organization, &ev.Project, &ev.UserEmail,
			&ev.Level, &ev.Message, &ev.Source,
			&ev.SessionID, &ev.HostID, &ev.TraceID, &ev.Metadata,
			&ev.Timestamp,
		}
		if includeRank {
			dest = append(dest, &rank)
		}
		dest = append(dest, &total)

		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan log: %w", err)
		}
		if includeRank {
			r := rank
			ev.Rank = &r
		}
		logs = append(logs, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating logs: %w", err)
	}

	return logs, total, nil
}
