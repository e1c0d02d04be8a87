package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/domain/history"
)

// DefaultHistoryLimit caps List when the filter sets no limit.
const DefaultHistoryLimit = 50

// HistoryRepository implements ports.HistoryRepository using SQLite.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *sql.DB) ports.HistoryRepository {
	return &HistoryRepository{db: db}
}

// Save persists a record.
func (r *HistoryRepository) Save(ctx context.Context, rec *history.Record) error {
	if rec == nil {
		return fmt.Errorf("history record is nil")
	}

	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}

	query := `
		INSERT INTO operation_history (
			id, operation, from_id, to_id, status, error, warnings, started_at, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Operation,
		rec.FromID,
		rec.ToID,
		rec.Status,
		rec.Error,
		string(warningsJSON),
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save history record: %w", err)
	}

	return nil
}

// List retrieves records matching the filter, most recent first.
func (r *HistoryRepository) List(ctx context.Context, filter history.Filter) ([]history.Record, error) {
	query := `
		SELECT id, operation, from_id, to_id, status, error, warnings, started_at, duration_ns
		FROM operation_history
		WHERE 1=1
	`
	args := make([]any, 0)

	if filter.Operation != "" {
		query += " AND operation = ?"
		args = append(args, filter.Operation)
	}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	if !filter.Since.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT %d", limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []history.Record
	for rows.Next() {
		var rec history.Record
		var warningsJSON, startedAt string
		var durationNs int64

		if err := rows.Scan(
			&rec.ID,
			&rec.Operation,
			&rec.FromID,
			&rec.ToID,
			&rec.Status,
			&rec.Error,
			&warningsJSON,
			&startedAt,
			&durationNs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}

		rec.Duration = time.Duration(durationNs)
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		_ = json.Unmarshal([]byte(warningsJSON), &rec.Warnings)

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history records: %w", err)
	}

	return records, nil
}

// Summarize aggregates records per operation and status.
func (r *HistoryRepository) Summarize(ctx context.Context, since time.Time) ([]history.Summary, error) {
	query := `
		SELECT operation, status, COUNT(*), COALESCE(AVG(duration_ns), 0)
		FROM operation_history
		WHERE started_at >= ?
		GROUP BY operation, status
		ORDER BY operation, status
	`

	rows, err := r.db.QueryContext(ctx, query, since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to summarize history: %w", err)
	}
	defer rows.Close()

	var out []history.Summary
	for rows.Next() {
		var s history.Summary
		var avg float64
		if err := rows.Scan(&s.Operation, &s.Status, &s.Count, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan history summary: %w", err)
		}
		s.AvgDuration = time.Duration(avg)
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history summary: %w", err)
	}

	return out, nil
}
