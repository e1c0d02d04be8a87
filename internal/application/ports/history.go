package ports

import (
	"context"
	"time"

	"github.com/jbctechsolutions/deskflip/internal/domain/history"
)

// HistoryRepository stores the workspace operation journal.
type HistoryRepository interface {
	// Save persists a record.
	Save(ctx context.Context, r *history.Record) error

	// List returns records matching the filter, most recent first.
	List(ctx context.Context, filter history.Filter) ([]history.Record, error)

	// Summarize aggregates records started at or after since.
	Summarize(ctx context.Context, since time.Time) ([]history.Summary, error)
}
