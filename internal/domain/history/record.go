// Package history provides domain types for the workspace operation journal.
package history

import (
	"time"
)

// Operation names recorded in the journal.
const (
	OpSwitch   = "switch"
	OpCreate   = "create"
	OpDelete   = "delete"
	OpRestore  = "restore"
	OpRecover  = "recover"
	OpAutosave = "autosave"
)

// Status of a finished operation.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	// StatusDrift marks an operation that changed the OS desktop folder
	// but could not persist the matching state.
	StatusDrift = "drift"
)

// Record is one journaled workspace operation.
type Record struct {
	ID        string        `json:"id"`                 // Unique record ID
	Operation string        `json:"operation"`          // Operation name
	FromID    int           `json:"from_id"`            // Active profile before the operation
	ToID      int           `json:"to_id"`              // Target profile (0 = original desktop)
	Status    string        `json:"status"`             // ok, failed or drift
	Error     string        `json:"error,omitempty"`    // Error message if failed
	Warnings  []string      `json:"warnings,omitempty"` // Best-effort steps that failed
	StartedAt time.Time     `json:"started_at"`         // When the operation started
	Duration  time.Duration `json:"duration_ns"`        // Total duration
}

// Succeeded reports whether the record finished without error.
func (r Record) Succeeded() bool {
	return r.Status == StatusOK
}

// Filter defines criteria for querying the journal.
type Filter struct {
	Operation string    // Only this operation (empty for all)
	Status    string    // Only this status (empty for all)
	Since     time.Time // Only records started at or after this time
	Limit     int       // Maximum records to return (0 for default)
}

// Summary aggregates journal records per operation and status.
type Summary struct {
	Operation   string
	Status      string
	Count       int64
	AvgDuration time.Duration
}
