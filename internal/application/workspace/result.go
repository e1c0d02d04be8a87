package workspace

import (
	"context"

	"github.com/jbctechsolutions/deskflip/internal/domain/history"
)

// Step names reported in results, logs and spans.
const (
	StepCaptureLayout = "capture_layout"
	StepRedirect      = "redirect"
	StepSwitchSlot    = "switch_slot"
	StepPersist       = "persist"
	StepRestoreLayout = "restore_layout"
)

// StepResult is the outcome of one step of an operation. Err is nil on
// success.
type StepResult struct {
	Step       string `json:"step"`
	BestEffort bool   `json:"best_effort"`
	Err        error  `json:"-"`
}

// Result describes a finished switch-like operation.
type Result struct {
	Operation string       `json:"operation"`
	FromID    int          `json:"from_id"`
	ToID      int          `json:"to_id"`
	Steps     []StepResult `json:"-"`

	// Skipped is set when nothing needed to change.
	Skipped bool `json:"skipped,omitempty"`

	// Drift is set when the OS desktop changed but the state was not saved.
	Drift bool `json:"drift,omitempty"`
}

// Warnings returns "step: error" for each failed best-effort step.
func (r Result) Warnings() []string {
	var out []string
	for _, s := range r.Steps {
		if s.BestEffort && s.Err != nil {
			out = append(out, s.Step+": "+s.Err.Error())
		}
	}
	return out
}

// Status returns the journal status for the result and its error.
func (r Result) Status(err error) string {
	switch {
	case r.Drift:
		return history.StatusDrift
	case err != nil:
		return history.StatusFailed
	default:
		return history.StatusOK
	}
}

// Report is the serializable summary of a Result.
type Report struct {
	Operation string   `json:"operation"`
	FromID    int      `json:"from_id"`
	ToID      int      `json:"to_id"`
	Status    string   `json:"status"`
	Skipped   bool     `json:"skipped,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Report summarizes the result together with the operation's error.
func (r Result) Report(err error) Report {
	return Report{
		Operation: r.Operation,
		FromID:    r.FromID,
		ToID:      r.ToID,
		Status:    r.Status(err),
		Skipped:   r.Skipped,
		Warnings:  r.Warnings(),
	}
}

func (r *Result) record(step string, bestEffort bool, err error) {
	r.Steps = append(r.Steps, StepResult{Step: step, BestEffort: bestEffort, Err: err})
}

// Observer receives the lifecycle of every mutating operation.
type Observer interface {
	StartOperation(ctx context.Context, op string, fromID, toID int) (context.Context, OperationObserver)
}

// OperationObserver follows a single operation.
type OperationObserver interface {
	// StartStep begins a step; the returned func ends it with its error.
	StartStep(ctx context.Context, step string, bestEffort bool) func(error)

	// Finish ends the operation.
	Finish(ctx context.Context, status string, warnings []string, err error)
}

type nopObserver struct{}

func (nopObserver) StartOperation(ctx context.Context, _ string, _, _ int) (context.Context, OperationObserver) {
	return ctx, nopOperation{}
}

type nopOperation struct{}

func (nopOperation) StartStep(context.Context, string, bool) func(error) { return func(error) {} }
func (nopOperation) Finish(context.Context, string, []string, error)     {}
