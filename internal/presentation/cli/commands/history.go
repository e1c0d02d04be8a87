package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/deskflip/internal/domain/history"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	var (
		limit     int
		operation string
		status    string
		since     time.Duration
		summary   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent workspace operations",
		Long: `Show the operation journal, most recent first.

The journal is kept in SQLite when observability.history.enabled is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			repo := app.Container.HistoryRepository()
			if repo == nil {
				if app.Formatter.IsJSON() {
					return app.Formatter.History(nil)
				}
				return app.Formatter.Warning("Operation history is disabled (observability.history.enabled)")
			}

			if summary {
				from := time.Time{}
				if since > 0 {
					from = time.Now().Add(-since)
				}
				rows, err := repo.Summarize(cmd.Context(), from)
				if err != nil {
					return err
				}
				return app.Formatter.HistorySummary(rows)
			}

			filter := history.Filter{Operation: operation, Status: status, Limit: limit}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			records, err := repo.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return app.Formatter.History(records)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of records")
	cmd.Flags().StringVar(&operation, "operation", "", "only this operation (switch, create, delete, restore, recover, autosave)")
	cmd.Flags().StringVar(&status, "status", "", "only this status (ok, failed, drift)")
	cmd.Flags().BoolVar(&summary, "summary", false, "show counts and average durations per operation and status")
	cmd.Flags().DurationVar(&since, "since", 0, "only records newer than this age, e.g. 24h")

	return cmd
}
