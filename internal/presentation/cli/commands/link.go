package commands

import (
	"github.com/spf13/cobra"
)

// NewLinkCmd creates the link command.
func NewLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <id> <slot>",
		Short: "Link a profile to a virtual desktop",
		Long: `Link a profile to a virtual desktop slot (zero-based index).

Switching with --workspace activates the linked virtual desktop after the
Desktop folder has moved.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := parseIndex(args[1]); err != nil {
				return err
			}
			app, err := mustApp()
			if err != nil {
				return err
			}
			if err := app.Container.Orchestrator().Link(cliContext(cmd), id, args[1]); err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]any{"id": id, "slot": args[1]}, func() error {
				return app.Formatter.Success("Linked desktop %d to virtual desktop %s", id, args[1])
			})
		},
	}
}

// NewUnlinkCmd creates the unlink command.
func NewUnlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <id>",
		Short: "Remove a profile's virtual desktop link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := mustApp()
			if err != nil {
				return err
			}
			if err := app.Container.Orchestrator().Unlink(cliContext(cmd), id); err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]int{"unlinked": id}, func() error {
				return app.Formatter.Success("Unlinked desktop %d", id)
			})
		},
	}
}

// NewLinksCmd creates the links command.
func NewLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "List profile to virtual desktop links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			return app.Formatter.Links(app.Container.Orchestrator().Links(cmd.Context()))
		},
	}
}
