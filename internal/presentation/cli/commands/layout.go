package commands

import (
	"github.com/spf13/cobra"
)

// NewLayoutCmd creates the layout command group.
func NewLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Save and restore desktop icon layouts",
		Long: `Capture, restore and inspect the icon layout stored with each profile.

Layouts live in a hidden file inside the profile folder and are saved and
restored automatically on every switch.`,
	}

	cmd.AddCommand(newLayoutSaveCmd(false))
	cmd.AddCommand(newLayoutSaveCmd(true))
	cmd.AddCommand(newLayoutRestoreCmd())
	cmd.AddCommand(newLayoutShowCmd())
	cmd.AddCommand(newLayoutNoArrangeCmd())

	return cmd
}

func newLayoutSaveCmd(force bool) *cobra.Command {
	use, short := "save <id>", "Capture the current icon positions into a profile"
	if force {
		use, short = "force-save <id>", "Capture the icon positions after letting the desktop settle"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
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
			orch := app.Container.Orchestrator()
			save := orch.SaveLayout
			if force {
				save = orch.ForceSaveLayout
			}
			l, err := save(cliContext(cmd), id)
			if err != nil {
				return err
			}
			if app.Formatter.IsJSON() {
				return app.Formatter.Layout(id, l)
			}
			return app.Formatter.Success("Saved %d icon positions for desktop %d", len(l.Icons), id)
		},
	}
}

func newLayoutRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Move icons back to the positions saved with a profile",
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
			if err := app.Container.Orchestrator().RestoreLayout(cliContext(cmd), id); err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]int{"restored": id}, func() error {
				return app.Formatter.Success("Restored layout of desktop %d", id)
			})
		},
	}
}

func newLayoutShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the icon layout saved with a profile",
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
			l, err := app.Container.Orchestrator().GetLayout(cmd.Context(), id)
			if err != nil {
				return err
			}
			return app.Formatter.Layout(id, l)
		},
	}
}

func newLayoutNoArrangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "no-arrange",
		Short: "Turn off auto-arrange and snap-to-grid on the desktop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			if err := app.Container.Orchestrator().DisableAutoArrange(cliContext(cmd)); err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]bool{"auto_arrange": false}, func() error {
				return app.Formatter.Success("Auto-arrange disabled")
			})
		},
	}
}
