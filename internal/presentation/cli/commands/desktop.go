package commands

import (
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/deskflip/internal/application/workspace"
)

// NewDesktopCmd creates the desktop command group.
func NewDesktopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "desktop",
		Aliases: []string{"desktops", "d"},
		Short:   "Manage desktop profiles",
		Long: `Create, switch, rename and delete desktop profiles.

Profile folders are named Desktop<id> under the managed root. Id 0 is the
original desktop the user had before deskflip.`,
	}

	cmd.AddCommand(newDesktopListCmd())
	cmd.AddCommand(newDesktopCreateCmd())
	cmd.AddCommand(newDesktopSwitchCmd())
	cmd.AddCommand(newDesktopDeleteCmd())
	cmd.AddCommand(newDesktopRenameCmd())
	cmd.AddCommand(newDesktopRestoreCmd())
	cmd.AddCommand(newDesktopOriginalCmd())
	cmd.AddCommand(newDesktopRecoverCmd())

	return cmd
}

func newDesktopListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List desktop profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			return app.Formatter.Profiles(app.Container.Orchestrator().List(cmd.Context()))
		},
	}
}

func newDesktopCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a desktop profile with the next free id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			view, err := app.Container.Orchestrator().Create(cliContext(cmd))
			if err != nil {
				return err
			}
			return app.Formatter.Emit(view, func() error {
				return app.Formatter.Success("Created desktop %d (%s)", view.ID, view.Path)
			})
		},
	}
}

func newDesktopSwitchCmd() *cobra.Command {
	var withWorkspace bool

	cmd := &cobra.Command{
		Use:   "switch <id>",
		Short: "Switch to a desktop profile",
		Long: `Switch the Desktop folder to a profile.

The current icon layout is saved to the active profile first and the
target profile's saved layout is restored afterwards. With --workspace
the virtual desktop linked to the target is activated as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := mustApp()
			if err != nil {
				return err
			}
			res, err := app.Container.Orchestrator().Switch(cliContext(cmd), id, workspace.SwitchOptions{Workspace: withWorkspace})
			if err != nil {
				return err
			}
			return app.Formatter.Result(res, nil)
		},
	}

	cmd.Flags().BoolVarP(&withWorkspace, "workspace", "w", false, "also switch to the linked virtual desktop")

	return cmd
}

func newDesktopDeleteCmd() *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a desktop profile",
		Long: `Delete a desktop profile. The active profile and the last remaining
profile cannot be deleted. The profile folder is kept unless --purge is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := mustApp()
			if err != nil {
				return err
			}
			if err := app.Container.Orchestrator().Delete(cliContext(cmd), id, workspace.DeleteOptions{Purge: purge}); err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]any{"deleted": id, "purged": purge}, func() error {
				return app.Formatter.Success("Deleted desktop %d", id)
			})
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "also remove the profile folder and its files")

	return cmd
}

func newDesktopRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a desktop profile",
		Args:  cobra.ExactArgs(2),
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
			if err := orch.Rename(cliContext(cmd), id, args[1]); err != nil {
				return err
			}
			view, err := orch.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return app.Formatter.Emit(view, func() error {
				return app.Formatter.Success("Desktop %d is now %q", id, view.Name)
			})
		},
	}
}

func newDesktopRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Switch back to the original desktop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			res, err := app.Container.Orchestrator().RestoreOriginal(cliContext(cmd))
			if err != nil {
				return err
			}
			return app.Formatter.Result(res, nil)
		},
	}
}

func newDesktopOriginalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "original",
		Short: "Show the original desktop path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			path := app.Container.Orchestrator().OriginalPath(cmd.Context())
			return app.Formatter.Emit(map[string]string{"path": path}, func() error {
				return app.Formatter.Println("%s", path)
			})
		},
	}
}

func newDesktopRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Repair the Desktop folder after a vanished profile folder",
		Long: `Check the live Desktop folder setting. If it points at a profile folder
that no longer exists, switch back to the original desktop. Also brings the
active profile in line with the live setting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			changed, err := app.Container.Orchestrator().Recover(cliContext(cmd))
			if err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]bool{"changed": changed}, func() error {
				if changed {
					return app.Formatter.Success("Desktop state repaired")
				}
				return app.Formatter.Info("Nothing to repair")
			})
		},
	}
}
