package commands

import (
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
)

// NewHotkeysCmd creates the hotkeys command group.
func NewHotkeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hotkeys",
		Short: "Configure the desktop switch hotkeys",
		Long: `Modifier+1 through Modifier+9 switch to the Nth desktop profile while
'deskflip serve' runs with hotkeys enabled. Changes apply to a running
server without restarting it.`,
	}

	cmd.AddCommand(newHotkeysShowCmd())
	cmd.AddCommand(newHotkeysSetCmd())
	cmd.AddCommand(newHotkeysToggleCmd())

	return cmd
}

func newHotkeysShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the hotkey settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			return app.Formatter.Hotkeys(app.Container.Hotkeys().Settings())
		},
	}
}

func newHotkeysSetCmd() *cobra.Command {
	var (
		enabled  bool
		modifier string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the hotkey settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			svc := app.Container.Hotkeys()
			next := svc.Settings()
			if cmd.Flags().Changed("enabled") {
				next.Enabled = enabled
			}
			if cmd.Flags().Changed("modifier") {
				m, err := hotkey.ParseModifier(modifier)
				if err != nil {
					return err
				}
				next.Modifier = m
			}
			saved, err := svc.Set(next)
			if err != nil {
				return err
			}
			return app.Formatter.Hotkeys(saved)
		},
	}

	cmd.Flags().BoolVar(&enabled, "enabled", true, "enable or disable the hotkeys")
	cmd.Flags().StringVar(&modifier, "modifier", "", "modifier: alt, ctrl+alt or ctrl+shift")

	return cmd
}

func newHotkeysToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Enable or disable the hotkeys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			saved, err := app.Container.Hotkeys().Toggle()
			if err != nil {
				return err
			}
			return app.Formatter.Hotkeys(saved)
		},
	}
}
