package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
)

// NewVdeskCmd creates the virtual desktop command group.
func NewVdeskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vdesk",
		Aliases: []string{"vd"},
		Short:   "Control native virtual desktops",
		Long: `Inspect and drive the operating system's virtual desktops.

Indexes are zero-based. Window handles accept decimal or 0x-prefixed hex.`,
	}

	cmd.AddCommand(newVdeskCountCmd())
	cmd.AddCommand(newVdeskCurrentCmd())
	cmd.AddCommand(newVdeskSwitchCmd())
	cmd.AddCommand(newVdeskStepCmd("left"))
	cmd.AddCommand(newVdeskStepCmd("right"))
	cmd.AddCommand(newVdeskCreateCmd())
	cmd.AddCommand(newVdeskRemoveCmd())
	cmd.AddCommand(newVdeskMoveCmd())
	cmd.AddCommand(newVdeskWhichCmd())
	cmd.AddCommand(newVdeskWindowsCmd())

	return cmd
}

// parseHandle parses a window handle argument.
func parseHandle(arg string) (uintptr, error) {
	h, err := strconv.ParseUint(arg, 0, 64)
	if err != nil || h == 0 {
		return 0, domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("invalid window handle %q", arg), err)
	}
	return uintptr(h), nil
}

func newVdeskCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of virtual desktops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			n, err := app.Container.Bridge().SlotCount(cliContext(cmd))
			if err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]int{"count": n}, func() error {
				return app.Formatter.Println("%d", n)
			})
		},
	}
}

func newVdeskCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the index of the current virtual desktop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			i, err := app.Container.Bridge().CurrentSlot(cliContext(cmd))
			if err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]int{"current": i}, func() error {
				return app.Formatter.Println("%d", i)
			})
		},
	}
}

func newVdeskSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <index>",
		Short: "Switch to a virtual desktop, creating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			app, err := mustApp()
			if err != nil {
				return err
			}
			if err := app.Container.Bridge().GoTo(cliContext(cmd), index); err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]int{"current": index}, func() error {
				return app.Formatter.Success("Switched to virtual desktop %d", index)
			})
		},
	}
}

func newVdeskStepCmd(dir string) *cobra.Command {
	return &cobra.Command{
		Use:   dir,
		Short: fmt.Sprintf("Switch to the virtual desktop on the %s", dir),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			bridge := app.Container.Bridge()
			step := bridge.SwitchLeft
			if dir == "right" {
				step = bridge.SwitchRight
			}
			ctx := cliContext(cmd)
			if err := step(ctx); err != nil {
				return err
			}
			i, err := bridge.CurrentSlot(ctx)
			if err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]int{"current": i}, func() error {
				return app.Formatter.Success("Now on virtual desktop %d", i)
			})
		},
	}
}

func newVdeskCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Append a new virtual desktop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			i, err := app.Container.Bridge().CreateSlot(cliContext(cmd))
			if err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]int{"created": i}, func() error {
				return app.Formatter.Success("Created virtual desktop %d", i)
			})
		},
	}
}

func newVdeskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm"},
		Short:   "Remove the current virtual desktop",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			if err := app.Container.Bridge().RemoveCurrentSlot(cliContext(cmd)); err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]bool{"removed": true}, func() error {
				return app.Formatter.Success("Removed the current virtual desktop")
			})
		},
	}
}

func newVdeskMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <hwnd> <index>",
		Short: "Move a window to a virtual desktop",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hwnd, err := parseHandle(args[0])
			if err != nil {
				return err
			}
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			app, err := mustApp()
			if err != nil {
				return err
			}
			if err := app.Container.Bridge().MoveWindow(cliContext(cmd), hwnd, index); err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]any{"hwnd": hwnd, "desktop_index": index}, func() error {
				return app.Formatter.Success("Moved window 0x%x to virtual desktop %d", hwnd, index)
			})
		},
	}
}

func newVdeskWhichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "which <hwnd>",
		Short: "Print the virtual desktop a window lives on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hwnd, err := parseHandle(args[0])
			if err != nil {
				return err
			}
			app, err := mustApp()
			if err != nil {
				return err
			}
			i, err := app.Container.Bridge().SlotContaining(cliContext(cmd), hwnd)
			if err != nil {
				return err
			}
			return app.Formatter.Emit(map[string]any{"hwnd": hwnd, "desktop_index": i}, func() error {
				return app.Formatter.Println("%d", i)
			})
		},
	}
}

func newVdeskWindowsCmd() *cobra.Command {
	var current bool

	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List visible windows and their virtual desktops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			bridge := app.Container.Bridge()
			list := bridge.EnumerateVisibleWindows
			if current {
				list = bridge.WindowsOnCurrentSlot
			}
			windows, err := list(cliContext(cmd))
			if err != nil {
				return err
			}
			return app.Formatter.Windows(windows)
		},
	}

	cmd.Flags().BoolVar(&current, "current", false, "only windows on the current virtual desktop")

	return cmd
}
