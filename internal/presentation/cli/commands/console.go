package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// consoleHistoryFile is kept under the managed root.
const consoleHistoryFile = ".console_history"

// NewConsoleCmd creates the console command for interactive mode.
func NewConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive deskflip shell",
		Long: `Start an interactive shell that runs deskflip commands without
reloading configuration between them.

Type any command without the leading 'deskflip', for example:
  desktop list
  desktop switch 2 --workspace
  vdesk windows --current

Type 'exit' or 'quit' (or press Ctrl+D) to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			return runConsole(cmd, app)
		},
	}
}

func runConsole(cmd *cobra.Command, app *AppContext) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "deskflip> ",
		HistoryFile:     filepath.Join(app.Config.Workspace.Root, consoleHistoryFile),
		AutoComplete:    consoleCompleter(cmd.Root()),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          cmd.OutOrStdout(),
	})
	if err != nil {
		return fmt.Errorf("could not create readline: %w", err)
	}
	defer rl.Close()

	app.Formatter.Info("Type a command, 'help' for the command list or 'exit' to leave.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "exit", "quit":
			return nil
		case "console":
			app.Formatter.Warning("Already in the console")
			continue
		}

		if err := runConsoleLine(cmd, fields); err != nil {
			GetFormatter().Error("%s", err.Error())
		}
	}
}

// runConsoleLine executes one command line against a fresh command tree.
// The application context stays initialized between lines.
func runConsoleLine(parent *cobra.Command, args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(parent.OutOrStdout())
	root.SetErr(parent.ErrOrStderr())
	return root.ExecuteContext(parent.Context())
}

// consoleCompleter builds tab completion from the command tree.
func consoleCompleter(root *cobra.Command) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("exit"),
		readline.PcItem("quit"),
		readline.PcItem("help"),
	}
	for _, c := range root.Commands() {
		if c.Hidden || c.Name() == "console" {
			continue
		}
		items = append(items, completerItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}

func completerItem(cmd *cobra.Command) readline.PrefixCompleterInterface {
	var children []readline.PrefixCompleterInterface
	for _, c := range cmd.Commands() {
		if c.Hidden {
			continue
		}
		children = append(children, completerItem(c))
	}
	return readline.PcItem(cmd.Name(), children...)
}
