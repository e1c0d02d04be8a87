// Package commands implements the CLI commands for deskflip.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/deskflip/internal/application"
	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/config"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/presentation/cli/output"
)

// Version information - set at build time via ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GlobalFlags holds the global CLI flags.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	Compact    bool
	Verbose    bool
}

// AppContext holds the application runtime context.
type AppContext struct {
	Config    *config.Config
	Formatter *output.Formatter
	Flags     *GlobalFlags
	Container *application.Container
}

var (
	globalFlags GlobalFlags
	appCtx      *AppContext
	appCtxMu    sync.RWMutex // Protects appCtx for thread-safe access
)

// newContainer builds the application container; tests replace it to
// inject platform drivers.
var newContainer = func(cfg *config.Config, verbose bool) (*application.Container, error) {
	return application.NewContainer(cfg, application.Options{Verbose: verbose})
}

// NewRootCmd creates the root command for the deskflip CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deskflip",
		Short: "Deskflip - independent desktop profiles",
		Long: `Deskflip keeps several desktop profiles on one machine.

Each profile owns a folder of files and a saved icon layout. Switching
profiles points the Desktop folder at the profile folder and can also move
to a linked virtual desktop.

Profile folders and state live under the managed root (default ~/Deskflip).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip initialization for help, version, and completion commands
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" || cmd == cmd.Root() {
				return nil
			}
			return initializeApp(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "config file path (default: ~/.deskflip/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Output, "output", "o", "text", "output format: text, json")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Compact, "compact", false, "print JSON output on a single line")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewDesktopCmd())
	rootCmd.AddCommand(NewLayoutCmd())
	rootCmd.AddCommand(NewLinkCmd())
	rootCmd.AddCommand(NewUnlinkCmd())
	rootCmd.AddCommand(NewLinksCmd())
	rootCmd.AddCommand(NewVdeskCmd())
	rootCmd.AddCommand(NewHotkeysCmd())
	rootCmd.AddCommand(NewHistoryCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewConsoleCmd())

	return rootCmd
}

// newFormatter builds a formatter for the current flags writing to the
// command's output.
func newFormatter(cmd *cobra.Command) (*output.Formatter, error) {
	format, err := output.ParseFormat(globalFlags.Output)
	if err != nil {
		return nil, domainErrors.NewError(domainErrors.CodeValidation, "invalid --output", err)
	}
	return output.NewFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithFormat(format),
		output.WithColor(format != output.FormatJSON && output.IsColorSupported()),
		output.WithIndent(jsonIndent(globalFlags.Compact)),
	), nil
}

func jsonIndent(compact bool) string {
	if compact {
		return ""
	}
	return "  "
}

// initializeApp initializes the application context. An already running
// context (console mode) is reused with a fresh formatter.
func initializeApp(cmd *cobra.Command) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	appCtxMu.Lock()
	defer appCtxMu.Unlock()

	if appCtx != nil {
		appCtx.Formatter = formatter
		return nil
	}

	cfg, err := loadConfig(globalFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	container, err := newContainer(cfg, globalFlags.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	appCtx = &AppContext{
		Config:    cfg,
		Formatter: formatter,
		Flags:     &globalFlags,
		Container: container,
	}
	return nil
}

// loadConfig loads configuration from the specified file or default location.
func loadConfig(configPath string) (*config.Config, error) {
	loader, err := config.NewLoader("")
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}

	return loader.Load(configPath)
}

// GetAppContext returns the current application context.
// Returns nil if the app hasn't been initialized.
func GetAppContext() *AppContext {
	appCtxMu.RLock()
	defer appCtxMu.RUnlock()
	return appCtx
}

// GetFormatter returns the output formatter.
// Creates a default formatter if app context is not initialized.
func GetFormatter() *output.Formatter {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Formatter
	}
	return output.NewFormatter(output.WithWriter(os.Stderr), output.WithColor(output.IsColorSupported()))
}

// GetContainer returns the application container.
// Returns nil if the app hasn't been initialized.
func GetContainer() *application.Container {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Container
	}
	return nil
}

// mustApp returns the initialized context or an error for commands that
// ran without initialization.
func mustApp() (*AppContext, error) {
	app := GetAppContext()
	if app == nil || app.Container == nil {
		return nil, errors.New("application not initialized")
	}
	return app, nil
}

// Shutdown releases the container and clears the application context.
func Shutdown() {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()

	if appCtx == nil {
		return
	}
	if appCtx.Container != nil {
		_ = appCtx.Container.Close()
	}
	appCtx = nil
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch domainErrors.CodeOf(err) {
	case domainErrors.CodeValidation:
		return 2
	case domainErrors.CodeNotFound:
		return 3
	case domainErrors.CodeConflict:
		return 4
	case domainErrors.CodeUnsupported:
		return 5
	case domainErrors.CodePlatform:
		return 6
	case domainErrors.CodeStorage:
		return 7
	default:
		return 1
	}
}

// shutdownGrace bounds how long Execute waits for a command after a signal.
const shutdownGrace = 10 * time.Second

// Execute runs the root command with graceful shutdown support.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- NewRootCmd().ExecuteContext(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			GetFormatter().Error("%s", err.Error())
			Shutdown()
			os.Exit(ExitCode(err))
		}
	case <-ctx.Done():
		GetFormatter().Warning("Received signal, shutting down...")
		select {
		case <-errChan:
		case <-time.After(shutdownGrace):
		}
		Shutdown()
		os.Exit(130) // Standard exit code for SIGINT
	}

	Shutdown()
}

// parseID parses a profile id argument.
func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("invalid desktop id %q", arg), err)
	}
	return id, nil
}

// parseIndex parses a zero-based virtual desktop index argument.
func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 {
		return 0, domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("invalid virtual desktop index %q", arg), err)
	}
	return index, nil
}

// cliContext tags the command context as a CLI request.
func cliContext(cmd *cobra.Command) context.Context {
	return logging.WithSource(cmd.Context(), "cli")
}
