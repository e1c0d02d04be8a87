package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/deskflip/internal/application"
	"github.com/jbctechsolutions/deskflip/internal/application/hotkeys"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/scheduler"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/watcher"
	"github.com/jbctechsolutions/deskflip/internal/presentation/api"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var (
		listen     string
		noHotkeys  bool
		noAutosave bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local command API and background services",
		Long: `Run deskflip in the background.

Serves the HTTP command API on a loopback address, listens for the switch
hotkeys, reloads hotkey settings when the settings file changes and, when
enabled, captures the active layout on the autosave schedule. Stops on
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := mustApp()
			if err != nil {
				return err
			}
			cfg := app.Container.Config()
			opts := serveOptions{
				Listen:   cfg.Server.Listen,
				Hotkeys:  cfg.Server.Hotkeys && !noHotkeys,
				Autosave: cfg.Autosave.Enabled && !noAutosave,
				Schedule: cfg.Autosave.Schedule,
			}
			if cmd.Flags().Changed("listen") {
				opts.Listen = listen
			}
			return serve(logging.WithSource(cmd.Context(), "serve"), app, opts)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "override server.listen (loopback host:port)")
	cmd.Flags().BoolVar(&noHotkeys, "no-hotkeys", false, "do not install the hotkey listener")
	cmd.Flags().BoolVar(&noAutosave, "no-autosave", false, "do not run scheduled layout capture")

	return cmd
}

type serveOptions struct {
	Listen   string
	Hotkeys  bool
	Autosave bool
	Schedule string
}

// serve runs the API server and background workers until ctx is done.
func serve(ctx context.Context, app *AppContext, opts serveOptions) error {
	c := app.Container
	logger := c.Logger().With("component", "serve")
	orch := c.Orchestrator()

	if changed, err := orch.Recover(ctx); err != nil {
		logger.Warn("startup recovery failed", "error", err)
	} else if changed {
		logger.Info("startup recovery repaired the desktop folder")
	}
	if m := c.Metrics(); m != nil {
		m.SetProfiles(len(orch.List(ctx)))
	}

	srv, err := api.New(api.Config{
		Listen:    opts.Listen,
		Workspace: orch,
		Desktops:  c.Bridge(),
		Hotkeys:   c.Hotkeys(),
		History:   c.HistoryRepository(),
		Metrics:   c.Metrics(),
		Logger:    c.Logger(),
	})
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	var sched *scheduler.Scheduler
	if opts.Autosave {
		sched, err = startAutosave(c, opts.Schedule)
		if err != nil {
			_ = srv.Stop(context.Background())
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if opts.Hotkeys {
		listener := hotkeys.NewListener(c.KeyHook(), c.Hotkeys().Cell(), hotkeys.DefaultQueueSize, c.Logger())
		dispatcher := hotkeys.NewDispatcher(orch, c.Logger())

		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := listener.Run(ctx); err != nil {
				logger.Warn("hotkey listener stopped", "error", err)
			}
		}()
		go func() {
			defer wg.Done()
			dispatcher.Run(ctx, listener.Requests())
		}()
	}

	if w, err := watcher.New(watcher.DefaultConfig()); err != nil {
		logger.Warn("hotkey settings watcher unavailable", "error", err)
	} else if err := w.Add(c.Hotkeys().Path()); err != nil {
		logger.Warn("hotkey settings watcher unavailable", "error", err)
		_ = w.Close()
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.Run(ctx, func(watcher.Event) {
				if err := c.Hotkeys().Reload(); err != nil {
					logger.Warn("hotkey settings reload failed", "error", err)
				}
			})
			if err != nil {
				logger.Warn("hotkey settings watcher stopped", "error", err)
			}
		}()
	}

	_ = app.Formatter.Success("Serving on http://%s", srv.Addr())
	<-ctx.Done()
	logger.Info("shutting down")

	stopCtx := context.Background()
	if sched != nil {
		if err := sched.Stop(stopCtx); err != nil {
			logger.Warn("scheduler stop failed", "error", err)
		}
	}
	err = srv.Stop(stopCtx)
	cancel()
	wg.Wait()
	return err
}

func startAutosave(c *application.Container, spec string) (*scheduler.Scheduler, error) {
	m := c.Metrics()
	sched := scheduler.New(scheduler.Config{
		Logger: c.Logger(),
		OnOutcome: func(_, outcome string) {
			if m != nil {
				m.RecordAutosave(outcome)
			}
		},
	})
	err := sched.Register(scheduler.FuncJob{
		JobName: "autosave",
		Spec:    spec,
		Fn:      c.Orchestrator().AutosaveActive,
	})
	if err != nil {
		return nil, fmt.Errorf("register autosave: %w", err)
	}
	if err := sched.Start(); err != nil {
		return nil, fmt.Errorf("start scheduler: %w", err)
	}
	return sched, nil
}
