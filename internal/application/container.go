// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jbctechsolutions/deskflip/internal/adapters/sqlite"
	"github.com/jbctechsolutions/deskflip/internal/application/hotkeys"
	"github.com/jbctechsolutions/deskflip/internal/application/icons"
	"github.com/jbctechsolutions/deskflip/internal/application/observability"
	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/application/redirect"
	"github.com/jbctechsolutions/deskflip/internal/application/vdesk"
	"github.com/jbctechsolutions/deskflip/internal/application/workspace"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/config"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/filesystem"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/metrics"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/platform"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/retry"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/storage"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/tracing"
)

// Platform bundles the OS drivers. Nil fields are filled with the native
// implementations.
type Platform struct {
	Desktop ports.DesktopShell
	Folder  ports.FolderShell
	VDesk   ports.VirtualDesktopDriver
	Keys    ports.KeyHook
	Hider   ports.FileHider
}

// Options tune container construction.
type Options struct {
	Verbose  bool     // Override log level to debug when true
	Platform Platform // Driver overrides, mainly for tests
}

// Container holds all application dependencies and provides a central
// point for dependency injection. It manages the lifecycle of services
// and ensures proper initialization order.
type Container struct {
	config  *config.Config
	verbose bool

	// Database connection for the operation journal
	dbConn *sqlite.Connection
	db     *sql.DB

	// Platform drivers
	platform Platform

	// Stores
	stateStore  *storage.StateFileStore
	layoutStore *storage.LayoutFileStore
	hotkeyStore *storage.HotkeyFileStore
	historyRepo ports.HistoryRepository

	// Application services
	codec        *icons.Codec
	redirector   *redirect.Redirector
	bridge       *vdesk.Bridge
	orchestrator *workspace.Orchestrator
	hotkeys      *hotkeys.Service

	// Observability
	logger               *logging.Logger
	tracer               *tracing.Tracer
	metrics              *metrics.Metrics
	observabilityService *observability.Service
}

// NewContainer creates a new dependency injection container with all services
// initialized based on the provided configuration.
func NewContainer(cfg *config.Config, opts Options) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Container{
		config:  cfg,
		verbose: opts.Verbose,
	}

	c.initLogging()
	c.initPlatform(opts.Platform)

	if err := filesystem.EnsureDir(cfg.Workspace.Root); err != nil {
		return nil, fmt.Errorf("failed to create managed root: %w", err)
	}

	if err := c.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c.initStores()

	if err := c.initObservability(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := c.initServices(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return c, nil
}

func (c *Container) initLogging() {
	level := logging.Level(c.config.Logging.Level)
	if c.verbose {
		level = logging.LevelDebug
	}
	c.logger = logging.New(logging.Config{
		Level:  level,
		Format: logging.Format(c.config.Logging.Format),
		Output: os.Stderr,
	})
}

func (c *Container) initPlatform(p Platform) {
	if p.Desktop == nil {
		p.Desktop = platform.NewDesktopShell(c.logger)
	}
	if p.Folder == nil {
		p.Folder = platform.NewFolderShell(c.logger)
	}
	if p.VDesk == nil {
		p.VDesk = platform.NewVirtualDesktopDriver(c.logger)
	}
	if p.Keys == nil {
		p.Keys = platform.NewKeyHook(c.logger)
	}
	if p.Hider == nil {
		p.Hider = platform.NewFileHider()
	}
	c.platform = p
}

// initDatabase opens the journal database when history is enabled.
func (c *Container) initDatabase() error {
	if !c.config.Observability.History.Enabled {
		return nil
	}

	conn, err := sqlite.NewConnection(c.config.Observability.History.Path)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	if err := conn.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db, err := conn.DB()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	c.dbConn = conn
	c.db = db
	return nil
}

func (c *Container) initStores() {
	ws := c.config.Workspace
	c.stateStore = storage.NewStateFileStore(storage.StateFileStoreConfig{
		Root:   ws.Root,
		Home:   ws.Home,
		Shell:  c.platform.Folder,
		Logger: c.logger,
	})
	c.layoutStore = storage.NewLayoutFileStore(c.platform.Hider, c.logger)
	c.hotkeyStore = storage.NewHotkeyFileStore(filepath.Join(ws.Root, filesystem.HotkeysFile))
	if c.db != nil {
		c.historyRepo = storage.NewHistoryRepository(c.db)
	}
}

func (c *Container) initObservability() error {
	obs := c.config.Observability

	tracer, err := tracing.New(context.Background(), tracing.Config{
		Enabled:      obs.Tracing.Enabled,
		ExporterType: tracing.ExporterType(obs.Tracing.ExporterType),
		OTLPEndpoint: obs.Tracing.OTLPEndpoint,
		ServiceName:  obs.Tracing.ServiceName,
		Environment:  "production",
		SampleRate:   obs.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	c.tracer = tracer

	if obs.Metrics.Enabled {
		c.metrics = metrics.New()
	}

	c.observabilityService = observability.NewService(observability.ServiceConfig{
		Logger:  c.logger,
		Tracer:  c.tracer,
		Metrics: c.metrics,
		Journal: c.historyRepo,
	})
	return nil
}

func (c *Container) initServices() error {
	timing := c.config.Timing

	c.codec = icons.NewCodec(icons.CodecConfig{
		Shell:     c.platform.Desktop,
		Store:     c.layoutStore,
		Readiness: retry.NewPolicy(timing.ReadinessAttempts, timing.ReadinessInterval),
		Logger:    c.logger,
	})
	c.redirector = redirect.NewRedirector(c.platform.Folder, timing.RedirectSettle, c.logger)
	c.bridge = vdesk.NewBridge(c.platform.VDesk, retry.NewPolicy(timing.SlotAttempts, timing.SlotSettle), c.logger)

	orch, err := workspace.NewOrchestrator(workspace.Config{
		Store:          c.stateStore,
		Layouts:        c.codec,
		Redirector:     c.redirector,
		Slots:          c.bridge,
		Observer:       c.observabilityService,
		MaxProfiles:    c.config.Workspace.MaxProfiles,
		RestoreSettle:  timing.RestoreSettle,
		ForceSaveDelay: timing.ForceSaveDelay,
		Logger:         c.logger,
	})
	if err != nil {
		return err
	}
	c.orchestrator = orch

	c.hotkeys = hotkeys.NewService(c.hotkeyStore, c.logger)
	return nil
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	var errs []error
	if c.tracer != nil {
		if err := c.tracer.Shutdown(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if c.dbConn != nil {
		if err := c.dbConn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// DB returns the journal database, or nil when history is disabled.
func (c *Container) DB() *sql.DB {
	return c.db
}

// Logger returns the structured logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the OpenTelemetry tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}

// Metrics returns the Prometheus collectors, or nil when metrics are disabled.
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// HistoryRepository returns the operation journal, or nil when history is
// disabled.
func (c *Container) HistoryRepository() ports.HistoryRepository {
	return c.historyRepo
}

// StateStore returns the workspace state store.
func (c *Container) StateStore() *storage.StateFileStore {
	return c.stateStore
}

// Orchestrator returns the workspace orchestrator.
func (c *Container) Orchestrator() *workspace.Orchestrator {
	return c.orchestrator
}

// Bridge returns the virtual desktop bridge.
func (c *Container) Bridge() *vdesk.Bridge {
	return c.bridge
}

// Hotkeys returns the hotkey settings service.
func (c *Container) Hotkeys() *hotkeys.Service {
	return c.hotkeys
}

// KeyHook returns the platform keyboard hook.
func (c *Container) KeyHook() ports.KeyHook {
	return c.platform.Keys
}

// ObservabilityService returns the operation observer.
func (c *Container) ObservabilityService() *observability.Service {
	return c.observabilityService
}
