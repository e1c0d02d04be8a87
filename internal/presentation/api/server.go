// Package api serves the deskflip command API over HTTP on a loopback
// address.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/application/workspace"
	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
	"github.com/jbctechsolutions/deskflip/internal/domain/vdesk"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/metrics"
)

// Workspace is the profile surface of the API.
type Workspace interface {
	List(ctx context.Context) []profile.View
	Get(ctx context.Context, id int) (profile.View, error)
	Create(ctx context.Context) (profile.View, error)
	Delete(ctx context.Context, id int, opts workspace.DeleteOptions) error
	Switch(ctx context.Context, id int, opts workspace.SwitchOptions) (workspace.Result, error)
	RestoreOriginal(ctx context.Context) (workspace.Result, error)
	OriginalPath(ctx context.Context) string
	GetLayout(ctx context.Context, id int) (layout.Layout, error)
	SaveLayout(ctx context.Context, id int) (layout.Layout, error)
	RestoreLayout(ctx context.Context, id int) error
	DisableAutoArrange(ctx context.Context) error
	Links(ctx context.Context) map[int]string
	Link(ctx context.Context, id int, slot string) error
	Unlink(ctx context.Context, id int) error
}

// Desktops is the virtual desktop surface of the API.
type Desktops interface {
	SlotCount(ctx context.Context) (int, error)
	CurrentSlot(ctx context.Context) (int, error)
	GoTo(ctx context.Context, index int) error
	EnumerateVisibleWindows(ctx context.Context) ([]vdesk.Window, error)
	WindowsOnCurrentSlot(ctx context.Context) ([]vdesk.Window, error)
}

// Hotkeys is the hotkey settings surface of the API.
type Hotkeys interface {
	Settings() hotkey.Settings
	Set(s hotkey.Settings) (hotkey.Settings, error)
}

// Config configures a Server.
type Config struct {
	Listen          string // host:port; the host must be a loopback address
	ShutdownTimeout time.Duration

	Workspace Workspace
	Desktops  Desktops
	Hotkeys   Hotkeys
	History   ports.HistoryRepository // nil when the journal is disabled
	Metrics   *metrics.Metrics        // nil when metrics are disabled
	Logger    *logging.Logger
}

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 5 * time.Second

// Server is the loopback HTTP command API.
type Server struct {
	cfg    Config
	logger *logging.Logger

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// New validates cfg and creates a server.
func New(cfg Config) (*Server, error) {
	if cfg.Workspace == nil || cfg.Desktops == nil || cfg.Hotkeys == nil {
		return nil, errors.New("api: workspace, desktops and hotkeys are required")
	}
	if err := ValidateListen(cfg.Listen); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Server{cfg: cfg, logger: logger.With("component", "api")}, nil
}

// ValidateListen checks that addr is host:port on a loopback host.
func ValidateListen(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("api: invalid listen address %q: %w", addr, err)
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("api: listen address %q is not loopback", addr)
	}
	return nil
}

// Handler builds the chi router with all routes wired.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	if s.cfg.Metrics != nil {
		r.Use(metricsMiddleware(s.cfg.Metrics))
	}
	r.Use(sourceMiddleware)

	r.Get("/healthz", s.handleHealth())
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	r.Get("/profiles", s.handleListProfiles())
	r.Post("/profiles", s.handleCreateProfile())
	r.Get("/profiles/{id}", s.handleGetProfile())
	r.Delete("/profiles/{id}", s.handleDeleteProfile())
	r.Post("/profiles/{id}/switch", s.handleSwitch())
	r.Get("/profiles/{id}/layout", s.handleGetLayout())
	r.Post("/profiles/{id}/layout", s.handleSaveLayout())
	r.Post("/profiles/{id}/layout/restore", s.handleRestoreLayout())
	r.Put("/profiles/{id}/link", s.handleLink())
	r.Delete("/profiles/{id}/link", s.handleUnlink())

	r.Post("/restore", s.handleRestoreOriginal())
	r.Get("/original", s.handleOriginal())
	r.Post("/layout/no-arrange", s.handleNoArrange())
	r.Get("/links", s.handleLinks())

	r.Get("/vdesk", s.handleVdesk())
	r.Post("/vdesk/switch/{index}", s.handleVdeskSwitch())
	r.Get("/vdesk/windows", s.handleWindows())

	r.Get("/hotkeys", s.handleGetHotkeys())
	r.Put("/hotkeys", s.handleSetHotkeys())

	r.Get("/history", s.handleHistory())

	return r
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("api: server already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("api: listen failed: %w", err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.addr = ln.Addr()

	go func() {
		s.logger.Info("api listening", "addr", s.addr.String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api serve error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("api shutting down")
	return srv.Shutdown(ctx)
}
