// Package icons captures and restores desktop icon layouts through the
// desktop shell view.
package icons

import (
	"context"
	"maps"
	"slices"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/retry"
)

// Codec reads and writes icon positions and persists layouts per folder.
type Codec struct {
	shell     ports.DesktopShell
	store     ports.LayoutStore
	readiness retry.Policy
	logger    *logging.Logger
}

// CodecConfig configures a Codec.
type CodecConfig struct {
	Shell ports.DesktopShell
	Store ports.LayoutStore

	// Readiness bounds the wait for the desktop view to list items after a
	// folder change.
	Readiness retry.Policy
	Logger    *logging.Logger
}

// NewCodec creates a Codec.
func NewCodec(cfg CodecConfig) *Codec {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Codec{
		shell:     cfg.Shell,
		store:     cfg.Store,
		readiness: cfg.Readiness,
		logger:    logger.With("component", "icon_codec"),
	}
}

// Capture reads every background item of the desktop view. Items that
// fail to read or have no name are skipped; duplicate names keep the last
// position seen.
func (c *Codec) Capture(ctx context.Context) (layout.Layout, error) {
	view, err := c.shell.OpenView(ctx)
	if err != nil {
		return layout.Layout{}, err
	}
	defer view.Close()

	count, err := view.ItemCount()
	if err != nil {
		return layout.Layout{}, err
	}

	l := layout.New()
	skipped := 0
	for i := 0; i < count; i++ {
		item, err := view.Item(i)
		if err != nil || item.Name == "" {
			skipped++
			continue
		}
		l.Set(item.Name, item.Position)
	}

	c.logger.DebugContext(ctx, "layout captured", "items", count, "icons", l.Len(), "skipped", skipped)
	return l, nil
}

// Apply positions the icons of l on the desktop. An empty layout returns
// immediately without opening the view. Per-icon failures are logged and
// never returned.
func (c *Codec) Apply(ctx context.Context, l layout.Layout) error {
	if l.IsEmpty() {
		return nil
	}

	view, err := c.shell.OpenView(ctx)
	if err != nil {
		return err
	}
	defer view.Close()

	c.prepare(ctx, view)

	expected := l.Len()
	ready := c.readiness.Wait(ctx, func() bool {
		n, err := view.ItemCount()
		return err == nil && n >= 1 && n*2 >= expected
	})
	if !ready {
		c.logger.DebugContext(ctx, "desktop view not ready, applying anyway", "expected", expected)
	}

	applied, failed := 0, 0
	for _, name := range slices.Sorted(maps.Keys(l.Icons)) {
		pos := layout.Snap(l.Icons[name], layout.GridPitch)
		if err := view.PositionItem(name, pos); err != nil {
			failed++
			c.logger.DebugContext(ctx, "icon not positioned", "name", name, "error", err)
			continue
		}
		applied++
	}

	c.logger.DebugContext(ctx, "layout applied", "applied", applied, "failed", failed)
	return nil
}

// DisableAutoArrange switches the view to icon mode and clears
// auto-arrange and snap-to-grid.
func (c *Codec) DisableAutoArrange(ctx context.Context) error {
	view, err := c.shell.OpenView(ctx)
	if err != nil {
		return err
	}
	defer view.Close()

	if err := view.SetIconMode(); err != nil {
		return err
	}
	return view.ClearArrangeFlags()
}

// Read returns the layout saved in folder.
func (c *Codec) Read(folder string) layout.Layout {
	return c.store.Read(folder)
}

// Write saves l into folder.
func (c *Codec) Write(folder string, l layout.Layout) error {
	return c.store.Write(folder, l)
}

func (c *Codec) prepare(ctx context.Context, view ports.DesktopView) {
	if err := view.SetIconMode(); err != nil {
		c.logger.DebugContext(ctx, "icon mode not set", "error", err)
	}
	if err := view.ClearArrangeFlags(); err != nil {
		c.logger.DebugContext(ctx, "arrange flags not cleared", "error", err)
	}
}
