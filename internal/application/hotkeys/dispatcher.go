package hotkeys

import (
	"context"

	"github.com/jbctechsolutions/deskflip/internal/application/workspace"
	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

// PositionSwitcher switches to the n-th profile.
type PositionSwitcher interface {
	SwitchToPosition(ctx context.Context, n int) (workspace.Result, error)
}

// Dispatcher executes queued hotkey requests one at a time.
type Dispatcher struct {
	switcher PositionSwitcher
	logger   *logging.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(switcher PositionSwitcher, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{switcher: switcher, logger: logger.With("component", "hotkey-dispatcher")}
}

// Run drains requests until ctx is done or the channel is closed.
func (d *Dispatcher) Run(ctx context.Context, requests <-chan hotkey.Request) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			d.handle(ctx, req)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, req hotkey.Request) {
	ctx = logging.WithSource(ctx, "hotkey")
	res, err := d.switcher.SwitchToPosition(ctx, req.Position)
	switch {
	case err != nil:
		d.logger.WarnContext(ctx, "hotkey switch failed", "position", req.Position, "error", err)
	case res.Skipped:
		d.logger.DebugContext(ctx, "hotkey selected the active profile", "position", req.Position)
	default:
		d.logger.InfoContext(ctx, "hotkey switch", "position", req.Position, "to", res.ToID)
	}
}
