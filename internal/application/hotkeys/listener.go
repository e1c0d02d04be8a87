package hotkeys

import (
	"context"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

// DefaultQueueSize is the number of pending switch requests kept while a
// switch is running.
const DefaultQueueSize = 4

// Listener turns matching key events into switch requests.
type Listener struct {
	hook     ports.KeyHook
	cell     *Cell
	requests chan hotkey.Request
	logger   *logging.Logger
}

// NewListener creates a listener that reads settings from cell.
func NewListener(hook ports.KeyHook, cell *Cell, queueSize int, logger *logging.Logger) *Listener {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Listener{
		hook:     hook,
		cell:     cell,
		requests: make(chan hotkey.Request, queueSize),
		logger:   logger.With("component", "hotkey-listener"),
	}
}

// Requests returns the channel drained by the dispatcher.
func (l *Listener) Requests() <-chan hotkey.Request {
	return l.requests
}

// Run installs the hook and blocks until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info("hotkey listener started", "modifier", l.cell.Get().Modifier)
	defer l.logger.Info("hotkey listener stopped")
	return l.hook.Run(ctx, l.handle)
}

// handle runs on the hook thread. It never blocks: when the queue is full
// the request is dropped.
func (l *Listener) handle(ev hotkey.KeyEvent) bool {
	req, ok := hotkey.Match(l.cell.Get(), ev)
	if !ok {
		return false
	}
	select {
	case l.requests <- req:
	default:
		l.logger.Debug("hotkey request dropped", "position", req.Position)
	}
	return true
}
