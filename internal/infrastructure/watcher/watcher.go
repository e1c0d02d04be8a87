// Package watcher reports debounced changes to individual settings files.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType is the kind of change observed.
type EventType string

const (
	EventWrite  EventType = "write"
	EventRemove EventType = "remove"
)

// Event is a settled change to a watched file.
type Event struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

// Config holds configuration for the watcher.
type Config struct {
	DebounceDuration time.Duration
	BufferSize       int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{DebounceDuration: 200 * time.Millisecond, BufferSize: 16}
}

// Watcher watches the parent directories of its files so that files
// replaced by rename are still seen. A burst of changes to one file is
// reported once, after the file has been quiet for the debounce duration.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	events   chan Event
	errors   chan error

	mu      sync.Mutex
	files   map[string]string // normalized path -> path as given
	started bool
	closed  bool

	done    chan struct{}
	stopped chan struct{}
}

// New creates a watcher. Call Add for each file, then Start or Run.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = def.DebounceDuration
	}

	return &Watcher{
		fs:       fsw,
		debounce: cfg.DebounceDuration,
		events:   make(chan Event, cfg.BufferSize),
		errors:   make(chan error, cfg.BufferSize),
		files:    make(map[string]string),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Add starts watching path. Its directory must exist; the file need not.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w.mu.Lock()
	w.files[normalize(abs)] = path
	w.mu.Unlock()
	return nil
}

// Start begins event processing. Later calls do nothing.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.started {
		return
	}
	w.started = true
	go w.loop()
}

// Events returns the channel of settled events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Run starts the watcher and calls fn for each event until ctx is done or
// the watcher reports an error. The watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, fn func(Event)) error {
	w.Start()
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.events:
			if !ok {
				return nil
			}
			fn(ev)
		case err, ok := <-w.errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	started := w.started
	w.mu.Unlock()

	close(w.done)
	err := w.fs.Close()
	if started {
		<-w.stopped
	}
	close(w.events)
	close(w.errors)
	return err
}

// loop owns the pending events and their timers.
func (w *Watcher) loop() {
	defer close(w.stopped)

	pending := make(map[string]Event)
	timers := make(map[string]*time.Timer)
	settled := make(chan string)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case raw, ok := <-w.fs.Events:
			if !ok {
				return
			}
			path, watched := w.lookup(raw.Name)
			typ := convertEventType(raw.Op)
			if !watched || typ == "" {
				continue
			}
			pending[path] = Event{Path: path, Type: typ, Timestamp: time.Now()}
			if t, ok := timers[path]; ok && t.Reset(w.debounce) {
				continue
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				select {
				case settled <- path:
				case <-w.done:
				}
			})

		case path := <-settled:
			delete(timers, path)
			ev, ok := pending[path]
			if !ok {
				continue
			}
			delete(pending, path)
			select {
			case w.events <- ev:
			default:
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) lookup(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	path, ok := w.files[normalize(abs)]
	return path, ok
}

func normalize(path string) string {
	p := filepath.Clean(path)
	if runtime.GOOS == "windows" {
		p = strings.ToLower(p)
	}
	return p
}

// convertEventType maps fsnotify operations. A rename onto the file shows
// up as Create and counts as a write.
func convertEventType(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create), op.Has(fsnotify.Write):
		return EventWrite
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return EventRemove
	default:
		return ""
	}
}
