package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/filesystem"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

// callLog records the order of side effects across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// memStore keeps the state in memory and profile folders on disk.
type memStore struct {
	log     *callLog
	root    string
	state   profile.State
	saveErr error
	saves   int
}

func (s *memStore) Load(ctx context.Context) profile.State { return s.state.Clone() }

func (s *memStore) Save(ctx context.Context, st profile.State) error {
	s.log.add("save:%d", st.ActiveID)
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.state = st.Clone()
	return nil
}

func (s *memStore) Root() string              { return s.root }
func (s *memStore) FolderPath(id int) string  { return filepath.Join(s.root, profile.FolderName(id)) }
func (s *memStore) CountEntries(p string) int { return filesystem.CountEntries(p, filesystem.LayoutFile) }

type fakeCodec struct {
	log        *callLog
	live       layout.Layout
	saved      map[string]layout.Layout
	captureErr error
	applied    []layout.Layout
}

func (c *fakeCodec) Capture(ctx context.Context) (layout.Layout, error) {
	c.log.add("capture")
	if c.captureErr != nil {
		return layout.Layout{}, c.captureErr
	}
	return c.live, nil
}

func (c *fakeCodec) Apply(ctx context.Context, l layout.Layout) error {
	c.log.add("apply:%d", l.Len())
	c.applied = append(c.applied, l)
	return nil
}

func (c *fakeCodec) DisableAutoArrange(ctx context.Context) error {
	c.log.add("no-arrange")
	return nil
}

func (c *fakeCodec) Read(folder string) layout.Layout {
	if l, ok := c.saved[filepath.Base(folder)]; ok {
		return l
	}
	return layout.New()
}

func (c *fakeCodec) Write(folder string, l layout.Layout) error {
	c.log.add("write:%s", filepath.Base(folder))
	if c.saved == nil {
		c.saved = map[string]layout.Layout{}
	}
	c.saved[filepath.Base(folder)] = l
	return nil
}

type fakeRedirector struct {
	log  *callLog
	live string
	err  error
}

func (r *fakeRedirector) Redirect(ctx context.Context, path string) error {
	r.log.add("redirect:%s", filepath.Base(path))
	if r.err != nil {
		return r.err
	}
	r.live = path
	return nil
}

func (r *fakeRedirector) CurrentPath(ctx context.Context) (string, error) {
	return r.live, nil
}

type fakeSlots struct {
	log *callLog
	err error
}

func (s *fakeSlots) EnsureSlotsExist(ctx context.Context, n int) error {
	s.log.add("ensure:%d", n)
	return s.err
}

func (s *fakeSlots) GoTo(ctx context.Context, index int) error {
	s.log.add("goto:%d", index)
	return nil
}

type finished struct {
	op       string
	status   string
	warnings []string
	err      error
}

type recordingObserver struct {
	mu   sync.Mutex
	done []finished
}

func (r *recordingObserver) StartOperation(ctx context.Context, op string, _, _ int) (context.Context, OperationObserver) {
	return ctx, &recordingOp{parent: r, op: op}
}

func (r *recordingObserver) last() finished {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.done) == 0 {
		return finished{}
	}
	return r.done[len(r.done)-1]
}

type recordingOp struct {
	parent *recordingObserver
	op     string
}

func (o *recordingOp) StartStep(context.Context, string, bool) func(error) { return func(error) {} }

func (o *recordingOp) Finish(_ context.Context, status string, warnings []string, err error) {
	o.parent.mu.Lock()
	defer o.parent.mu.Unlock()
	o.parent.done = append(o.parent.done, finished{o.op, status, warnings, err})
}

type harness struct {
	log      *callLog
	store    *memStore
	codec    *fakeCodec
	redir    *fakeRedirector
	slots    *fakeSlots
	observer *recordingObserver
	orch     *Orchestrator
}

func newHarness(t *testing.T, maxProfiles int) *harness {
	t.Helper()
	log := &callLog{}
	root := filepath.Join(t.TempDir(), "Deskflip")
	h := &harness{
		log:      log,
		store:    &memStore{log: log, root: root, state: profile.NewState(filepath.Join(t.TempDir(), "Desktop"))},
		codec:    &fakeCodec{log: log, live: layout.New()},
		redir:    &fakeRedirector{log: log},
		slots:    &fakeSlots{log: log},
		observer: &recordingObserver{},
	}

	orch, err := NewOrchestrator(Config{
		Store:       h.store,
		Layouts:     h.codec,
		Redirector:  h.redir,
		Slots:       h.slots,
		Observer:    h.observer,
		MaxProfiles: maxProfiles,
		Logger:      logging.Nop(),
	})
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	h.orch = orch
	return h
}

// create adds n profiles and clears the call log.
func (h *harness) create(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := h.orch.Create(context.Background()); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	h.log.mu.Lock()
	h.log.calls = nil
	h.log.mu.Unlock()
}
