package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

type outcomes struct {
	mu   sync.Mutex
	seen []string
}

func (o *outcomes) record(job, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, job+":"+outcome)
}

func (o *outcomes) list() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.seen...)
}

func TestRegisterValidation(t *testing.T) {
	s := New(Config{Logger: logging.Nop()})
	noop := func(context.Context) error { return nil }

	if err := s.Register(FuncJob{JobName: "autosave", Spec: "*/10 * * * *", Fn: noop}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.Register(FuncJob{JobName: "autosave", Spec: "* * * * *", Fn: noop}); err == nil {
		t.Error("duplicate name accepted")
	}
	if err := s.Register(FuncJob{JobName: "bad", Spec: "every minute", Fn: noop}); err == nil {
		t.Error("invalid schedule accepted")
	}
	if err := s.Register(FuncJob{JobName: "seconds", Spec: "*/5 * * * * *", Fn: noop}); err == nil {
		t.Error("six-field schedule accepted")
	}
}

func TestTickOutcomes(t *testing.T) {
	rec := &outcomes{}
	s := New(Config{Logger: logging.Nop(), OnOutcome: rec.record})

	ok := FuncJob{JobName: "ok", Spec: "* * * * *", Fn: func(context.Context) error { return nil }}
	bad := FuncJob{JobName: "bad", Spec: "* * * * *", Fn: func(context.Context) error { return errors.New("boom") }}
	for _, j := range []Job{ok, bad} {
		if err := s.Register(j); err != nil {
			t.Fatal(err)
		}
	}

	s.tick(ok)
	s.tick(bad)

	got := rec.list()
	want := []string{"ok:done", "bad:failed"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("outcomes = %v, want %v", got, want)
	}
}

func TestTickSkipsOverlappingRun(t *testing.T) {
	rec := &outcomes{}
	s := New(Config{Logger: logging.Nop(), OnOutcome: rec.record})

	started := make(chan struct{})
	release := make(chan struct{})
	slow := FuncJob{JobName: "slow", Spec: "* * * * *", Fn: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}
	if err := s.Register(slow); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		s.tick(slow)
		close(done)
	}()
	<-started

	s.tick(slow)
	close(release)
	<-done

	got := rec.list()
	if len(got) != 2 || got[0] != "slow:busy" || got[1] != "slow:done" {
		t.Errorf("outcomes = %v, want [slow:busy slow:done]", got)
	}
}

func TestStopCancelsJobContext(t *testing.T) {
	s := New(Config{Logger: logging.Nop()})

	var jobCtx context.Context
	job := FuncJob{JobName: "ctx", Spec: "* * * * *", Fn: func(ctx context.Context) error {
		jobCtx = ctx
		return nil
	}}
	if err := s.Register(job); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start() should fail")
	}

	s.tick(job)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if jobCtx == nil || jobCtx.Err() == nil {
		t.Error("job context not cancelled by Stop")
	}
	if logging.Source(jobCtx) != "scheduler" {
		t.Errorf("source = %q, want scheduler", logging.Source(jobCtx))
	}
}

func TestStopWithoutStart(t *testing.T) {
	s := New(Config{Logger: logging.Nop()})
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
