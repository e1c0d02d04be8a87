// Package scheduler runs periodic background jobs from cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

// Job outcomes passed to Config.OnOutcome.
const (
	OutcomeDone   = "done"
	OutcomeBusy   = "busy"
	OutcomeFailed = "failed"
)

// Job is a named unit of periodic work.
type Job interface {
	Name() string
	Schedule() string // five-field cron expression
	Run(ctx context.Context) error
}

// FuncJob adapts a function to Job.
type FuncJob struct {
	JobName string
	Spec    string
	Fn      func(ctx context.Context) error
}

func (f FuncJob) Name() string                  { return f.JobName }
func (f FuncJob) Schedule() string              { return f.Spec }
func (f FuncJob) Run(ctx context.Context) error { return f.Fn(ctx) }

// Config configures a Scheduler.
type Config struct {
	Logger *logging.Logger

	// OnOutcome, when set, is called after every tick with the job name
	// and one of the Outcome constants.
	OnOutcome func(job, outcome string)
}

// Scheduler runs registered jobs. A job whose previous tick is still
// running skips the new tick.
type Scheduler struct {
	mu        sync.Mutex
	cron      *cron.Cron
	jobs      []Job
	locks     map[string]*sync.Mutex
	logger    *logging.Logger
	onOutcome func(job, outcome string)
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a scheduler. Jobs must be registered before Start.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		locks:     make(map[string]*sync.Mutex),
		logger:    logger.With("component", "scheduler"),
		onOutcome: cfg.OnOutcome,
		ctx:       logging.WithSource(ctx, "scheduler"),
		cancel:    cancel,
	}
}

// Parser returns the parser used for job schedules.
func Parser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
}

// Register adds a job. Names must be unique and schedules valid.
func (s *Scheduler) Register(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.locks[name]; exists {
		return fmt.Errorf("duplicate job name %q", name)
	}
	if _, err := Parser().Parse(j.Schedule()); err != nil {
		return fmt.Errorf("invalid schedule for job %q: %w", name, err)
	}

	s.locks[name] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}
	s.cron = cron.New(cron.WithParser(Parser()))

	for _, j := range s.jobs {
		job := j
		if _, err := s.cron.AddFunc(job.Schedule(), func() { s.tick(job) }); err != nil {
			return fmt.Errorf("invalid schedule for job %q: %w", job.Name(), err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()

	s.cancel()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tick runs one scheduled execution of job.
func (s *Scheduler) tick(job Job) {
	s.mu.Lock()
	lock := s.locks[job.Name()]
	s.mu.Unlock()

	if !lock.TryLock() {
		s.logger.Warn("job still running, skipping tick", "job", job.Name())
		s.report(job.Name(), OutcomeBusy)
		return
	}
	defer lock.Unlock()

	s.logger.Debug("job started", "job", job.Name())
	if err := job.Run(s.ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name(), "error", err)
		s.report(job.Name(), OutcomeFailed)
		return
	}
	s.logger.Debug("job completed", "job", job.Name())
	s.report(job.Name(), OutcomeDone)
}

func (s *Scheduler) report(job, outcome string) {
	if s.onOutcome != nil {
		s.onOutcome(job, outcome)
	}
}
