// Package scheduler runs periodic background jobs on robfig/cron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus is the outcome of the last run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

var (
	ErrSchedulerRunning = errors.New("scheduler is already running")
	ErrDuplicateJob     = errors.New("job already registered")
)

// Job is a named unit of periodic work. Spec uses the six-field cron
// format with a leading seconds field.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// JobState is a snapshot of a job's last execution
type JobState struct {
	Name        string        `json:"name"`
	Spec        string        `json:"spec"`
	Status      JobStatus     `json:"status"`
	LastRunAt   *time.Time    `json:"last_run_at,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
	LastElapsed time.Duration `json:"last_elapsed"`
	NextRunAt   *time.Time    `json:"next_run_at,omitempty"`
	Runs        int64         `json:"runs"`
	Failures    int64         `json:"failures"`
}

type entry struct {
	job   Job
	id    cron.EntryID
	state JobState
}

// Scheduler owns a cron instance. Overlapping runs of the same job are
// skipped and panics are recovered.
type Scheduler struct {
	cron       *cron.Cron
	jobTimeout time.Duration
	logger     *zap.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	running bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithJobTimeout bounds each run
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.jobTimeout = d
	}
}

// WithLocation sets the time zone cron specs are evaluated in
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.cron = newCron(s.logger, loc)
	}
}

// New creates a stopped scheduler
func New(logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cron:       newCron(logger, time.UTC),
		jobTimeout: 5 * time.Minute,
		logger:     logger,
		entries:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newCron(logger *zap.Logger, loc *time.Location) *cron.Cron {
	cl := cronLogger{logger: logger.Named("cron")}
	return cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerRunning
	}
	if _, ok := s.entries[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}

	e := &entry{job: job, state: JobState{Name: job.Name, Spec: job.Spec, Status: JobStatusPending}}
	id, err := s.cron.AddFunc(job.Spec, func() { s.execute(e) })
	if err != nil {
		return fmt.Errorf("invalid spec %q for job %s: %w", job.Spec, job.Name, err)
	}
	e.id = id
	s.entries[job.Name] = e
	return nil
}

// Start begins dispatching. Runs receive a context that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.running = true
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.entries)))
}

// Stop cancels in-flight runs and waits for them until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	cancel()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunNow executes a registered job synchronously, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %s not found", name)
	}
	return s.run(ctx, e)
}

// States returns a snapshot of every job
func (s *Scheduler) States() []JobState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]JobState, 0, len(s.entries))
	for _, e := range s.entries {
		st := e.state
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			st.NextRunAt = &next
		}
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) execute(e *entry) {
	s.mu.RLock()
	ctx := s.baseCtx
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}
	_ = s.run(ctx, e)
}

func (s *Scheduler) run(ctx context.Context, e *entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	s.setState(e, func(st *JobState) {
		st.Status = JobStatusRunning
		st.LastRunAt = &start
	})

	err := e.job.Run(ctx)
	elapsed := time.Since(start)

	s.setState(e, func(st *JobState) {
		st.Runs++
		st.LastElapsed = elapsed
		if err != nil {
			st.Status = JobStatusFailed
			st.LastError = err.Error()
			st.Failures++
			return
		}
		st.Status = JobStatusSuccess
		st.LastError = ""
	})

	if err != nil {
		s.logger.Error("Scheduled job failed",
			zap.String("job", e.job.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return err
	}
	s.logger.Debug("Scheduled job finished",
		zap.String("job", e.job.Name),
		zap.Duration("elapsed", elapsed))
	return nil
}

func (s *Scheduler) setState(e *entry, fn func(*JobState)) {
	s.mu.Lock()
	fn(&e.state)
	s.mu.Unlock()
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
