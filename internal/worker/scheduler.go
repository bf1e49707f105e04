package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of periodic maintenance.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (j JobFunc) Name() string                  { return j.JobName }
func (j JobFunc) Run(ctx context.Context) error { return j.Fn(ctx) }

const defaultJobTimeout = 2 * time.Minute

// Scheduler runs registered jobs on cron schedules (with a seconds field).
type Scheduler struct {
	cron       *cron.Cron
	jobTimeout time.Duration

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(jobTimeout time.Duration) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		jobTimeout: jobTimeout,
		ctx:        context.Background(),
	}
}

// AddJob registers job. Schedule examples:
//   - "0 */5 * * * *"  every 5 minutes
//   - "@every 30s"     every 30 seconds
//   - "0 5 0 1 * *"    00:05 on the first of the month
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(s.baseContext(), job); err != nil {
			slog.Error("Job failed", "job", job.Name(), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name(), err)
	}
	slog.Info("Job registered", "job", job.Name(), "schedule", schedule)
	return nil
}

// RunNow executes job immediately with the scheduler's per-job timeout.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	slog.DebugContext(ctx, "Running job", "job", job.Name())
	if err := job.Run(ctx); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Job completed", "job", job.Name(), "duration", time.Since(start))
	return nil
}

// Start begins firing jobs. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.cron.Start()
	slog.InfoContext(ctx, "Scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop cancels in-flight jobs and waits for them to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		slog.InfoContext(ctx, "Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}
