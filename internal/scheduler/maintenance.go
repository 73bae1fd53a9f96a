package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookshelf/internal/logger"
)

var (
	// ErrUnknownJob is returned by RunNow for a name no job carries.
	ErrUnknownJob = errors.New("unknown job")
	// ErrJobActive is returned by RunNow while the job is already running.
	ErrJobActive = errors.New("job is already running")
)

// Job is a named unit of periodic catalog maintenance.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// MaintenanceScheduler runs maintenance jobs such as the catalog reconcile
// and audit cleanup on their cron schedules. A job never overlaps itself.
type MaintenanceScheduler struct {
	jobs []Job
	log  *logger.Logger

	cron       *cron.Cron
	entryIDs   map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	active     map[string]bool
	activeMu   sync.Mutex
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance
func NewMaintenanceScheduler(log *logger.Logger, jobs ...Job) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		jobs:     jobs,
		log:      log.With("component", "scheduler"),
		cron:     cron.New(cron.WithParser(newParser())),
		entryIDs: make(map[string]cron.EntryID),
		active:   make(map[string]bool),
	}
}

// Start schedules every job and starts the cron loop. It stops when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if len(s.jobs) == 0 {
		s.log.Info("Maintenance scheduler: no jobs configured")
		return nil
	}

	for _, job := range s.jobs {
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
	}

	s.ctx, s.cancelFunc = context.WithCancel(ctx)

	for _, job := range s.jobs {
		job := job
		entryID, err := s.cron.AddFunc(job.Schedule, func() {
			s.runJob(job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entryIDs[job.Name] = entryID
	}

	s.cron.Start()
	s.isRunning = true

	for _, job := range s.jobs {
		next, _ := NextRunTime(job.Schedule, time.Now())
		s.log.Info("Scheduled maintenance job",
			"job", job.Name,
			"schedule", job.Schedule,
			"description", CronDescription(job.Schedule),
			"next_run", next)
	}

	go func(done <-chan struct{}) {
		<-done
		s.Stop()
	}(s.ctx.Done())

	return nil
}

// Stop stops accepting new runs and waits for running jobs to complete.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	s.log.Info("Maintenance scheduler stopped")
}

// RunNow runs the named job immediately and waits for it. It reports an
// error for unknown jobs and when the job is already running.
func (s *MaintenanceScheduler) RunNow(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			if !s.claim(name) {
				return fmt.Errorf("%w: %s", ErrJobActive, name)
			}
			defer s.release(name)
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}

// Jobs returns the configured jobs in registration order.
func (s *MaintenanceScheduler) Jobs() []Job {
	return append([]Job(nil), s.jobs...)
}

// IsJobActive reports whether the named job is running right now, either
// from its schedule or through RunNow.
func (s *MaintenanceScheduler) IsJobActive(name string) bool {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return s.active[name]
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the named job runs next, or nil when the
// scheduler is stopped or the job is unknown.
func (s *MaintenanceScheduler) NextRunTime(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	id, ok := s.entryIDs[name]
	if !ok {
		return nil
	}
	t := s.cron.Entry(id).Next
	return &t
}

func (s *MaintenanceScheduler) runJob(job Job) {
	if !s.claim(job.Name) {
		s.log.Warn("Maintenance job still running, skipping this run", "job", job.Name)
		return
	}
	defer s.release(job.Name)

	// s.ctx is set before the cron loop starts; taking s.mu here would
	// deadlock against Stop waiting for this job.
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("Maintenance job failed", "job", job.Name, "error", err)
		return
	}
	s.log.Info("Maintenance job finished", "job", job.Name, "duration", time.Since(start).Round(time.Millisecond))
}

func (s *MaintenanceScheduler) claim(name string) bool {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	if s.active[name] {
		return false
	}
	s.active[name] = true
	return true
}

func (s *MaintenanceScheduler) release(name string) {
	s.activeMu.Lock()
	delete(s.active, name)
	s.activeMu.Unlock()
}
