package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one periodic background task.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run; zero means the interval.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Recorder receives the outcome of every run. A nil Recorder is valid.
type Recorder interface {
	PollResult(job string, err error)
}

// Scheduler runs independent periodic jobs. Each job starts immediately and
// then repeats at its own interval; a run still in progress when the next
// tick fires causes that tick to be skipped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      []Job
	logger    *slog.Logger
	recorder  Recorder
}

// New creates a new Scheduler.
func New(logger *slog.Logger, recorder Recorder) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
		recorder:  recorder,
	}
}

// Add registers a job. Jobs must be added before Start.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start schedules every job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.jobs) == 0 {
		s.logger.Info("scheduler: no jobs configured; nothing to schedule")
		return nil
	}

	for _, job := range s.jobs {
		if job.Interval <= 0 || job.Run == nil {
			return errors.New("scheduler: job " + job.Name + " needs an interval and a run function")
		}
		if _, err := s.scheduler.Every(job.Interval).SingletonMode().Do(s.run, job); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run(job Job) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = job.Interval
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	if s.recorder != nil {
		s.recorder.PollResult(job.Name, err)
	}
	if err != nil {
		s.logger.Warn("scheduler: job failed", "job", job.Name, "error", err)
		return
	}
	s.logger.Debug("scheduler: job completed", "job", job.Name, "elapsed", time.Since(start))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
