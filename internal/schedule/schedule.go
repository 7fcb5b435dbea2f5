package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSpec is returned for cron expressions that do not parse.
var ErrInvalidSpec = errors.New("invalid cron expression")

// JobFunc is one scheduled crawl. ctx ends when the scheduler stops.
type JobFunc func(ctx context.Context) error

// Scheduler triggers a JobFunc on a cron schedule.
type Scheduler struct {
	spec       string
	schedule   cron.Schedule
	job        JobFunc
	logger     *slog.Logger
	runOnStart bool
	location   *time.Location

	runs    atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithRunOnStart runs the job once immediately when Run starts,
// in addition to the scheduled ticks.
func WithRunOnStart(run bool) Option {
	return func(s *Scheduler) {
		s.runOnStart = run
	}
}

// WithLocation sets the time zone the expression is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.location = loc
	}
}

// New creates a Scheduler for spec. Standard five-field expressions and
// descriptors such as "@hourly" or "@every 30m" are accepted.
func New(spec string, job JobFunc, opts ...Option) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSpec, spec, err)
	}

	s := &Scheduler{
		spec:     spec,
		schedule: schedule,
		job:      job,
		logger:   slog.Default(),
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Next returns the first activation time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Runs returns the number of completed job runs.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Failed returns the number of job runs that returned an error.
func (s *Scheduler) Failed() int64 {
	return s.failed.Load()
}

// Skipped returns the number of ticks dropped because a run was in progress.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

// Run starts the schedule and blocks until ctx ends. It then waits for
// the job in progress, whose context is ctx, to return.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{logger: s.logger, skipped: &s.skipped}
	c := cron.New(cron.WithLocation(s.location), cron.WithLogger(logger))

	job := s.wrap(ctx, logger)
	c.Schedule(s.schedule, job)

	var wg sync.WaitGroup
	if s.runOnStart {
		wg.Go(job.Run)
	}

	c.Start()
	s.logger.Info("scheduler started", "spec", s.spec, "next", s.Next(time.Now()))

	<-ctx.Done()

	s.logger.Info("scheduler stopping", "runs", s.Runs())
	<-c.Stop().Done()
	wg.Wait()
	return nil
}

// wrap turns the JobFunc into a cron.Job that recovers panics and skips
// a tick while the previous run is still going.
func (s *Scheduler) wrap(ctx context.Context, logger cron.Logger) cron.Job {
	chain := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))
	return chain.Then(cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		err := s.job(ctx)
		s.runs.Add(1)
		if err != nil {
			s.failed.Add(1)
			s.logger.Error("scheduled crawl failed", "error", err, "elapsed", time.Since(start))
			return
		}
		s.logger.Info("scheduled crawl finished", "elapsed", time.Since(start))
	}))
}

// cronLogger adapts slog to cron.Logger. Cron's chatter goes to debug.
type cronLogger struct {
	logger  *slog.Logger
	skipped *atomic.Int64
}

// Info implements cron.Logger.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if msg == "skip" {
		l.skipped.Add(1)
		l.logger.Warn("previous crawl still running, skipping tick")
		return
	}
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

// Error implements cron.Logger.
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
