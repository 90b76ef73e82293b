// Package schedule triggers reminder runs from cron expressions, acting as
// the external caller of the reminder function outside Lambda.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/helpoutwithus/functions/internal/config"
	"github.com/helpoutwithus/functions/internal/reminders"
)

const jobTimeout = 10 * time.Minute

// Runner executes one reminder run.
type Runner interface {
	Run(ctx context.Context, req reminders.Request) (*reminders.Report, error)
}

// Clock reports the current time in the schedule's timezone, so reminder
// windows follow the same calendar as the cron expressions.
type Clock struct {
	loc atomic.Pointer[time.Location]
}

func NewClock(loc *time.Location) *Clock {
	c := &Clock{}
	c.Set(loc)
	return c
}

func (c *Clock) Set(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	c.loc.Store(loc)
}

func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc.Load())
}

type Scheduler struct {
	runner Runner
	clock  *Clock
	log    zerolog.Logger
	parser cron.Parser

	mu   sync.Mutex
	ctx  context.Context
	cron *cron.Cron
}

func New(ctx context.Context, runner Runner, clock *Clock, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		clock:  clock,
		log:    log.With().Str("component", "scheduler").Logger(),
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		ctx:    ctx,
	}
}

// Apply replaces the running cron entries with the jobs of s. On error the
// previous schedule keeps running.
func (s *Scheduler) Apply(sched *config.Schedule) error {
	loc := sched.Location()
	c := cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.log})),
	)
	for _, j := range sched.Jobs {
		job := j
		if _, err := c.AddFunc(job.Cron, func() { s.runJob(job) }); err != nil {
			return fmt.Errorf("job %q: %w", job.Name, err)
		}
	}

	s.mu.Lock()
	old := s.cron
	s.cron = c
	s.clock.Set(loc)
	c.Start()
	s.mu.Unlock()

	if old != nil {
		<-old.Stop().Done()
	}
	s.log.Info().Int("jobs", len(sched.Jobs)).Str("timezone", loc.String()).Msg("schedule applied")
	return nil
}

// RunOnce runs every job immediately, in order.
func (s *Scheduler) RunOnce(sched *config.Schedule) {
	s.clock.Set(sched.Location())
	for _, j := range sched.Jobs {
		s.runJob(j)
	}
}

// Stop stops the cron and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (s *Scheduler) runJob(j config.Job) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	log := s.log.With().Str("job", j.Name).Logger()
	report, err := s.runner.Run(log.WithContext(ctx), reminders.Request{
		DaysOut:      j.DaysOut,
		Filled:       j.Filled,
		Unfilled:     j.Unfilled,
		AdminSummary: j.AdminSummary,
	})
	if err != nil {
		log.Error().Err(err).Msg("reminder job failed")
		return
	}
	ev := log.Info()
	if len(report.Errors) > 0 {
		ev = log.Warn().Strs("errors", report.Errors)
	}
	ev.Int("sent", report.NotificationsSent).Msg("reminder job finished")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
