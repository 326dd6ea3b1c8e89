// Package trigger drives the recurring ensure job through a cron
// schedule. The job itself must stay idempotent; overlap suppression
// here is an optimisation, not a correctness guarantee.
package trigger

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// JobFunc is invoked on every cron firing.
type JobFunc func(ctx context.Context) error

// Options tune trigger behaviour.
type Options struct {
	// Spec is a five-field cron expression or descriptor ("@every 30s").
	Spec string
	// Location anchors the cron schedule; nil means UTC.
	Location *time.Location
	// StartupDelay postpones the first firing window.
	StartupDelay time.Duration
}

// Trigger runs a single recurring job until its context is cancelled.
type Trigger struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Trigger instance.
func New(opts Options, logger zerolog.Logger) *Trigger {
	if opts.Spec == "" {
		panic("trigger spec must not be empty")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Trigger{opts: opts, logger: logger.With().Str("component", "trigger").Logger()}
}

// Run blocks, firing the job on the configured schedule until ctx is
// cancelled. A failing job is logged and retried on the next firing.
func (t *Trigger) Run(ctx context.Context, job JobFunc) error {
	if t.opts.StartupDelay > 0 {
		timer := time.NewTimer(t.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	cronLog := &cronLogger{logger: t.logger}
	runner := cron.New(
		cron.WithLocation(t.opts.Location),
		cron.WithLogger(cronLog),
		cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		),
	)

	if _, err := runner.AddFunc(t.opts.Spec, func() {
		t.logger.Debug().Msg("executing scheduled tick")
		if err := job(ctx); err != nil {
			t.logger.Error().Err(err).Msg("tick execution failed")
		}
	}); err != nil {
		return err
	}

	runner.Start()
	<-ctx.Done()
	<-runner.Stop().Done()
	return ctx.Err()
}

// cronLogger adapts zerolog to the cron logging interface.
type cronLogger struct {
	logger zerolog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
