package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/metrics"
	"github.com/stemsi/quizroom/internal/service"
)

// Expirer seals overdue exams.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (service.SweepResult, error)
}

// SessionPurger drops sessions past their expiry.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// ExpiryWorker periodically grades and seals exams whose time ran out and
// purges expired sessions.
type ExpiryWorker struct {
	exams    Expirer
	sessions SessionPurger
	interval time.Duration
	log      zerolog.Logger
}

func NewExpiryWorker(exams Expirer, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &ExpiryWorker{
		exams:    exams,
		interval: interval,
		log:      log.With().Str("component", "expiry_worker").Logger(),
	}
}

// WithSessionPurge also removes expired sessions on every run.
func (w *ExpiryWorker) WithSessionPurge(p SessionPurger) *ExpiryWorker {
	w.sessions = p
	return w
}

// Start runs the sweep on schedule until ctx is done, then waits for a
// running sweep to finish.
func (w *ExpiryWorker) Start(ctx context.Context) error {
	logger := cronLogger{log: w.log}
	c := cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", w.interval), func() {
		w.Sweep(ctx)
		w.purgeSessions(ctx)
	}); err != nil {
		return fmt.Errorf("schedule expiry sweep: %w", err)
	}

	w.log.Info().Dur("interval", w.interval).Msg("ExpiryWorker started")
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	w.log.Info().Msg("ExpiryWorker stopped")
	return nil
}

// Sweep runs one expiry pass.
func (w *ExpiryWorker) Sweep(ctx context.Context) service.SweepResult {
	res, err := w.exams.ExpireOverdue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Expiry sweep failed")
			metrics.SweepFailures(1)
		}
		return res
	}

	metrics.ExamsSealed(metrics.SourceSweep, res.Sealed)
	metrics.SweepFailures(res.Failed)
	if res.Sealed > 0 || res.Failed > 0 {
		w.log.Info().
			Int("sealed", res.Sealed).
			Int("failed", res.Failed).
			Msg("Expired overdue exams")
	}
	return res
}

func (w *ExpiryWorker) purgeSessions(ctx context.Context) {
	if w.sessions == nil {
		return
	}
	n, err := w.sessions.PurgeExpiredSessions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Session purge failed")
		}
		return
	}
	if n > 0 {
		w.log.Debug().Int64("purged", n).Msg("Expired sessions purged")
	}
}

// cronLogger routes scheduler messages to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
