package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CycleRunner is the piece of the gate the scheduler drives.
type CycleRunner interface {
	RunCycle(ctx context.Context) Outcome
}

// Scheduler runs cycles sequentially at a fixed interval. Stage failures are
// already absorbed into outcomes, so the normal interval applies after them;
// only a panic in a cycle switches to the longer error backoff.
type Scheduler struct {
	runner       CycleRunner
	interval     time.Duration
	errorBackoff time.Duration
	logger       zerolog.Logger
}

func NewScheduler(runner CycleRunner, interval, errorBackoff time.Duration) *Scheduler {
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		errorBackoff: errorBackoff,
		logger:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start blocks until ctx is cancelled, running one cycle per interval.
// Cycles never overlap.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("error_backoff", s.errorBackoff).
		Msg("scheduler started")

	for {
		wait := s.interval
		if panicked := s.runOnce(ctx); panicked {
			wait = s.errorBackoff
		}

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return
		case <-time.After(wait):
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			s.logger.Error().Interface("panic", r).Msg("cycle panicked, backing off")
		}
	}()

	outcome := s.runner.RunCycle(ctx)
	switch {
	case outcome.Published:
		s.logger.Info().Msg("cycle published a post")
	case outcome.Skipped:
		s.logger.Info().Msg("cycle skipped a near-duplicate post")
	default:
		s.logger.Warn().Str("stage", outcome.Stage).Str("error", outcome.Err).Msg("cycle failed")
	}
	return false
}
