package scheduler

import (
	"context"
	"log/slog"
	"time"

	"news_notifier/internal/domain"
)

// Checker defines the interface for a single poll cycle.
type Checker interface {
	Check(ctx context.Context) (*domain.CheckStats, error)
}

type Scheduler struct {
	checker      Checker
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *slog.Logger

	consecutiveFailures int
}

func NewScheduler(checker Checker, interval, cycleTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		checker:      checker,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       logger,
	}
}

// Start runs a check immediately and then once per interval, measured from
// the end of the previous check, until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			s.runCheck(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) runCheck(ctx context.Context) {
	checkCtx := ctx
	if s.cycleTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()
	}

	if _, err := s.checker.Check(checkCtx); err != nil {
		s.consecutiveFailures++
		s.logger.Error("check failed",
			"error", err,
			"consecutive_failures", s.consecutiveFailures,
		)
		return
	}

	if s.consecutiveFailures > 0 {
		s.logger.Info("check recovered", "after_failures", s.consecutiveFailures)
	}
	s.consecutiveFailures = 0
}
