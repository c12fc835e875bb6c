package service

import (
	"context"
	"log/slog"
	"time"
)

// maxConsecutiveFailures is the number of consecutive purge failures the
// reaper tolerates before cancelling itself.
const maxConsecutiveFailures = 3

// Purger deletes expired sessions. Satisfied by *Service.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Reaper purges expired sessions on a fixed interval. A run that fails
// increments a consecutive-failure counter; success resets it. After three
// consecutive failures the loop stops with one terminal log record instead of
// retrying an unreachable store forever.
type Reaper struct {
	purger   Purger
	interval time.Duration
	logger   *slog.Logger
}

// NewReaper returns a Reaper running purger every interval.
func NewReaper(purger Purger, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{purger: purger, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled or the failure budget is exhausted.
// Callers run it on its own goroutine so it never blocks request serving.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.purger.PurgeExpired(ctx); err != nil {
				failures++
				r.logger.Warn("session purge failed", "error", err, "consecutive_failures", failures)
				if failures >= maxConsecutiveFailures {
					r.logger.Error("session reaper cancelled after repeated purge failures", "consecutive_failures", failures)
					return
				}
				continue
			}
			failures = 0
		}
	}
}
