// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package jobs runs periodic background work independently of request handling.
//
// A job may name a lease. When a [Locker] is configured the job only runs on
// the replica that wins the lease for that tick, so N API instances do not
// poll the same mailbox N times. The winner keeps the lease for most of the
// interval so replicas whose tickers fire a little later still skip.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/passage/internal/platform/redis"
)

// Locker hands out named leases.
type Locker interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (*redis.Lease, error)
}

// Job describes one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Defaults to Interval.
	Timeout time.Duration
	// Lease, when set, is the lock name taken before a run and held for
	// nine tenths of Interval after it starts.
	Lease string
	Run   func(ctx context.Context) error
}

// Scheduler runs jobs until its context is cancelled.
type Scheduler struct {
	locker Locker
	logger *slog.Logger
}

// NewScheduler constructs a [Scheduler]. locker may be nil.
func NewScheduler(locker Locker, logger *slog.Logger) *Scheduler {
	return &Scheduler{locker: locker, logger: logger}
}

// Start runs job immediately and then on every tick, in its own goroutine.
// The returned channel closes once the loop has exited.
func (s *Scheduler) Start(ctx context.Context, job Job) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		s.logger.Info("job_started", slog.String("job", job.Name), slog.Duration("interval", job.Interval))
		s.runOnce(ctx, job)

		ticker := time.NewTicker(job.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("job_stopped", slog.String("job", job.Name))
				return
			case <-ticker.C:
				s.runOnce(ctx, job)
			}
		}
	}()

	return done
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = job.Interval
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if job.Lease != "" && s.locker != nil {
		hold := leaseHold(job.Interval)
		acquiredAt := time.Now()
		lease, err := s.locker.TryAcquire(runCtx, job.Lease, max(timeout, hold))
		if err != nil {
			s.logger.Warn("job_lease_failed", slog.String("job", job.Name), slog.Any("error", err))
			return
		}
		if lease == nil {
			s.logger.Debug("job_skipped_lease_held", slog.String("job", job.Name))
			return
		}
		defer func() {
			remaining := hold - time.Since(acquiredAt)
			if err := lease.HoldFor(context.WithoutCancel(ctx), remaining); err != nil {
				s.logger.Warn("job_lease_release_failed", slog.String("job", job.Name), slog.Any("error", err))
			}
		}()
	}

	startedAt := time.Now()
	if err := job.Run(runCtx); err != nil {
		s.logger.Error("job_failed",
			slog.String("job", job.Name),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Debug("job_finished",
		slog.String("job", job.Name),
		slog.Int64("duration_ms", time.Since(startedAt).Milliseconds()),
	)
}

// leaseHold is how long a lease outlives the tick that took it. It stays
// under Interval so the holder can win its own next tick.
func leaseHold(interval time.Duration) time.Duration {
	return interval * 9 / 10
}
