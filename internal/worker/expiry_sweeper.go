// Package worker holds the background loops of the booking service.
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 30 * time.Second

// Sweeper expires overdue reservation sessions and purges old terminal
// ones. *service.ReservationService satisfies it.
type Sweeper interface {
	SweepExpired(ctx context.Context) (expired, purged int)
}

// SweepStats are running totals across all passes.
type SweepStats struct {
	Passes  int64
	Expired int64
	Purged  int64
}

// ExpirySweeper runs a Sweeper on a fixed interval. Expiry is also applied
// lazily on access, so the sweeper only bounds how long an abandoned hold
// can keep seats out of the seat map.
type ExpirySweeper struct {
	sweeper  Sweeper
	interval time.Duration
	log      *slog.Logger

	passes, expired, purged atomic.Int64
}

// NewExpirySweeper constructs an ExpirySweeper.
func NewExpirySweeper(s Sweeper, interval time.Duration, log *slog.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExpirySweeper{sweeper: s, interval: interval, log: log}
}

// Run sweeps once immediately and then every interval until ctx is done.
// It always returns nil so it can run under an errgroup.
func (w *ExpirySweeper) Run(ctx context.Context) error {
	w.log.InfoContext(ctx, "expiry sweeper started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("expiry sweeper stopped", "passes", w.passes.Load())
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stats returns totals since the sweeper started.
func (w *ExpirySweeper) Stats() SweepStats {
	return SweepStats{Passes: w.passes.Load(), Expired: w.expired.Load(), Purged: w.purged.Load()}
}

func (w *ExpirySweeper) sweep(ctx context.Context) {
	expired, purged := w.sweeper.SweepExpired(ctx)
	w.passes.Add(1)
	w.expired.Add(int64(expired))
	w.purged.Add(int64(purged))
	if expired > 0 || purged > 0 {
		w.log.InfoContext(ctx, "expiry sweep", "expired", expired, "purged", purged)
	}
}
