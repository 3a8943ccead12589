package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is the part of the booking service the no-show job drives.
type Sweeper interface {
	SweepNoShows(ctx context.Context, cutoff time.Time) (int, error)
}

// NoShowSweeper periodically moves pending bookings whose start passed more
// than grace ago to no_show, releasing their inventory.
type NoShowSweeper struct {
	svc      Sweeper
	grace    time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewNoShowSweeper(svc Sweeper, grace, interval time.Duration, logger *zap.Logger) *NoShowSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoShowSweeper{
		svc:      svc,
		grace:    grace,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// RunOnce performs a single sweep and returns how many bookings it closed.
func (w *NoShowSweeper) RunOnce(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-w.grace)
	n, err := w.svc.SweepNoShows(ctx, cutoff)
	if err != nil {
		w.logger.Error("no-show sweep failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return n, err
	}
	if n > 0 {
		w.logger.Info("no-show sweep", zap.Int("marked", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// Run sweeps immediately and then on every tick until ctx is done.
func (w *NoShowSweeper) Run(ctx context.Context) {
	w.logger.Info("starting no-show sweeper",
		zap.Duration("interval", w.interval),
		zap.Duration("grace", w.grace),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	_, _ = w.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			_, _ = w.RunOnce(ctx)
		case <-ctx.Done():
			w.logger.Info("no-show sweeper stopped")
			return
		}
	}
}
