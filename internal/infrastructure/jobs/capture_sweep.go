package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chamado.backend/pkg/logger"
)

// WizardReleaser closes wizards that have been idle for longer than ttl and
// reports how many were closed.
type WizardReleaser interface {
	ReleaseIdle(ctx context.Context, ttl time.Duration) int
}

// CaptureSweepJob releases abandoned enrollment wizards so their camera
// streams do not stay open.
type CaptureSweepJob struct {
	wizards  WizardReleaser
	ttl      time.Duration
	interval time.Duration
	stop     chan struct{}
}

func NewCaptureSweepJob(wizards WizardReleaser, ttl, interval time.Duration) *CaptureSweepJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CaptureSweepJob{
		wizards:  wizards,
		ttl:      ttl,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (j *CaptureSweepJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting capture sweep job", zap.Duration("ttl", j.ttl), zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "Capture sweep job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Capture sweep job stopped")
			return
		case <-ticker.C:
			j.processIdleWizards(ctx)
		}
	}
}

func (j *CaptureSweepJob) Stop() {
	close(j.stop)
}

func (j *CaptureSweepJob) processIdleWizards(ctx context.Context) {
	if j.ttl <= 0 {
		return
	}
	n := j.wizards.ReleaseIdle(ctx, j.ttl)
	if n == 0 {
		return
	}
	logger.Info(ctx, "Released idle enrollment wizards", zap.Int("count", n))
}
