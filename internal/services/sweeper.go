package services

import (
	"context"
	"time"

	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

// OrphanSource is the reading side of the orphan queue.
type OrphanSource interface {
	Drain(ctx context.Context, max int64) ([]string, error)
	Enqueue(ctx context.Context, keys []string) error
}

// Sweeper retries removal of orphaned blobs recorded by the coordinator.
// It is the out-of-band reclaim path: nothing in the foreground ever waits
// on it, and a key that keeps failing just goes back on the queue.
type Sweeper struct {
	log      *logger.Logger
	queue    OrphanSource
	bucket   BlobRemover
	interval time.Duration
	batch    int64
}

func NewSweeper(baseLog *logger.Logger, queue OrphanSource, bucket BlobRemover, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		log:      baseLog.With("service", "Sweeper"),
		queue:    queue,
		bucket:   bucket,
		interval: interval,
		batch:    100,
	}
}

// Run blocks until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Orphaned blob sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Orphaned blob sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	keys, err := s.queue.Drain(ctx, s.batch)
	if err != nil {
		s.log.Warn("Draining orphan queue failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}

	failed, err := s.bucket.RemoveMany(ctx, keys)
	if err != nil {
		// Batch-level failure: nothing was attempted reliably, requeue all.
		failed = keys
	}
	if len(failed) > 0 {
		s.log.Warn("Sweep could not remove all orphaned blobs, requeueing",
			"attempted", len(keys),
			"failed", len(failed),
		)
		if err := s.queue.Enqueue(ctx, failed); err != nil {
			s.log.Error("Requeueing orphaned blob keys failed, keys dropped",
				"keys", failed,
				"error", err,
			)
		}
		return
	}
	s.log.Info("Swept orphaned blobs", "count", len(keys))
}
