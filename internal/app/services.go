package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mindforge-ai/mindforge-backend/internal/clients/gcp"
	redisclient "github.com/mindforge-ai/mindforge-backend/internal/clients/redis"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
	"github.com/mindforge-ai/mindforge-backend/internal/services"
)

type Services struct {
	Bucket      gcp.BucketService
	OrphanQueue redisclient.OrphanQueue
	Coordinator services.BlobCoordinator
	Knowledge   services.KnowledgeService
	Sweeper     *services.Sweeper
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Services{}, fmt.Errorf("init bucket service: %w", err)
	}

	queue, err := redisclient.NewOrphanQueue(log)
	if err != nil {
		// The store works without the orphan queue; failed blob removals
		// are then only logged, never retried.
		log.Warn("Orphan queue unavailable, sweep disabled", "error", err)
		queue = nil
	}

	var recorder services.OrphanRecorder
	if queue != nil {
		recorder = queue
	}
	coordinator := services.NewBlobCoordinator(db, log, r.Knowledge, bucket, recorder)
	knowledge := services.NewKnowledgeService(
		db, log,
		r.Knowledge, r.Brain, r.BrainLink,
		coordinator,
		!cfg.StatusValidationDisabled,
	)

	var sweeper *services.Sweeper
	if queue != nil && !cfg.SweepDisabled {
		sweeper = services.NewSweeper(log, queue, bucket, cfg.SweepInterval)
	}

	return Services{
		Bucket:      bucket,
		OrphanQueue: queue,
		Coordinator: coordinator,
		Knowledge:   knowledge,
		Sweeper:     sweeper,
	}, nil
}
