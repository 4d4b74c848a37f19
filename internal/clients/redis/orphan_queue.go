package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mindforge-ai/mindforge-backend/internal/platform/envutil"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

// OrphanQueue records blob keys whose best-effort removal failed after the
// metadata row was already gone. The sweeper drains it out of band; until
// then the keys are orphaned blobs, a recoverable leak.
type OrphanQueue interface {
	Enqueue(ctx context.Context, keys []string) error
	// Drain pops up to max keys. An empty queue returns an empty slice.
	Drain(ctx context.Context, max int64) ([]string, error)
	Close() error
}

type orphanQueue struct {
	log     *logger.Logger
	rdb     *goredis.Client
	listKey string
}

func NewOrphanQueue(log *logger.Logger) (OrphanQueue, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(envutil.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	listKey := strings.TrimSpace(envutil.GetEnv("REDIS_ORPHAN_LIST", "knowledge:orphan_blobs", log))

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &orphanQueue{
		log:     log.With("service", "OrphanQueue"),
		rdb:     rdb,
		listKey: listKey,
	}, nil
}

func (q *orphanQueue) Enqueue(ctx context.Context, keys []string) error {
	if q == nil || q.rdb == nil {
		return fmt.Errorf("orphan queue not initialized")
	}
	if len(keys) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		vals = append(vals, k)
	}
	if len(vals) == 0 {
		return nil
	}
	if err := q.rdb.LPush(ctx, q.listKey, vals...).Err(); err != nil {
		return fmt.Errorf("lpush orphan keys: %w", err)
	}
	return nil
}

func (q *orphanQueue) Drain(ctx context.Context, max int64) ([]string, error) {
	if q == nil || q.rdb == nil {
		return nil, fmt.Errorf("orphan queue not initialized")
	}
	if max <= 0 {
		max = 100
	}
	keys, err := q.rdb.RPopCount(ctx, q.listKey, int(max)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rpop orphan keys: %w", err)
	}
	return keys, nil
}

func (q *orphanQueue) Close() error {
	if q == nil || q.rdb == nil {
		return nil
	}
	return q.rdb.Close()
}
