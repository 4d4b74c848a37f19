package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	knowledgerepo "github.com/mindforge-ai/mindforge-backend/internal/data/repos/knowledge"
	types "github.com/mindforge-ai/mindforge-backend/internal/domain"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/dbctx"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

// BlobRemover is the slice of the bucket capability the coordinator needs.
type BlobRemover interface {
	RemoveOne(ctx context.Context, key string) error
	RemoveMany(ctx context.Context, keys []string) ([]string, error)
}

// OrphanRecorder receives blob keys whose removal failed after their
// metadata rows were committed away. Implementations must be best-effort
// themselves; the coordinator never fails an operation over them.
type OrphanRecorder interface {
	Enqueue(ctx context.Context, keys []string) error
}

// BatchDeleteResult reports a bulk deletion: rows removed from the store and
// the blob keys handed to object storage in one batched call.
type BatchDeleteResult struct {
	RowsDeleted int64
	BlobKeys    []string
}

// BlobCoordinator owns the ordering contract between metadata deletion and
// blob removal: the metadata transaction commits first, always, for single
// and bulk paths alike. A blob removal that fails afterwards leaves an
// orphaned blob (recoverable, swept later); the reverse order could leave
// live metadata pointing at missing blobs, which this layer exists to forbid.
type BlobCoordinator interface {
	DeleteOne(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.DeleteResult, error)
	// DeleteMany resolves the victim set via collect inside the deletion
	// transaction, so the rows deleted and the blob keys collected come
	// from one consistent view.
	DeleteMany(ctx context.Context, collect func(dbc dbctx.Context) ([]*types.Knowledge, error)) (*BatchDeleteResult, error)
	// ScrubBlob removes a single blob best-effort, outside any transaction.
	// Used for cleanup side effects such as the error-status transition.
	ScrubBlob(ctx context.Context, key string)
}

type blobCoordinator struct {
	db      *gorm.DB
	log     *logger.Logger
	items   knowledgerepo.KnowledgeRepo
	bucket  BlobRemover
	orphans OrphanRecorder
}

// NewBlobCoordinator wires the coordinator. orphans may be nil; failed keys
// are then only logged.
func NewBlobCoordinator(
	db *gorm.DB,
	baseLog *logger.Logger,
	items knowledgerepo.KnowledgeRepo,
	bucket BlobRemover,
	orphans OrphanRecorder,
) BlobCoordinator {
	serviceLog := baseLog.With("service", "BlobCoordinator")
	return &blobCoordinator{
		db:      db,
		log:     serviceLog,
		items:   items,
		bucket:  bucket,
		orphans: orphans,
	}
}

func (c *blobCoordinator) DeleteOne(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.DeleteResult, error) {
	var (
		item *types.Knowledge
		keys []string
	)
	err := c.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := c.items.GetByID(dbc, id, userID)
		if err != nil {
			return err
		}
		item = found

		// Deleting a folder takes its descendants with it, so their blob
		// keys must be collected here; leaving the removal to the FK
		// cascade would orphan every descendant blob with no record.
		victims := []*types.Knowledge{found}
		if found.IsFolder {
			descendants, err := c.items.Subtree(dbc, id)
			if err != nil {
				return err
			}
			victims = append(victims, descendants...)
		}

		ids := make([]uuid.UUID, 0, len(victims))
		for _, v := range victims {
			ids = append(ids, v.ID)
			if v.HasBlob() {
				keys = append(keys, v.SourceLink)
			}
		}
		affected, err := c.items.DeleteByIDs(dbc, ids)
		if err != nil {
			return err
		}
		if affected == 0 {
			// Lost a race with a concurrent deleter.
			return kberr.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The rows are gone; from here on storage failures are the
	// coordinator's to swallow.
	switch len(keys) {
	case 0:
	case 1:
		if err := c.bucket.RemoveOne(ctx, keys[0]); err != nil {
			c.reportOrphans(ctx, keys, err)
		}
	default:
		failed, batchErr := c.bucket.RemoveMany(ctx, keys)
		if batchErr != nil {
			c.reportOrphans(ctx, keys, batchErr)
		} else if len(failed) > 0 {
			c.reportOrphans(ctx, failed, nil)
		}
	}

	return &types.DeleteResult{
		KnowledgeID: item.ID,
		FileName:    item.FileName,
		Status:      "deleted",
	}, nil
}

func (c *blobCoordinator) DeleteMany(ctx context.Context, collect func(dbc dbctx.Context) ([]*types.Knowledge, error)) (*BatchDeleteResult, error) {
	var (
		keys    []string
		deleted int64
	)
	err := c.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		items, err := collect(dbc)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ID)
			// Only local items own a blob; external and sync links are not
			// ours to remove.
			if item.HasBlob() {
				keys = append(keys, item.SourceLink)
			}
		}
		affected, err := c.items.DeleteByIDs(dbc, ids)
		if err != nil {
			return err
		}
		deleted = affected
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(keys) > 0 {
		failed, batchErr := c.bucket.RemoveMany(ctx, keys)
		if batchErr != nil {
			c.reportOrphans(ctx, keys, batchErr)
		} else if len(failed) > 0 {
			c.reportOrphans(ctx, failed, nil)
		}
	}

	return &BatchDeleteResult{RowsDeleted: deleted, BlobKeys: keys}, nil
}

func (c *blobCoordinator) ScrubBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := c.bucket.RemoveOne(ctx, key); err != nil {
		c.reportOrphans(ctx, []string{key}, err)
	}
}

func (c *blobCoordinator) reportOrphans(ctx context.Context, keys []string, cause error) {
	c.log.Error("Blob removal failed after metadata commit, keys left orphaned",
		"keys", keys,
		"error", cause,
	)
	if c.orphans == nil {
		return
	}
	if err := c.orphans.Enqueue(ctx, keys); err != nil {
		c.log.Error("Recording orphaned blob keys failed, sweep will miss them",
			"keys", keys,
			"error", err,
		)
	}
}
