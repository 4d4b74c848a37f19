package knowledge

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mindforge-ai/mindforge-backend/internal/domain"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/dbctx"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

type KnowledgeRepo interface {
	Create(dbc dbctx.Context, items []*types.Knowledge) ([]*types.Knowledge, error)
	GetByID(dbc dbctx.Context, id uuid.UUID, userID *uuid.UUID) (*types.Knowledge, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Knowledge, error)

	// GetBySha1 is the dedup point lookup; a missing row is a normal
	// "no duplicate" result, not an error.
	GetBySha1(dbc dbctx.Context, userID uuid.UUID, sha1 string) (*types.Knowledge, error)
	GetBySyncID(dbc dbctx.Context, syncID int64, userID *uuid.UUID) ([]*types.Knowledge, error)
	GetBySyncFileID(dbc dbctx.Context, syncFileID string) (*types.Knowledge, error)
	GetByFileNameAndBrain(dbc dbctx.Context, fileName string, brainID uuid.UUID) (*types.Knowledge, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]interface{}) (*types.Knowledge, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status types.KnowledgeStatus) (*types.Knowledge, error)
	UpdateSourceLink(dbc dbctx.Context, id uuid.UUID, sourceLink string) (*types.Knowledge, error)
	UpdateFileSha1(dbc dbctx.Context, id uuid.UUID, fileSha1 string) (*types.Knowledge, error)

	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)

	ChildrenOf(dbc dbctx.Context, parentID uuid.UUID) ([]*types.Knowledge, error)
	ChildrenOfAny(dbc dbctx.Context, parentIDs []uuid.UUID) ([]*types.Knowledge, error)
	RootsOf(dbc dbctx.Context, userID uuid.UUID) ([]*types.Knowledge, error)
	Subtree(dbc dbctx.Context, rootID uuid.UUID) ([]*types.Knowledge, error)
}

type knowledgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeRepo {
	repoLog := baseLog.With("repo", "KnowledgeRepo")
	return &knowledgeRepo{db: db, log: repoLog}
}

func (r *knowledgeRepo) handle(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *knowledgeRepo) Create(dbc dbctx.Context, items []*types.Knowledge) ([]*types.Knowledge, error) {
	if len(items) == 0 {
		return []*types.Knowledge{}, nil
	}
	if err := r.handle(dbc).Create(&items).Error; err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (r *knowledgeRepo) GetByID(dbc dbctx.Context, id uuid.UUID, userID *uuid.UUID) (*types.Knowledge, error) {
	query := r.handle(dbc).Where("id = ?", id)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var item types.Knowledge
	if err := query.Take(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *knowledgeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Knowledge, error) {
	var results []*types.Knowledge
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.handle(dbc).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, translate(err)
	}
	return results, nil
}

func (r *knowledgeRepo) GetBySha1(dbc dbctx.Context, userID uuid.UUID, sha1 string) (*types.Knowledge, error) {
	var item types.Knowledge
	err := r.handle(dbc).
		Where("user_id = ? AND file_sha1 = ?", userID, sha1).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *knowledgeRepo) GetBySyncID(dbc dbctx.Context, syncID int64, userID *uuid.UUID) ([]*types.Knowledge, error) {
	query := r.handle(dbc).Where("sync_id = ?", syncID)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var results []*types.Knowledge
	if err := query.Find(&results).Error; err != nil {
		return nil, translate(err)
	}
	return results, nil
}

func (r *knowledgeRepo) GetBySyncFileID(dbc dbctx.Context, syncFileID string) (*types.Knowledge, error) {
	var item types.Knowledge
	if err := r.handle(dbc).
		Where("metadata->>'sync_file_id' = ?", syncFileID).
		Take(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *knowledgeRepo) GetByFileNameAndBrain(dbc dbctx.Context, fileName string, brainID uuid.UUID) (*types.Knowledge, error) {
	var item types.Knowledge
	if err := r.handle(dbc).
		Joins("JOIN knowledge_brain kb ON kb.knowledge_id = knowledge.id").
		Where("knowledge.file_name = ? AND kb.brain_id = ?", fileName, brainID).
		Take(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *knowledgeRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]interface{}) (*types.Knowledge, error) {
	if len(fields) == 0 {
		return r.GetByID(dbc, id, nil)
	}
	result := r.handle(dbc).Model(&types.Knowledge{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, kberr.ErrNotFound
	}
	return r.GetByID(dbc, id, nil)
}

func (r *knowledgeRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status types.KnowledgeStatus) (*types.Knowledge, error) {
	return r.UpdateFields(dbc, id, map[string]interface{}{"status": status})
}

func (r *knowledgeRepo) UpdateSourceLink(dbc dbctx.Context, id uuid.UUID, sourceLink string) (*types.Knowledge, error) {
	return r.UpdateFields(dbc, id, map[string]interface{}{"source_link": sourceLink})
}

func (r *knowledgeRepo) UpdateFileSha1(dbc dbctx.Context, id uuid.UUID, fileSha1 string) (*types.Knowledge, error) {
	return r.UpdateFields(dbc, id, map[string]interface{}{"file_sha1": fileSha1})
}

func (r *knowledgeRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.handle(dbc).Where("id IN ?", ids).Delete(&types.Knowledge{})
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *knowledgeRepo) ChildrenOf(dbc dbctx.Context, parentID uuid.UUID) ([]*types.Knowledge, error) {
	return r.ChildrenOfAny(dbc, []uuid.UUID{parentID})
}

func (r *knowledgeRepo) ChildrenOfAny(dbc dbctx.Context, parentIDs []uuid.UUID) ([]*types.Knowledge, error) {
	var results []*types.Knowledge
	if len(parentIDs) == 0 {
		return results, nil
	}
	if err := r.handle(dbc).
		Where("parent_id IN ?", parentIDs).
		Order("created_at, id").
		Find(&results).Error; err != nil {
		return nil, translate(err)
	}
	return results, nil
}

func (r *knowledgeRepo) RootsOf(dbc dbctx.Context, userID uuid.UUID) ([]*types.Knowledge, error) {
	var results []*types.Knowledge
	if err := r.handle(dbc).
		Where("parent_id IS NULL AND user_id = ?", userID).
		Order("created_at, id").
		Find(&results).Error; err != nil {
		return nil, translate(err)
	}
	return results, nil
}

// Subtree walks all transitive descendants of rootID breadth first. The
// parent relation is a forest by construction, but a corrupt cycle must not
// hang the walk: every id is visited at most once and a revisit aborts with
// ErrInconsistentTree.
func (r *knowledgeRepo) Subtree(dbc dbctx.Context, rootID uuid.UUID) ([]*types.Knowledge, error) {
	visited := map[uuid.UUID]bool{rootID: true}
	frontier := []uuid.UUID{rootID}

	var out []*types.Knowledge
	for len(frontier) > 0 {
		level, err := r.ChildrenOfAny(dbc, frontier)
		if err != nil {
			return nil, err
		}
		next := make([]uuid.UUID, 0, len(level))
		for _, item := range level {
			if visited[item.ID] {
				return nil, fmt.Errorf("%w: node %s reached twice", kberr.ErrInconsistentTree, item.ID)
			}
			visited[item.ID] = true
			out = append(out, item)
			next = append(next, item.ID)
		}
		frontier = next
	}
	return out, nil
}
