package knowledge

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/mindforge-ai/mindforge-backend/internal/domain"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/dbctx"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

// BrainLinkRepo manages the knowledge_brain join rows directly. The relation
// is never mutated through gorm association helpers, so every insert and
// delete is an explicit statement tests can reason about.
type BrainLinkRepo interface {
	// Link adds the pair, idempotently. The brain must resolve first; a
	// second Link of the same pair is a no-op.
	Link(dbc dbctx.Context, knowledgeID, brainID uuid.UUID) error
	// Unlink removes the pair. Returns ErrBrainNotFound when the brain does
	// not resolve and ErrNotLinked when the pair never existed, so callers
	// can tell the two apart.
	Unlink(dbc dbctx.Context, knowledgeID, brainID uuid.UUID) error
	// AllKnowledgeOf lists every knowledge item linked to the brain. Run it
	// inside the same transaction as a bulk delete to get one consistent
	// snapshot (READ COMMITTED gives statement-level consistency here).
	AllKnowledgeOf(dbc dbctx.Context, brainID uuid.UUID) ([]*types.Knowledge, error)
	// DeleteLinksForBrain drops all join rows of the brain and reports how
	// many were removed.
	DeleteLinksForBrain(dbc dbctx.Context, brainID uuid.UUID) (int64, error)
}

type brainLinkRepo struct {
	db     *gorm.DB
	brains BrainRepo
	log    *logger.Logger
}

func NewBrainLinkRepo(db *gorm.DB, brains BrainRepo, baseLog *logger.Logger) BrainLinkRepo {
	repoLog := baseLog.With("repo", "BrainLinkRepo")
	return &brainLinkRepo{db: db, brains: brains, log: repoLog}
}

func (r *brainLinkRepo) handle(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *brainLinkRepo) Link(dbc dbctx.Context, knowledgeID, brainID uuid.UUID) error {
	if _, err := r.brains.GetByID(dbc, brainID); err != nil {
		return err
	}
	link := &types.KnowledgeBrain{KnowledgeID: knowledgeID, BrainID: brainID}
	if err := r.handle(dbc).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *brainLinkRepo) Unlink(dbc dbctx.Context, knowledgeID, brainID uuid.UUID) error {
	if _, err := r.brains.GetByID(dbc, brainID); err != nil {
		return err
	}
	result := r.handle(dbc).
		Where("knowledge_id = ? AND brain_id = ?", knowledgeID, brainID).
		Delete(&types.KnowledgeBrain{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return kberr.ErrNotLinked
	}
	return nil
}

func (r *brainLinkRepo) AllKnowledgeOf(dbc dbctx.Context, brainID uuid.UUID) ([]*types.Knowledge, error) {
	if _, err := r.brains.GetByID(dbc, brainID); err != nil {
		return nil, err
	}
	var results []*types.Knowledge
	if err := r.handle(dbc).
		Joins("JOIN knowledge_brain kb ON kb.knowledge_id = knowledge.id").
		Where("kb.brain_id = ?", brainID).
		Order("knowledge.created_at, knowledge.id").
		Find(&results).Error; err != nil {
		return nil, translate(err)
	}
	return results, nil
}

func (r *brainLinkRepo) DeleteLinksForBrain(dbc dbctx.Context, brainID uuid.UUID) (int64, error) {
	result := r.handle(dbc).
		Where("brain_id = ?", brainID).
		Delete(&types.KnowledgeBrain{})
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}
