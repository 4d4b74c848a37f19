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

// BrainRepo is the directory lookup for brains. Brains are owned by the
// collection-management side; the knowledge store only resolves them.
type BrainRepo interface {
	GetByID(dbc dbctx.Context, brainID uuid.UUID) (*types.Brain, error)
	Create(dbc dbctx.Context, brains []*types.Brain) ([]*types.Brain, error)
}

type brainRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrainRepo(db *gorm.DB, baseLog *logger.Logger) BrainRepo {
	repoLog := baseLog.With("repo", "BrainRepo")
	return &brainRepo{db: db, log: repoLog}
}

func (r *brainRepo) handle(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *brainRepo) GetByID(dbc dbctx.Context, brainID uuid.UUID) (*types.Brain, error) {
	var brain types.Brain
	if err := r.handle(dbc).Where("id = ?", brainID).Take(&brain).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", kberr.ErrBrainNotFound, brainID)
		}
		return nil, translate(err)
	}
	return &brain, nil
}

func (r *brainRepo) Create(dbc dbctx.Context, brains []*types.Brain) ([]*types.Brain, error) {
	if len(brains) == 0 {
		return []*types.Brain{}, nil
	}
	if err := r.handle(dbc).Create(&brains).Error; err != nil {
		return nil, translate(err)
	}
	return brains, nil
}
