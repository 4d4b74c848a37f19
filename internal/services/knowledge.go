package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	knowledgerepo "github.com/mindforge-ai/mindforge-backend/internal/data/repos/knowledge"
	types "github.com/mindforge-ai/mindforge-backend/internal/domain"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/dbctx"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

// CreateKnowledgeInput carries the caller-supplied fields for a new item.
// Status always starts at CREATED; the storage key of local items is derived
// server-side once the id exists.
type CreateKnowledgeInput struct {
	UserID   uuid.UUID
	BrainID  *uuid.UUID
	ParentID *uuid.UUID

	IsFolder  bool
	FileName  string
	URL       string
	Extension string
	MimeType  string
	FileSize  int64

	Source types.KnowledgeSource
	// SourceLink is only honored for external/sync items; local items get a
	// derived storage key instead.
	SourceLink string

	FileSha1 *string
	SyncID   *int64
	Metadata datatypes.JSON
}

// UpdateKnowledgeInput applies only the fields that are set; nil pointers
// leave the column untouched. Status and sha1 have dedicated operations.
type UpdateKnowledgeInput struct {
	FileName   *string
	URL        *string
	Extension  *string
	MimeType   *string
	FileSize   *int64
	SourceLink *string
	SyncID     *int64
	Metadata   datatypes.JSON
}

type RootWithChildren struct {
	Root     *types.Knowledge   `json:"root"`
	Children []*types.Knowledge `json:"children"`
}

type KnowledgeService interface {
	Create(ctx context.Context, input CreateKnowledgeInput) (*types.Knowledge, error)
	Get(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.Knowledge, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateKnowledgeInput, userID *uuid.UUID) (*types.Knowledge, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status types.KnowledgeStatus, brainID, userID *uuid.UUID) (*types.Knowledge, error)
	UpdateFileSha1(ctx context.Context, id uuid.UUID, fileSha1 string, userID *uuid.UUID) (*types.Knowledge, error)
	UpdateSourceLink(ctx context.Context, id uuid.UUID, sourceLink string, userID *uuid.UUID) (*types.Knowledge, error)
	FindDuplicate(ctx context.Context, userID uuid.UUID, fileSha1 string) (*types.Knowledge, error)
	GetBySyncFileID(ctx context.Context, syncFileID string) (*types.Knowledge, error)
	GetBySyncID(ctx context.Context, syncID int64, userID *uuid.UUID) ([]*types.Knowledge, error)
	GetByFileNameAndBrain(ctx context.Context, fileName string, brainID uuid.UUID) (*types.Knowledge, error)

	Children(ctx context.Context, parentID uuid.UUID, userID *uuid.UUID) ([]*types.Knowledge, error)
	Roots(ctx context.Context, userID uuid.UUID) ([]*RootWithChildren, error)
	Subtree(ctx context.Context, id uuid.UUID, userID *uuid.UUID) ([]*types.Knowledge, error)

	LinkToBrain(ctx context.Context, id, brainID uuid.UUID) error
	UnlinkFromBrain(ctx context.Context, id, brainID uuid.UUID) error
	AllForBrain(ctx context.Context, brainID uuid.UUID) ([]*types.Knowledge, error)

	Remove(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.DeleteResult, error)
	RemoveSubtree(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*BatchDeleteResult, error)
	RemoveAllForBrain(ctx context.Context, brainID uuid.UUID) (int, error)
}

type knowledgeService struct {
	db          *gorm.DB
	log         *logger.Logger
	tracer      trace.Tracer
	items       knowledgerepo.KnowledgeRepo
	brains      knowledgerepo.BrainRepo
	links       knowledgerepo.BrainLinkRepo
	coordinator BlobCoordinator

	// validateTransitions can be switched off for strict behavioral parity
	// with systems that wrote any status at any time.
	validateTransitions bool
}

func NewKnowledgeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	items knowledgerepo.KnowledgeRepo,
	brains knowledgerepo.BrainRepo,
	links knowledgerepo.BrainLinkRepo,
	coordinator BlobCoordinator,
	validateTransitions bool,
) KnowledgeService {
	serviceLog := baseLog.With("service", "KnowledgeService")
	return &knowledgeService{
		db:                  db,
		log:                 serviceLog,
		tracer:              otel.Tracer("mindforge.knowledge"),
		items:               items,
		brains:              brains,
		links:               links,
		coordinator:         coordinator,
		validateTransitions: validateTransitions,
	}
}

// StorageKey derives the object key for a local item. It depends only on the
// owning collection (or user when no brain is given) and the generated item
// id, so it is computable before any bytes are written.
func StorageKey(brainID *uuid.UUID, userID, knowledgeID uuid.UUID) string {
	if brainID != nil {
		return fmt.Sprintf("%s/%s", brainID, knowledgeID)
	}
	return fmt.Sprintf("%s/%s", userID, knowledgeID)
}

func (s *knowledgeService) Create(ctx context.Context, input CreateKnowledgeInput) (*types.Knowledge, error) {
	ctx, span := s.tracer.Start(ctx, "knowledge.create")
	defer span.End()

	if !input.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", kberr.ErrValidation, input.Source)
	}

	var created *types.Knowledge
	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		if input.ParentID != nil {
			parent, err := s.items.GetByID(dbc, *input.ParentID, nil)
			if err != nil {
				return fmt.Errorf("%w: parent %s does not resolve", kberr.ErrValidation, *input.ParentID)
			}
			if !parent.IsFolder {
				return fmt.Errorf("%w: parent %s is not a folder", kberr.ErrValidation, parent.ID)
			}
		}

		item := &types.Knowledge{
			ID:         uuid.New(),
			ParentID:   input.ParentID,
			IsFolder:   input.IsFolder,
			FileName:   input.FileName,
			URL:        input.URL,
			Extension:  input.Extension,
			MimeType:   input.MimeType,
			FileSize:   input.FileSize,
			Status:     types.StatusCreated,
			Source:     input.Source,
			SourceLink: input.SourceLink,
			FileSha1:   input.FileSha1,
			SyncID:     input.SyncID,
			Metadata:   input.Metadata,
			UserID:     input.UserID,
		}
		if item.Source == types.SourceLocal {
			// Filled in after the insert; the insert itself must not carry a
			// stale caller-supplied link.
			item.SourceLink = ""
		}
		if _, err := s.items.Create(dbc, []*types.Knowledge{item}); err != nil {
			return err
		}

		if item.Source == types.SourceLocal {
			key := StorageKey(input.BrainID, input.UserID, item.ID)
			updated, err := s.items.UpdateSourceLink(dbc, item.ID, key)
			if err != nil {
				return err
			}
			item = updated
		}

		if input.BrainID != nil {
			if err := s.links.Link(dbc, item.ID, *input.BrainID); err != nil {
				return err
			}
		}

		created = item
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.log.Info("Knowledge created",
		"knowledge_id", created.ID,
		"user_id", created.UserID,
		"source", created.Source,
		"is_folder", created.IsFolder,
	)
	return created, nil
}

func (s *knowledgeService) Get(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.Knowledge, error) {
	return s.items.GetByID(dbctx.Context{Ctx: ctx}, id, userID)
}

func (s *knowledgeService) Update(ctx context.Context, id uuid.UUID, input UpdateKnowledgeInput, userID *uuid.UUID) (*types.Knowledge, error) {
	fields := map[string]interface{}{}
	if input.FileName != nil {
		fields["file_name"] = *input.FileName
	}
	if input.URL != nil {
		fields["url"] = *input.URL
	}
	if input.Extension != nil {
		fields["extension"] = *input.Extension
	}
	if input.MimeType != nil {
		fields["mime_type"] = *input.MimeType
	}
	if input.FileSize != nil {
		fields["file_size"] = *input.FileSize
	}
	if input.SourceLink != nil {
		fields["source_link"] = *input.SourceLink
	}
	if input.SyncID != nil {
		fields["sync_id"] = *input.SyncID
	}
	if input.Metadata != nil {
		fields["metadata"] = input.Metadata
	}
	if len(fields) == 0 {
		return s.Get(ctx, id, userID)
	}

	var updated *types.Knowledge
	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.items.GetByID(dbc, id, userID); err != nil {
			return err
		}
		item, err := s.items.UpdateFields(dbc, id, fields)
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *knowledgeService) UpdateStatus(ctx context.Context, id uuid.UUID, status types.KnowledgeStatus, brainID, userID *uuid.UUID) (*types.Knowledge, error) {
	ctx, span := s.tracer.Start(ctx, "knowledge.update_status")
	defer span.End()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", kberr.ErrValidation, status)
	}

	var updated *types.Knowledge
	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		item, err := s.items.GetByID(dbc, id, userID)
		if err != nil {
			return err
		}
		if s.validateTransitions {
			if err := types.ValidateTransition(item.Status, status, item.Source); err != nil {
				return err
			}
		}
		next, err := s.items.UpdateStatus(dbc, id, status)
		if err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Failed ingestion of a local item leaves a blob nothing will ever
	// reference again. Clean it up best-effort; the committed ERROR status
	// is authoritative whether or not the removal goes through.
	if status == types.StatusError && brainID != nil && updated.HasBlob() {
		s.log.Warn("Ingestion failed, scrubbing blob",
			"knowledge_id", updated.ID,
			"brain_id", *brainID,
			"key", updated.SourceLink,
		)
		s.coordinator.ScrubBlob(ctx, updated.SourceLink)
	}

	return updated, nil
}

func (s *knowledgeService) UpdateFileSha1(ctx context.Context, id uuid.UUID, fileSha1 string, userID *uuid.UUID) (*types.Knowledge, error) {
	var updated *types.Knowledge
	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.items.GetByID(dbc, id, userID); err != nil {
			return err
		}
		item, err := s.items.UpdateFileSha1(dbc, id, fileSha1)
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *knowledgeService) UpdateSourceLink(ctx context.Context, id uuid.UUID, sourceLink string, userID *uuid.UUID) (*types.Knowledge, error) {
	var updated *types.Knowledge
	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.items.GetByID(dbc, id, userID); err != nil {
			return err
		}
		item, err := s.items.UpdateSourceLink(dbc, id, sourceLink)
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *knowledgeService) FindDuplicate(ctx context.Context, userID uuid.UUID, fileSha1 string) (*types.Knowledge, error) {
	return s.items.GetBySha1(dbctx.Context{Ctx: ctx}, userID, fileSha1)
}

func (s *knowledgeService) GetBySyncFileID(ctx context.Context, syncFileID string) (*types.Knowledge, error) {
	return s.items.GetBySyncFileID(dbctx.Context{Ctx: ctx}, syncFileID)
}

func (s *knowledgeService) GetBySyncID(ctx context.Context, syncID int64, userID *uuid.UUID) ([]*types.Knowledge, error) {
	return s.items.GetBySyncID(dbctx.Context{Ctx: ctx}, syncID, userID)
}

func (s *knowledgeService) GetByFileNameAndBrain(ctx context.Context, fileName string, brainID uuid.UUID) (*types.Knowledge, error) {
	return s.items.GetByFileNameAndBrain(dbctx.Context{Ctx: ctx}, fileName, brainID)
}

func (s *knowledgeService) Children(ctx context.Context, parentID uuid.UUID, userID *uuid.UUID) ([]*types.Knowledge, error) {
	dbc := dbctx.Context{Ctx: ctx}
	// The tree is owner-scoped through its parent: a caller who cannot see
	// the parent sees no children either.
	if _, err := s.items.GetByID(dbc, parentID, userID); err != nil {
		return nil, err
	}
	return s.items.ChildrenOf(dbc, parentID)
}

func (s *knowledgeService) Roots(ctx context.Context, userID uuid.UUID) ([]*RootWithChildren, error) {
	dbc := dbctx.Context{Ctx: ctx}
	roots, err := s.items.RootsOf(dbc, userID)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return []*RootWithChildren{}, nil
	}

	rootIDs := make([]uuid.UUID, 0, len(roots))
	for _, r := range roots {
		rootIDs = append(rootIDs, r.ID)
	}
	children, err := s.items.ChildrenOfAny(dbc, rootIDs)
	if err != nil {
		return nil, err
	}
	byParent := map[uuid.UUID][]*types.Knowledge{}
	for _, c := range children {
		if c.ParentID == nil {
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}

	out := make([]*RootWithChildren, 0, len(roots))
	for _, r := range roots {
		out = append(out, &RootWithChildren{Root: r, Children: byParent[r.ID]})
	}
	return out, nil
}

func (s *knowledgeService) Subtree(ctx context.Context, id uuid.UUID, userID *uuid.UUID) ([]*types.Knowledge, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.items.GetByID(dbc, id, userID); err != nil {
		return nil, err
	}
	return s.items.Subtree(dbc, id)
}

func (s *knowledgeService) LinkToBrain(ctx context.Context, id, brainID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.items.GetByID(dbc, id, nil); err != nil {
			return err
		}
		return s.links.Link(dbc, id, brainID)
	})
}

func (s *knowledgeService) UnlinkFromBrain(ctx context.Context, id, brainID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.items.GetByID(dbc, id, nil); err != nil {
			return err
		}
		return s.links.Unlink(dbc, id, brainID)
	})
}

func (s *knowledgeService) AllForBrain(ctx context.Context, brainID uuid.UUID) ([]*types.Knowledge, error) {
	return s.links.AllKnowledgeOf(dbctx.Context{Ctx: ctx}, brainID)
}

func (s *knowledgeService) Remove(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.DeleteResult, error) {
	ctx, span := s.tracer.Start(ctx, "knowledge.remove")
	defer span.End()

	result, err := s.coordinator.DeleteOne(ctx, id, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.log.Info("Knowledge removed", "knowledge_id", result.KnowledgeID)
	return result, nil
}

func (s *knowledgeService) RemoveSubtree(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*BatchDeleteResult, error) {
	ctx, span := s.tracer.Start(ctx, "knowledge.remove_subtree")
	defer span.End()

	result, err := s.coordinator.DeleteMany(ctx, func(dbc dbctx.Context) ([]*types.Knowledge, error) {
		root, err := s.items.GetByID(dbc, id, userID)
		if err != nil {
			return nil, err
		}
		descendants, err := s.items.Subtree(dbc, id)
		if err != nil {
			return nil, err
		}
		return append([]*types.Knowledge{root}, descendants...), nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.log.Info("Knowledge subtree removed",
		"root_id", id,
		"rows_deleted", result.RowsDeleted,
		"blob_keys", len(result.BlobKeys),
	)
	return result, nil
}

func (s *knowledgeService) RemoveAllForBrain(ctx context.Context, brainID uuid.UUID) (int, error) {
	ctx, span := s.tracer.Start(ctx, "knowledge.remove_all_for_brain")
	defer span.End()

	result, err := s.coordinator.DeleteMany(ctx, func(dbc dbctx.Context) ([]*types.Knowledge, error) {
		return s.links.AllKnowledgeOf(dbc, brainID)
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	s.log.Info("All knowledge removed for brain",
		"brain_id", brainID,
		"rows_deleted", result.RowsDeleted,
		"blob_keys", len(result.BlobKeys),
	)
	return len(result.BlobKeys), nil
}
