package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mindforge-ai/mindforge-backend/internal/http/response"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
	"github.com/mindforge-ai/mindforge-backend/internal/services"
)

// BrainKnowledgeHandler serves the brain-scoped views of the store: linkage,
// listing and bulk removal.
type BrainKnowledgeHandler struct {
	log       *logger.Logger
	knowledge services.KnowledgeService
}

func NewBrainKnowledgeHandler(log *logger.Logger, knowledge services.KnowledgeService) *BrainKnowledgeHandler {
	return &BrainKnowledgeHandler{
		log:       log.With("handler", "BrainKnowledgeHandler"),
		knowledge: knowledge,
	}
}

func parseBrainID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("brain_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_brain_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/brains/:brain_id/knowledge
func (h *BrainKnowledgeHandler) List(c *gin.Context) {
	brainID, ok := parseBrainID(c)
	if !ok {
		return
	}
	// An optional file_name narrows the listing to a single item.
	if fileName := strings.TrimSpace(c.Query("file_name")); fileName != "" {
		item, err := h.knowledge.GetByFileNameAndBrain(c.Request.Context(), fileName, brainID)
		if err != nil {
			response.RespondDomainError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"knowledge": []any{item}})
		return
	}
	items, err := h.knowledge.AllForBrain(c.Request.Context(), brainID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"knowledge": items})
}

// POST /api/brains/:brain_id/knowledge/:id
func (h *BrainKnowledgeHandler) Link(c *gin.Context) {
	brainID, ok := parseBrainID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.knowledge.LinkToBrain(c.Request.Context(), id, brainID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"linked": true})
}

// DELETE /api/brains/:brain_id/knowledge/:id
func (h *BrainKnowledgeHandler) Unlink(c *gin.Context) {
	brainID, ok := parseBrainID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.knowledge.UnlinkFromBrain(c.Request.Context(), id, brainID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"unlinked": true})
}

// DELETE /api/brains/:brain_id/knowledge
func (h *BrainKnowledgeHandler) DeleteAll(c *gin.Context) {
	brainID, ok := parseBrainID(c)
	if !ok {
		return
	}
	removed, err := h.knowledge.RemoveAllForBrain(c.Request.Context(), brainID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	h.log.Info("Brain knowledge purged", "brain_id", brainID, "blobs", removed)
	response.RespondOK(c, gin.H{"removed_blobs": removed})
}
