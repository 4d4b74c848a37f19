package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/mindforge-ai/mindforge-backend/internal/http/middleware"
	"github.com/mindforge-ai/mindforge-backend/internal/http/response"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
	"github.com/mindforge-ai/mindforge-backend/internal/services"
	types "github.com/mindforge-ai/mindforge-backend/internal/domain"
)

type KnowledgeHandler struct {
	log       *logger.Logger
	knowledge services.KnowledgeService
}

func NewKnowledgeHandler(log *logger.Logger, knowledge services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{
		log:       log.With("handler", "KnowledgeHandler"),
		knowledge: knowledge,
	}
}

type createKnowledgeRequest struct {
	BrainID  *uuid.UUID `json:"brain_id"`
	ParentID *uuid.UUID `json:"parent_id"`

	IsFolder  bool   `json:"is_folder"`
	FileName  string `json:"file_name"`
	URL       string `json:"url"`
	Extension string `json:"extension"`
	MimeType  string `json:"mime_type"`
	FileSize  int64  `json:"file_size"`

	Source     string `json:"source"`
	SourceLink string `json:"source_link"`

	FileSha1 *string        `json:"file_sha1"`
	SyncID   *int64         `json:"sync_id"`
	Metadata datatypes.JSON `json:"metadata"`
}

// POST /api/knowledge
func (h *KnowledgeHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	var req createKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if strings.TrimSpace(req.FileName) == "" && strings.TrimSpace(req.URL) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", nil)
		return
	}

	item, err := h.knowledge.Create(c.Request.Context(), services.CreateKnowledgeInput{
		UserID:     userID,
		BrainID:    req.BrainID,
		ParentID:   req.ParentID,
		IsFolder:   req.IsFolder,
		FileName:   req.FileName,
		URL:        req.URL,
		Extension:  req.Extension,
		MimeType:   req.MimeType,
		FileSize:   req.FileSize,
		Source:     types.KnowledgeSource(req.Source),
		SourceLink: req.SourceLink,
		FileSha1:   req.FileSha1,
		SyncID:     req.SyncID,
		Metadata:   req.Metadata,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, item)
}

// GET /api/knowledge/:id
func (h *KnowledgeHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	item, err := h.knowledge.Get(c.Request.Context(), id, &userID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, item)
}

type updateKnowledgeRequest struct {
	FileName   *string        `json:"file_name"`
	URL        *string        `json:"url"`
	Extension  *string        `json:"extension"`
	MimeType   *string        `json:"mime_type"`
	FileSize   *int64         `json:"file_size"`
	SourceLink *string        `json:"source_link"`
	SyncID     *int64         `json:"sync_id"`
	Metadata   datatypes.JSON `json:"metadata"`
}

// PATCH /api/knowledge/:id
func (h *KnowledgeHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	item, err := h.knowledge.Update(c.Request.Context(), id, services.UpdateKnowledgeInput{
		FileName:   req.FileName,
		URL:        req.URL,
		Extension:  req.Extension,
		MimeType:   req.MimeType,
		FileSize:   req.FileSize,
		SourceLink: req.SourceLink,
		SyncID:     req.SyncID,
		Metadata:   req.Metadata,
	}, &userID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, item)
}

type updateStatusRequest struct {
	Status  string     `json:"status" binding:"required"`
	BrainID *uuid.UUID `json:"brain_id"`
}

// PUT /api/knowledge/:id/status
func (h *KnowledgeHandler) UpdateStatus(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	item, err := h.knowledge.UpdateStatus(c.Request.Context(), id, types.KnowledgeStatus(req.Status), req.BrainID, &userID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, item)
}

type updateSha1Request struct {
	FileSha1 string `json:"file_sha1" binding:"required"`
}

// PUT /api/knowledge/:id/sha1
func (h *KnowledgeHandler) UpdateFileSha1(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateSha1Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	item, err := h.knowledge.UpdateFileSha1(c.Request.Context(), id, req.FileSha1, &userID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, item)
}

// GET /api/knowledge/duplicate?file_sha1=...
func (h *KnowledgeHandler) FindDuplicate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	sha1 := strings.TrimSpace(c.Query("file_sha1"))
	if sha1 == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_file_sha1", nil)
		return
	}
	item, err := h.knowledge.FindDuplicate(c.Request.Context(), userID, sha1)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"duplicate": item})
}

// GET /api/knowledge/sync?sync_file_id=... or ?sync_id=...
func (h *KnowledgeHandler) SyncLookup(c *gin.Context) {
	if syncFileID := strings.TrimSpace(c.Query("sync_file_id")); syncFileID != "" {
		item, err := h.knowledge.GetBySyncFileID(c.Request.Context(), syncFileID)
		if err != nil {
			response.RespondDomainError(c, err)
			return
		}
		response.RespondOK(c, item)
		return
	}
	raw := strings.TrimSpace(c.Query("sync_id"))
	if raw == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_sync_reference", nil)
		return
	}
	syncID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_sync_id", err)
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	items, err := h.knowledge.GetBySyncID(c.Request.Context(), syncID, &userID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"knowledge": items})
}

// GET /api/knowledge/roots
func (h *KnowledgeHandler) Roots(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	roots, err := h.knowledge.Roots(c.Request.Context(), userID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"roots": roots})
}

// GET /api/knowledge/:id/children
func (h *KnowledgeHandler) Children(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	children, err := h.knowledge.Children(c.Request.Context(), id, &userID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"children": children})
}

// GET /api/knowledge/:id/subtree
func (h *KnowledgeHandler) Subtree(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	items, err := h.knowledge.Subtree(c.Request.Context(), id, &userID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"descendants": items})
}

// DELETE /api/knowledge/:id
func (h *KnowledgeHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	result, err := h.knowledge.Remove(c.Request.Context(), id, &userID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// DELETE /api/knowledge/:id/subtree
func (h *KnowledgeHandler) DeleteSubtree(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_user", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	result, err := h.knowledge.RemoveSubtree(c.Request.Context(), id, &userID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"rows_deleted": result.RowsDeleted,
		"blob_keys":    len(result.BlobKeys),
	})
}
