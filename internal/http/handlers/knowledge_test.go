package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/mindforge-ai/mindforge-backend/internal/domain"
	"github.com/mindforge-ai/mindforge-backend/internal/http/middleware"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
	"github.com/mindforge-ai/mindforge-backend/internal/services"
)

// stubKnowledgeService overrides the methods a test cares about and panics
// on anything else via the embedded nil interface.
type stubKnowledgeService struct {
	services.KnowledgeService

	createFn func(ctx context.Context, input services.CreateKnowledgeInput) (*types.Knowledge, error)
	getFn    func(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.Knowledge, error)
	removeFn func(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.DeleteResult, error)
}

func (s *stubKnowledgeService) Create(ctx context.Context, input services.CreateKnowledgeInput) (*types.Knowledge, error) {
	return s.createFn(ctx, input)
}

func (s *stubKnowledgeService) Get(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.Knowledge, error) {
	return s.getFn(ctx, id, userID)
}

func (s *stubKnowledgeService) Remove(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.DeleteResult, error) {
	return s.removeFn(ctx, id, userID)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func knowledgeRouter(t *testing.T, svc services.KnowledgeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewKnowledgeHandler(testLogger(t), svc)
	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.RequireUser())
	api.POST("/knowledge", h.Create)
	api.GET("/knowledge/:id", h.Get)
	api.DELETE("/knowledge/:id", h.Delete)
	return r
}

func TestKnowledgeHandlerCreate(t *testing.T) {
	userID := uuid.New()
	var captured services.CreateKnowledgeInput
	svc := &stubKnowledgeService{
		createFn: func(ctx context.Context, input services.CreateKnowledgeInput) (*types.Knowledge, error) {
			captured = input
			return &types.Knowledge{ID: uuid.New(), FileName: input.FileName, UserID: input.UserID}, nil
		},
	}
	r := knowledgeRouter(t, svc)

	body, _ := json.Marshal(map[string]any{
		"file_name": "notes.md",
		"source":    "local",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/knowledge", bytes.NewReader(body))
	req.Header.Set("X-User-ID", userID.String())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if captured.UserID != userID {
		t.Fatalf("owner not taken from header: got=%s want=%s", captured.UserID, userID)
	}
	if captured.Source != types.SourceLocal || captured.FileName != "notes.md" {
		t.Fatalf("unexpected input: %+v", captured)
	}
}

func TestKnowledgeHandlerCreateRejectsEmptyBody(t *testing.T) {
	svc := &stubKnowledgeService{
		createFn: func(ctx context.Context, input services.CreateKnowledgeInput) (*types.Knowledge, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	r := knowledgeRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/knowledge", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-User-ID", uuid.New().String())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestKnowledgeHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", kberr.ErrNotFound, http.StatusNotFound},
		{"validation", fmt.Errorf("%w: bad parent", kberr.ErrValidation), http.StatusUnprocessableEntity},
		{"duplicate", kberr.ErrDuplicateContent, http.StatusConflict},
		{"internal", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubKnowledgeService{
				getFn: func(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.Knowledge, error) {
					return nil, tc.err
				},
			}
			r := knowledgeRouter(t, svc)

			req := httptest.NewRequest(http.MethodGet, "/api/knowledge/"+uuid.New().String(), nil)
			req.Header.Set("X-User-ID", uuid.New().String())
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestKnowledgeHandlerGetScopesToCaller(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()
	svc := &stubKnowledgeService{
		getFn: func(ctx context.Context, id uuid.UUID, caller *uuid.UUID) (*types.Knowledge, error) {
			if caller == nil || *caller != userID {
				t.Errorf("caller scope not forwarded: %v", caller)
			}
			return &types.Knowledge{ID: id, UserID: userID}, nil
		},
	}
	r := knowledgeRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge/"+itemID.String(), nil)
	req.Header.Set("X-User-ID", userID.String())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestKnowledgeHandlerDelete(t *testing.T) {
	itemID := uuid.New()
	svc := &stubKnowledgeService{
		removeFn: func(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*types.DeleteResult, error) {
			return &types.DeleteResult{KnowledgeID: id, FileName: "gone.txt", Status: "deleted"}, nil
		},
	}
	r := knowledgeRouter(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/knowledge/"+itemID.String(), nil)
	req.Header.Set("X-User-ID", uuid.New().String())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var result types.DeleteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.KnowledgeID != itemID || result.Status != "deleted" {
		t.Fatalf("unexpected result: %+v", result)
	}
}
