package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/mindforge-ai/mindforge-backend/internal/http/handlers"
	httpMW "github.com/mindforge-ai/mindforge-backend/internal/http/middleware"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	KnowledgeHandler      *httpH.KnowledgeHandler
	BrainKnowledgeHandler *httpH.BrainKnowledgeHandler
	HealthHandler         *httpH.HealthHandler

	ServiceName string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(cfg.Log))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	api.Use(httpMW.RequireUser())
	{
		if cfg.KnowledgeHandler != nil {
			api.POST("/knowledge", cfg.KnowledgeHandler.Create)
			api.GET("/knowledge/roots", cfg.KnowledgeHandler.Roots)
			api.GET("/knowledge/duplicate", cfg.KnowledgeHandler.FindDuplicate)
			api.GET("/knowledge/sync", cfg.KnowledgeHandler.SyncLookup)
			api.GET("/knowledge/:id", cfg.KnowledgeHandler.Get)
			api.PATCH("/knowledge/:id", cfg.KnowledgeHandler.Update)
			api.PUT("/knowledge/:id/status", cfg.KnowledgeHandler.UpdateStatus)
			api.PUT("/knowledge/:id/sha1", cfg.KnowledgeHandler.UpdateFileSha1)
			api.GET("/knowledge/:id/children", cfg.KnowledgeHandler.Children)
			api.GET("/knowledge/:id/subtree", cfg.KnowledgeHandler.Subtree)
			api.DELETE("/knowledge/:id", cfg.KnowledgeHandler.Delete)
			api.DELETE("/knowledge/:id/subtree", cfg.KnowledgeHandler.DeleteSubtree)
		}

		if cfg.BrainKnowledgeHandler != nil {
			api.GET("/brains/:brain_id/knowledge", cfg.BrainKnowledgeHandler.List)
			api.DELETE("/brains/:brain_id/knowledge", cfg.BrainKnowledgeHandler.DeleteAll)
			api.POST("/brains/:brain_id/knowledge/:id", cfg.BrainKnowledgeHandler.Link)
			api.DELETE("/brains/:brain_id/knowledge/:id", cfg.BrainKnowledgeHandler.Unlink)
		}
	}

	return r
}
