package app

import (
	"gorm.io/gorm"

	httpH "github.com/mindforge-ai/mindforge-backend/internal/http/handlers"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

type Handlers struct {
	Knowledge      *httpH.KnowledgeHandler
	BrainKnowledge *httpH.BrainKnowledgeHandler
	Health         *httpH.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Knowledge:      httpH.NewKnowledgeHandler(log, services.Knowledge),
		BrainKnowledge: httpH.NewBrainKnowledgeHandler(log, services.Knowledge),
		Health:         httpH.NewHealthHandler(db),
	}
}
