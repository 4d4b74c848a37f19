package app

import (
	"gorm.io/gorm"

	knowledgerepo "github.com/mindforge-ai/mindforge-backend/internal/data/repos/knowledge"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

type Repos struct {
	Knowledge knowledgerepo.KnowledgeRepo
	Brain     knowledgerepo.BrainRepo
	BrainLink knowledgerepo.BrainLinkRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	brains := knowledgerepo.NewBrainRepo(db, log)
	return Repos{
		Knowledge: knowledgerepo.NewKnowledgeRepo(db, log),
		Brain:     brains,
		BrainLink: knowledgerepo.NewBrainLinkRepo(db, brains, log),
	}
}
