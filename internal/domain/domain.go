// Package domain re-exports the entity types so data and service layers can
// import a single `types` package.
package domain

import (
	"github.com/mindforge-ai/mindforge-backend/internal/domain/knowledge"
	"github.com/mindforge-ai/mindforge-backend/internal/domain/user"
)

type (
	User = user.User

	Knowledge      = knowledge.Knowledge
	Brain          = knowledge.Brain
	KnowledgeBrain = knowledge.KnowledgeBrain
	DeleteResult   = knowledge.DeleteResult

	KnowledgeStatus = knowledge.Status
	KnowledgeSource = knowledge.Source
)

const (
	StatusCreated    = knowledge.StatusCreated
	StatusProcessing = knowledge.StatusProcessing
	StatusSyncing    = knowledge.StatusSyncing
	StatusUploaded   = knowledge.StatusUploaded
	StatusError      = knowledge.StatusError

	SourceLocal    = knowledge.SourceLocal
	SourceExternal = knowledge.SourceExternal
	SourceSync     = knowledge.SourceSync
)

var (
	CanTransition      = knowledge.CanTransition
	ValidateTransition = knowledge.ValidateTransition
)
