package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/mindforge-ai/mindforge-backend/internal/domain"
)

func AutoMigrateAll(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&types.User{},
		&types.Brain{},
		&types.Knowledge{},
		&types.KnowledgeBrain{},
	)
}

// EnsureKnowledgeIndexes creates the constraints AutoMigrate cannot express.
//
// The content-hash index is partial and scoped per user: two users may hold
// the same bytes without learning about each other, but one user racing two
// creates on the same hash gets exactly one winner from the database, not
// from application locking.
func EnsureKnowledgeIndexes(gdb *gorm.DB) error {
	if err := gdb.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_knowledge_user_file_sha1
		ON knowledge(user_id, file_sha1)
		WHERE file_sha1 IS NOT NULL;
	`).Error; err != nil {
		return fmt.Errorf("create uq_knowledge_user_file_sha1: %w", err)
	}

	if err := gdb.Exec(`
		ALTER TABLE knowledge
		DROP CONSTRAINT IF EXISTS fk_knowledge_parent_id;
	`).Error; err != nil {
		return fmt.Errorf("drop fk_knowledge_parent_id: %w", err)
	}
	if err := gdb.Exec(`
		ALTER TABLE knowledge
		ADD CONSTRAINT fk_knowledge_parent_id
		FOREIGN KEY (parent_id) REFERENCES knowledge(id)
		ON DELETE CASCADE;
	`).Error; err != nil {
		return fmt.Errorf("add fk_knowledge_parent_id: %w", err)
	}

	if err := gdb.Exec(`
		ALTER TABLE knowledge_brain
		DROP CONSTRAINT IF EXISTS fk_knowledge_brain_knowledge_id;
	`).Error; err != nil {
		return fmt.Errorf("drop fk_knowledge_brain_knowledge_id: %w", err)
	}
	if err := gdb.Exec(`
		ALTER TABLE knowledge_brain
		ADD CONSTRAINT fk_knowledge_brain_knowledge_id
		FOREIGN KEY (knowledge_id) REFERENCES knowledge(id)
		ON DELETE CASCADE;
	`).Error; err != nil {
		return fmt.Errorf("add fk_knowledge_brain_knowledge_id: %w", err)
	}

	if err := gdb.Exec(`
		CREATE INDEX IF NOT EXISTS idx_knowledge_metadata_sync_file_id
		ON knowledge ((metadata->>'sync_file_id'));
	`).Error; err != nil {
		return fmt.Errorf("create idx_knowledge_metadata_sync_file_id: %w", err)
	}

	return nil
}
