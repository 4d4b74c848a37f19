package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Source says where an item's bytes come from. Local items own a blob in
// object storage under SourceLink; external and sync items point at a
// third-party URI this store does not own.
type Source string

const (
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
	SourceSync     Source = "sync"
)

func (s Source) Valid() bool {
	switch s {
	case SourceLocal, SourceExternal, SourceSync:
		return true
	default:
		return false
	}
}

// Knowledge is one ingested content item or folder node. The parent link
// forms a forest: children may only reference an already-persisted parent,
// never themselves or a descendant.
type Knowledge struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParentID *uuid.UUID `gorm:"type:uuid;index;column:parent_id" json:"parent_id,omitempty"`

	IsFolder  bool   `gorm:"not null;default:false;column:is_folder" json:"is_folder"`
	FileName  string `gorm:"column:file_name" json:"file_name"`
	URL       string `gorm:"column:url" json:"url"`
	Extension string `gorm:"column:extension" json:"extension"`
	MimeType  string `gorm:"column:mime_type" json:"mime_type"`
	FileSize  int64  `gorm:"not null;default:0;column:file_size" json:"file_size"`

	Status Status `gorm:"not null;column:status" json:"status"`
	Source Source `gorm:"not null;column:source" json:"source"`

	// SourceLink holds the object storage key for local items and the
	// upstream URI for external/sync items. For local items it is filled in
	// right after the insert, once the generated id is known.
	SourceLink string `gorm:"column:source_link" json:"source_link"`

	// FileSha1 stays nil until content is hashed. Uniqueness is enforced
	// per user by a partial index, so a collision surfaces as a distinct
	// duplicate-content error rather than being silently ignored.
	FileSha1 *string `gorm:"column:file_sha1" json:"file_sha1,omitempty"`

	SyncID   *int64         `gorm:"column:sync_id;index" json:"sync_id,omitempty"`
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`

	Brains []*Brain `gorm:"many2many:knowledge_brain;" json:"brains,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Knowledge) TableName() string { return "knowledge" }

// HasBlob reports whether the item owns a blob the coordinator must account
// for when deleting metadata.
func (k *Knowledge) HasBlob() bool {
	return k != nil && k.Source == SourceLocal && k.SourceLink != ""
}

// Brain is a named collection knowledge items can belong to. It is owned by
// the collection-management side; this store only resolves and links it.
type Brain struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name   string    `gorm:"not null;column:name" json:"name"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Brain) TableName() string { return "brain" }

// KnowledgeBrain is the explicit join row for the many-to-many relation.
// The insert/delete operations on it live in the brain link repo instead of
// going through gorm association mutation, so collection loads stay explicit.
type KnowledgeBrain struct {
	KnowledgeID uuid.UUID `gorm:"type:uuid;primaryKey;column:knowledge_id" json:"knowledge_id"`
	BrainID     uuid.UUID `gorm:"type:uuid;primaryKey;column:brain_id" json:"brain_id"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (KnowledgeBrain) TableName() string { return "knowledge_brain" }

// DeleteResult is the projection returned by single-item deletion.
type DeleteResult struct {
	KnowledgeID uuid.UUID `json:"knowledge_id"`
	FileName    string    `json:"file_name"`
	Status      string    `json:"status"`
}
