package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EmbeddingRecord rows are hard-deleted: replace-before-insert keeps the table
// bounded to current index state, so soft-deleted leftovers would defeat that.
type EmbeddingRecord struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NoteId         uuid.UUID      `gorm:"type:uuid;not null;index"`
	RecordingId    *uuid.UUID     `gorm:"type:uuid;index"` // NULL => note-level
	SegmentIds     datatypes.JSON `gorm:"type:jsonb"`      // ordered uuid list; empty => note-level
	SegmentIndex   int            `gorm:"default:0"`
	VectorPointId  uuid.UUID      `gorm:"type:uuid;not null"`
	SourceText     string         `gorm:"type:text"`
	EmbeddingModel string         `gorm:"type:varchar(128)"`
	TextHash       string         `gorm:"type:varchar(64);index"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (EmbeddingRecord) TableName() string {
	return "embedding_records"
}
