package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByNoteId scopes to every embedding record a note owns, both granularities.
type ByNoteId struct {
	NoteId uuid.UUID
}

func (s ByNoteId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("note_id = ?", s.NoteId)
}

// ByRecordingId scopes to the chunk-level records of one recording.
type ByRecordingId struct {
	RecordingId uuid.UUID
}

func (s ByRecordingId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("recording_id = ?", s.RecordingId)
}

// NoteLevelOnly keeps records with no recording, i.e. the note-level aggregate.
type NoteLevelOnly struct{}

func (s NoteLevelOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("recording_id IS NULL")
}

// OrderBySegmentIndex restores a key's segment sequence for reassembly.
type OrderBySegmentIndex struct{}

func (s OrderBySegmentIndex) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("segment_index ASC")
}
