package entity

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingKind is the explicit tagged variant of a record's granularity.
// Storage still serializes it as nullable fields (recording_id + segment_ids)
// for wire compatibility, but in-process code never re-derives the kind by
// convention.
type EmbeddingKind int

const (
	// KindNoteLevel: one vector for a note's whole aggregated text.
	KindNoteLevel EmbeddingKind = iota
	// KindChunkLevel: one vector per text segment of a specific recording.
	KindChunkLevel
)

func (k EmbeddingKind) String() string {
	if k == KindNoteLevel {
		return "note_level"
	}
	return "chunk_level"
}

// EmbeddingRecord is the only persisted entity of this core: the local metadata
// side of a vector-store point. The point referenced by VectorPointId is
// co-owned; its lifetime tracks this record's exactly.
type EmbeddingRecord struct {
	Id             uuid.UUID
	NoteId         uuid.UUID
	RecordingId    *uuid.UUID  // nil for note-level records
	SegmentIds     []uuid.UUID // source text units; empty for note-level records
	SegmentIndex   int         // position within the key's segment sequence
	VectorPointId  uuid.UUID
	SourceText     string // the exact text that was embedded
	EmbeddingModel string
	TextHash       string // sha256 of SourceText, cheap equality short-circuit
	CreatedAt      time.Time
	UpdatedAt      *time.Time

	kind EmbeddingKind
}

// NewNoteLevelRecord builds a note-level record. It enforces the classification
// invariant at construction: no recording id, no segment ids.
func NewNoteLevelRecord(noteId uuid.UUID, vectorPointId uuid.UUID, sourceText, model, textHash string) *EmbeddingRecord {
	return &EmbeddingRecord{
		Id:             uuid.New(),
		NoteId:         noteId,
		RecordingId:    nil,
		SegmentIds:     nil,
		SegmentIndex:   0,
		VectorPointId:  vectorPointId,
		SourceText:     sourceText,
		EmbeddingModel: model,
		TextHash:       textHash,
		CreatedAt:      time.Now(),
		kind:           KindNoteLevel,
	}
}

// NewChunkLevelRecord builds one chunk-level record for a single segment of a
// recording's text.
func NewChunkLevelRecord(noteId, recordingId uuid.UUID, segmentIds []uuid.UUID, segmentIndex int, vectorPointId uuid.UUID, sourceText, model, textHash string) *EmbeddingRecord {
	rid := recordingId
	return &EmbeddingRecord{
		Id:             uuid.New(),
		NoteId:         noteId,
		RecordingId:    &rid,
		SegmentIds:     segmentIds,
		SegmentIndex:   segmentIndex,
		VectorPointId:  vectorPointId,
		SourceText:     sourceText,
		EmbeddingModel: model,
		TextHash:       textHash,
		CreatedAt:      time.Now(),
		kind:           KindChunkLevel,
	}
}

// Kind returns the record's granularity. For records rehydrated from storage
// the tag is re-derived from the invariant: note-level iff RecordingId is nil
// and SegmentIds is empty.
func (r *EmbeddingRecord) Kind() EmbeddingKind {
	if r.RecordingId == nil && len(r.SegmentIds) == 0 {
		return KindNoteLevel
	}
	return KindChunkLevel
}
