package dto

import "github.com/google/uuid"

// SegmentPreview is one chunk-level hit inside a note group, with its text
// truncated to a fixed preview length.
type SegmentPreview struct {
	SegmentIndex int     `json:"segment_index"`
	Score        float64 `json:"score"`
	Preview      string  `json:"preview"`
}

// ChunkMatch groups a note's chunk-level hits; the group ranks by its best
// segment score.
type ChunkMatch struct {
	NoteId      uuid.UUID        `json:"note_id"`
	RecordingId *uuid.UUID       `json:"recording_id,omitempty"`
	MaxScore    float64          `json:"max_score"`
	Segments    []SegmentPreview `json:"segments"`
}

// NoteMatch is a note-level hit.
type NoteMatch struct {
	NoteId  uuid.UUID `json:"note_id"`
	Score   float64   `json:"score"`
	Preview string    `json:"preview"`
}

// SearchResponse carries both granularities separately. Empty lists are valid,
// successful results.
type SearchResponse struct {
	ChunkResults   []*ChunkMatch `json:"chunk_results"`
	NoteResults    []*NoteMatch  `json:"note_results"`
	TotalChunkHits int           `json:"total_chunk_hits"`
	TotalNoteHits  int           `json:"total_note_hits"`
}

type SimilarNote struct {
	NoteId  uuid.UUID `json:"note_id"`
	Score   float64   `json:"score"`
	Preview string    `json:"preview"`
}

type SimilarNotesResponse struct {
	Results []*SimilarNote `json:"results"`
}
