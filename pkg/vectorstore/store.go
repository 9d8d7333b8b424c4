package vectorstore

import (
	"context"

	"github.com/google/uuid"
)

// Payload is the metadata carried by every vector point. Kind classification
// relies on it: a point with a recording id or segment ids is chunk-level,
// anything else is note-level.
type Payload struct {
	NoteId       uuid.UUID   `json:"note_id"`
	RecordingId  *uuid.UUID  `json:"recording_id,omitempty"`
	SegmentIds   []uuid.UUID `json:"segment_ids,omitempty"`
	SegmentIndex int         `json:"segment_index"`
	SourceText   string      `json:"source_text"`
}

// IsChunkLevel reports whether the payload belongs to a chunk-level embedding.
// A point is note-level iff it has no recording id and no segment ids.
func (p Payload) IsChunkLevel() bool {
	return p.RecordingId != nil || len(p.SegmentIds) > 0
}

// Point is the store's unit of storage.
type Point struct {
	Id      uuid.UUID
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a search hit; Score is cosine similarity in [0,1].
type ScoredPoint struct {
	Point
	Score float64
}

// Filter narrows a search to points owned by a note or recording. A nil filter
// means kind-agnostic, collection-wide retrieval.
type Filter struct {
	NoteId      *uuid.UUID
	RecordingId *uuid.UUID
}

// VectorStore abstracts the external vector database. Search results come back
// pre-sorted by score descending (delegated to the store).
type VectorStore interface {
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float64, filter *Filter) ([]ScoredPoint, error)
	// Fetch retrieves a single point with its stored vector; nil when absent.
	Fetch(ctx context.Context, collection string, pointId uuid.UUID) (*Point, error)
	Delete(ctx context.Context, collection string, pointIds []uuid.UUID) error
}
