package dto

import "github.com/google/uuid"

// Queue messages

// VectorizeRecordingMessage asks the worker to (re-)index one recording's
// transcript at chunk level.
type VectorizeRecordingMessage struct {
	NoteId      uuid.UUID   `json:"note_id"`
	RecordingId uuid.UUID   `json:"recording_id"`
	Text        string      `json:"text"`
	SegmentIds  []uuid.UUID `json:"segment_ids"`
}

// VectorizeNoteMessage asks the worker to (re-)index a note's aggregate text
// at note level. The caller concatenates chunk texts in ascending chunk order
// before publishing; this service trusts that ordering.
type VectorizeNoteMessage struct {
	NoteId        uuid.UUID   `json:"note_id"`
	AggregateText string      `json:"aggregate_text"`
	SegmentIds    []uuid.UUID `json:"segment_ids"`
}

// HTTP requests

type VectorizeRecordingRequest struct {
	NoteId      uuid.UUID   `json:"note_id" validate:"required"`
	RecordingId uuid.UUID   `json:"recording_id" validate:"required"`
	Text        string      `json:"text" validate:"required"`
	SegmentIds  []uuid.UUID `json:"segment_ids"`
}

type VectorizeNoteRequest struct {
	NoteId        uuid.UUID   `json:"note_id" validate:"required"`
	AggregateText string      `json:"aggregate_text" validate:"required"`
	SegmentIds    []uuid.UUID `json:"segment_ids"`
}

type EnqueueResponse struct {
	Enqueued bool   `json:"enqueued"`
	Topic    string `json:"topic"`
}

// Results

type IndexStatus string

const (
	IndexStatusCreated IndexStatus = "created"
	IndexStatusSkipped IndexStatus = "skipped"
)

// IndexResult reports what an index operation did. SegmentsAttempted and
// SegmentsCreated differ when individual segment embeddings failed; the
// operation only fails outright when zero segments succeeded.
type IndexResult struct {
	Status            IndexStatus `json:"status"`
	Reason            string      `json:"reason,omitempty"`
	SegmentsAttempted int         `json:"segments_attempted"`
	SegmentsCreated   int         `json:"segments_created"`
}

func Skipped(reason string) *IndexResult {
	return &IndexResult{Status: IndexStatusSkipped, Reason: reason}
}

// PurgeResult reports a cascading delete. StoreFailures counts vector-store
// point deletions that failed; metadata deletion proceeds regardless, so these
// are orphan candidates for an external reconciliation sweep.
type PurgeResult struct {
	RecordsDeleted int `json:"records_deleted"`
	StoreFailures  int `json:"store_failures"`
}
