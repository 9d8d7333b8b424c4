package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted and consumed by this service.
const (
	TypeRecordingIndexed = "RECORDING_INDEXED"
	TypeNoteIndexed      = "NOTE_INDEXED"
	TypeEmbeddingsPurged = "EMBEDDINGS_PURGED"

	// Emitted by owning subsystems; consumed here to cascade deletes.
	TypeNoteDeleted      = "NOTE_DELETED"
	TypeRecordingDeleted = "RECORDING_DELETED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTE_INDEXED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewRecordingIndexed marks a successful chunk-level (re-)index of a recording.
func NewRecordingIndexed(noteId, recordingId uuid.UUID, segmentsCreated int) Event {
	return BaseEvent{
		Type: TypeRecordingIndexed,
		Data: map[string]interface{}{
			"note_id":          noteId,
			"recording_id":     recordingId,
			"segments_created": segmentsCreated,
		},
		OccurredAt: time.Now(),
	}
}

// NewNoteIndexed marks a successful note-level (re-)index.
func NewNoteIndexed(noteId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeNoteIndexed,
		Data: map[string]interface{}{
			"note_id": noteId,
		},
		OccurredAt: time.Now(),
	}
}

// NewEmbeddingsPurged reports a cascading delete, including how many remote
// point deletions failed (orphan candidates for an external reconciliation sweep).
func NewEmbeddingsPurged(scope string, ownerId uuid.UUID, recordsDeleted, storeFailures int) Event {
	return BaseEvent{
		Type: TypeEmbeddingsPurged,
		Data: map[string]interface{}{
			"scope":           scope, // "note" or "recording"
			"owner_id":        ownerId,
			"records_deleted": recordsDeleted,
			"store_failures":  storeFailures,
		},
		OccurredAt: time.Now(),
	}
}
