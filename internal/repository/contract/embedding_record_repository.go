package contract

import (
	"context"

	"voicenote-vector-be/internal/entity"

	"github.com/google/uuid"
)

// EmbeddingRecordRepository persists the metadata side of vector-store points.
// A key is (noteId, recordingId-or-nil): nil recordingId addresses the
// note-level record, a concrete recordingId addresses that recording's
// chunk-level records.
type EmbeddingRecordRepository interface {
	Create(ctx context.Context, record *entity.EmbeddingRecord) error
	CreateBulk(ctx context.Context, records []*entity.EmbeddingRecord) error

	// FindByKey returns the key's records ordered by segment index.
	FindByKey(ctx context.Context, noteId uuid.UUID, recordingId *uuid.UUID) ([]*entity.EmbeddingRecord, error)
	// FindNoteLevel returns the note's single note-level record, nil when the
	// note was never vectorized at that granularity.
	FindNoteLevel(ctx context.Context, noteId uuid.UUID) (*entity.EmbeddingRecord, error)
	FindByNoteId(ctx context.Context, noteId uuid.UUID) ([]*entity.EmbeddingRecord, error)
	FindByRecordingId(ctx context.Context, recordingId uuid.UUID) ([]*entity.EmbeddingRecord, error)

	DeleteByKey(ctx context.Context, noteId uuid.UUID, recordingId *uuid.UUID) error
	DeleteByIds(ctx context.Context, ids []uuid.UUID) error
}
