package service

import (
	"context"
	"testing"

	"voicenote-vector-be/internal/entity"
	"voicenote-vector-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNote(t *testing.T, f *serviceFixture, noteId uuid.UUID, recordingId *uuid.UUID, segments int) []*entity.EmbeddingRecord {
	t.Helper()
	ctx := context.Background()

	var records []*entity.EmbeddingRecord
	for i := 0; i < segments; i++ {
		pointId := uuid.New()
		payload := vectorstore.Payload{NoteId: noteId, RecordingId: recordingId, SegmentIndex: i, SourceText: "seeded"}

		var rec *entity.EmbeddingRecord
		if recordingId == nil {
			rec = entity.NewNoteLevelRecord(noteId, pointId, "seeded", "fake/test-model", "hash")
		} else {
			rec = entity.NewChunkLevelRecord(noteId, *recordingId, nil, i, pointId, "seeded", "fake/test-model", "hash")
		}

		require.NoError(t, f.store.Upsert(ctx, testCollection, []vectorstore.Point{{Id: pointId, Vector: []float32{1, 0, 0}, Payload: payload}}))
		require.NoError(t, f.factory.Repo.Create(ctx, rec))
		records = append(records, rec)
	}
	return records
}

func TestDeleteByNoteWithNothingIndexed(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)

	res, err := f.consistency.DeleteByNote(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Zero(t, res.RecordsDeleted)
	assert.Zero(t, res.StoreFailures)
}

func TestDeleteByRecordingLeavesNoteLevelIntact(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId, recordingId := uuid.New(), uuid.New()
	ctx := context.Background()

	seedNote(t, f, noteId, &recordingId, 3)
	noteLevel := seedNote(t, f, noteId, nil, 1)[0]

	res, err := f.consistency.DeleteByRecording(ctx, recordingId)

	require.NoError(t, err)
	assert.Equal(t, 3, res.RecordsDeleted)
	assert.Equal(t, 1, f.memStore.Count(testCollection))

	survivor, err := f.factory.Repo.FindNoteLevel(ctx, noteId)
	require.NoError(t, err)
	require.NotNil(t, survivor)
	assert.Equal(t, noteLevel.Id, survivor.Id)

	point, err := f.store.Fetch(ctx, testCollection, noteLevel.VectorPointId)
	require.NoError(t, err)
	assert.NotNil(t, point)
}

func TestDeleteByNotePurgesEverything(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId, recordingId := uuid.New(), uuid.New()
	otherNote, otherRecording := uuid.New(), uuid.New()
	ctx := context.Background()

	seedNote(t, f, noteId, &recordingId, 2)
	seedNote(t, f, noteId, nil, 1)
	seedNote(t, f, otherNote, &otherRecording, 2)

	res, err := f.consistency.DeleteByNote(ctx, noteId)

	require.NoError(t, err)
	assert.Equal(t, 3, res.RecordsDeleted)
	assert.Equal(t, 2, f.memStore.Count(testCollection), "other notes must be untouched")

	remaining, _ := f.factory.Repo.FindByNoteId(ctx, noteId)
	assert.Empty(t, remaining)
	others, _ := f.factory.Repo.FindByNoteId(ctx, otherNote)
	assert.Len(t, others, 2)
}

func TestPurgeDeletesMetadataDespiteStoreFailures(t *testing.T) {
	store := &failingStore{VectorStore: vectorstore.NewMemoryStore(), failDelete: true}
	f := newFixture(store, 30, 10)
	noteId, recordingId := uuid.New(), uuid.New()
	ctx := context.Background()

	seedNote(t, f, noteId, &recordingId, 4)

	res, err := f.consistency.DeleteByNote(ctx, noteId)

	require.NoError(t, err)
	assert.Equal(t, 4, res.RecordsDeleted)
	assert.Equal(t, 4, res.StoreFailures)

	// Orphaned points stay behind, dangling records do not.
	remaining, _ := f.factory.Repo.FindByNoteId(ctx, noteId)
	assert.Empty(t, remaining)
}
