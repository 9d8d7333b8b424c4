package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"voicenote-vector-be/internal/dto"
	"voicenote-vector-be/internal/entity"
	"voicenote-vector-be/pkg/apperror"
	"voicenote-vector-be/pkg/segment"
	"voicenote-vector-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i+1)
	}
	return strings.Join(words, " ")
}

func TestIndexChunkTextBlankFails(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)

	_, err := f.index.IndexChunkText(context.Background(), uuid.New(), uuid.New(), "   \n ", nil)

	require.Error(t, err)
	assert.Equal(t, apperror.KindEmptyInput, apperror.KindOf(err))
	assert.Zero(t, f.provider.calls)
}

func TestIndexChunkTextCreatesOrderedSegments(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId, recordingId := uuid.New(), uuid.New()
	segmentIds := []uuid.UUID{uuid.New(), uuid.New()}

	// 95 words with window 30 / overlap 10 produce 5 windows.
	res, err := f.index.IndexChunkText(context.Background(), noteId, recordingId, makeWords(95), segmentIds)

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusCreated, res.Status)
	assert.Equal(t, 5, res.SegmentsAttempted)
	assert.Equal(t, 5, res.SegmentsCreated)
	assert.Equal(t, 5, f.memStore.Count(testCollection))

	records, err := f.factory.Repo.FindByKey(context.Background(), noteId, &recordingId)
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i, rec := range records {
		assert.Equal(t, i, rec.SegmentIndex)
		assert.Equal(t, entity.KindChunkLevel, rec.Kind())
		assert.Equal(t, segmentIds, rec.SegmentIds)
		assert.Equal(t, "fake/test-model", rec.EmbeddingModel)

		point, err := f.store.Fetch(context.Background(), testCollection, rec.VectorPointId)
		require.NoError(t, err)
		require.NotNil(t, point, "record %d has no backing point", i)
		assert.Equal(t, rec.SourceText, point.Payload.SourceText)
	}
}

func TestIndexChunkTextReplacesInsteadOfAppending(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId, recordingId := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := f.index.IndexChunkText(ctx, noteId, recordingId, makeWords(95), nil)
	require.NoError(t, err)
	require.Equal(t, 5, f.memStore.Count(testCollection))

	// A shrunk transcript must leave exactly its own segments, not 5+1.
	shorter := "completely different dictation about an unrelated topic entirely"
	res, err := f.index.IndexChunkText(ctx, noteId, recordingId, shorter, nil)

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusCreated, res.Status)
	assert.Equal(t, 1, res.SegmentsCreated)
	assert.Equal(t, 1, f.memStore.Count(testCollection))

	records, err := f.factory.Repo.FindByKey(ctx, noteId, &recordingId)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, shorter, records[0].SourceText)
}

func TestIndexChunkTextSkipsIdenticalText(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId, recordingId := uuid.New(), uuid.New()
	ctx := context.Background()
	text := makeWords(95)

	_, err := f.index.IndexChunkText(ctx, noteId, recordingId, text, nil)
	require.NoError(t, err)
	callsAfterFirst := f.provider.calls

	res, err := f.index.IndexChunkText(ctx, noteId, recordingId, text, nil)

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusSkipped, res.Status)
	assert.Equal(t, callsAfterFirst, f.provider.calls, "identical text must not hit the provider")
	assert.Equal(t, 5, f.memStore.Count(testCollection))
}

func TestIndexChunkTextSkipsInsignificantChange(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId, recordingId := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := f.index.IndexChunkText(ctx, noteId, recordingId, makeWords(95), nil)
	require.NoError(t, err)
	callsAfterFirst := f.provider.calls

	// One word edited in ~95: far below the 20% change threshold.
	tweaked := strings.Replace(makeWords(95), "w95", "zz95", 1)
	res, err := f.index.IndexChunkText(ctx, noteId, recordingId, tweaked, nil)

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusSkipped, res.Status)
	assert.Equal(t, "no significant change", res.Reason)
	assert.Equal(t, callsAfterFirst, f.provider.calls)
}

func TestIndexChunkTextFailsWhenAllEmbeddingsFail(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	f.provider.failAll = true
	noteId, recordingId := uuid.New(), uuid.New()

	_, err := f.index.IndexChunkText(context.Background(), noteId, recordingId, makeWords(95), nil)

	require.Error(t, err)
	assert.Equal(t, apperror.KindProviderFailure, apperror.KindOf(err))
	assert.Zero(t, f.memStore.Count(testCollection), "no partial state on total failure")

	records, _ := f.factory.Repo.FindByKey(context.Background(), noteId, &recordingId)
	assert.Empty(t, records)
}

func TestIndexChunkTextToleratesPartialEmbeddingFailure(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId, recordingId := uuid.New(), uuid.New()
	text := makeWords(95)

	// Fail exactly the third window.
	segmenter, err := segment.NewSegmenter(30, 10)
	require.NoError(t, err)
	windows := segmenter.Split(text)
	require.Len(t, windows, 5)
	f.provider.fail[windows[2]] = true

	res, err := f.index.IndexChunkText(context.Background(), noteId, recordingId, text, nil)

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusCreated, res.Status)
	assert.Equal(t, 5, res.SegmentsAttempted)
	assert.Equal(t, 4, res.SegmentsCreated)
	assert.Equal(t, 4, f.memStore.Count(testCollection))

	records, err := f.factory.Repo.FindByKey(context.Background(), noteId, &recordingId)
	require.NoError(t, err)
	require.Len(t, records, 4)
	for _, rec := range records {
		assert.NotEqual(t, 2, rec.SegmentIndex, "failed window must not be recorded")
	}
}

func TestIndexChunkTextFailsWhenAllUpsertsFail(t *testing.T) {
	store := &failingStore{VectorStore: vectorstore.NewMemoryStore(), failUpsert: true}
	f := newFixture(store, 30, 10)

	_, err := f.index.IndexChunkText(context.Background(), uuid.New(), uuid.New(), makeWords(40), nil)

	require.Error(t, err)
	assert.Equal(t, apperror.KindStoreFailure, apperror.KindOf(err))
}

func TestIndexNoteTextBlankIsSkippedNotFailed(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)

	res, err := f.index.IndexNoteText(context.Background(), uuid.New(), "  ", nil)

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusSkipped, res.Status)
	assert.Equal(t, "empty aggregate text", res.Reason)
	assert.Zero(t, f.provider.calls)
}

func TestIndexNoteTextNeverSegments(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId := uuid.New()

	// Far above the window size, still a single vector.
	res, err := f.index.IndexNoteText(context.Background(), noteId, makeWords(500), []uuid.UUID{uuid.New()})

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusCreated, res.Status)
	assert.Equal(t, 1, res.SegmentsCreated)
	assert.Equal(t, 1, f.provider.calls)
	assert.Equal(t, 1, f.memStore.Count(testCollection))

	record, err := f.factory.Repo.FindNoteLevel(context.Background(), noteId)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, entity.KindNoteLevel, record.Kind())
	assert.Nil(t, record.RecordingId)
	assert.Empty(t, record.SegmentIds, "source segment ids must not be persisted on note-level records")
}

func TestIndexNoteTextReplacesPreviousAggregate(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId := uuid.New()
	ctx := context.Background()

	_, err := f.index.IndexNoteText(ctx, noteId, "the original meeting summary about budgets", nil)
	require.NoError(t, err)
	first, err := f.factory.Repo.FindNoteLevel(ctx, noteId)
	require.NoError(t, err)

	_, err = f.index.IndexNoteText(ctx, noteId, "an entirely rewritten plan covering hiring instead", nil)
	require.NoError(t, err)

	second, err := f.factory.Repo.FindNoteLevel(ctx, noteId)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.VectorPointId, second.VectorPointId)
	assert.Equal(t, 1, f.memStore.Count(testCollection))

	stale, err := f.store.Fetch(ctx, testCollection, first.VectorPointId)
	require.NoError(t, err)
	assert.Nil(t, stale, "superseded point must be deleted")
}

func TestIndexNoteTextSkipsUnchangedHash(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId := uuid.New()
	ctx := context.Background()
	text := "weekly retro notes, nothing new this time"

	_, err := f.index.IndexNoteText(ctx, noteId, text, nil)
	require.NoError(t, err)
	callsAfterFirst := f.provider.calls

	res, err := f.index.IndexNoteText(ctx, noteId, text, nil)

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusSkipped, res.Status)
	assert.Equal(t, "unchanged text hash", res.Reason)
	assert.Equal(t, callsAfterFirst, f.provider.calls)
}

func TestIndexChunkTextDoesNotSkipAcrossNotes(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteA, noteB, recordingId := uuid.New(), uuid.New(), uuid.New()
	ctx := context.Background()
	first := makeWords(40)
	second := "a completely different follow up dictation about another subject"

	_, err := f.index.IndexChunkText(ctx, noteA, recordingId, first, nil)
	require.NoError(t, err)
	_, err = f.index.IndexChunkText(ctx, noteB, recordingId, second, nil)
	require.NoError(t, err)

	// noteB's hash must not shadow noteA's: re-indexing noteA with noteB's
	// text is a real change for noteA, not a skip.
	res, err := f.index.IndexChunkText(ctx, noteA, recordingId, second, nil)

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusCreated, res.Status)

	records, err := f.factory.Repo.FindByKey(ctx, noteA, &recordingId)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, second, records[0].SourceText)
}

func TestIndexNoteTextReindexesAfterDelete(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId := uuid.New()
	ctx := context.Background()
	text := "standup notes covering the deployment checklist"

	_, err := f.index.IndexNoteText(ctx, noteId, text, nil)
	require.NoError(t, err)
	_, err = f.index.Delete(ctx, noteId)
	require.NoError(t, err)

	// After a purge the identical text is new again.
	res, err := f.index.IndexNoteText(ctx, noteId, text, nil)

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusCreated, res.Status)
	assert.Equal(t, 1, f.memStore.Count(testCollection))

	record, err := f.factory.Repo.FindNoteLevel(ctx, noteId)
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestDeleteByRecordingAllowsReindex(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId, recordingId := uuid.New(), uuid.New()
	ctx := context.Background()
	text := makeWords(40)

	_, err := f.index.IndexChunkText(ctx, noteId, recordingId, text, nil)
	require.NoError(t, err)

	purge, err := f.index.DeleteByRecording(ctx, recordingId)
	require.NoError(t, err)
	assert.Equal(t, 2, purge.RecordsDeleted)

	res, err := f.index.IndexChunkText(ctx, noteId, recordingId, text, nil)

	require.NoError(t, err)
	assert.Equal(t, dto.IndexStatusCreated, res.Status)
	assert.Equal(t, 2, res.SegmentsCreated)
	assert.Equal(t, 2, f.memStore.Count(testCollection))
}

func TestDeletePurgesBothGranularities(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	noteId, recordingId := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := f.index.IndexChunkText(ctx, noteId, recordingId, makeWords(95), nil)
	require.NoError(t, err)
	_, err = f.index.IndexNoteText(ctx, noteId, makeWords(40), nil)
	require.NoError(t, err)
	require.Equal(t, 6, f.memStore.Count(testCollection))

	res, err := f.index.Delete(ctx, noteId)

	require.NoError(t, err)
	assert.Equal(t, 6, res.RecordsDeleted)
	assert.Zero(t, res.StoreFailures)
	assert.Zero(t, f.memStore.Count(testCollection))

	remaining, _ := f.factory.Repo.FindByNoteId(ctx, noteId)
	assert.Empty(t, remaining)
}
