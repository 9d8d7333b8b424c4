package service

import (
	"context"
	"math"
	"testing"

	"voicenote-vector-be/internal/entity"
	"voicenote-vector-be/pkg/apperror"
	"voicenote-vector-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dirVec builds a unit vector whose cosine similarity against [1,0,0] is
// exactly c, so tests can dial in scores.
func dirVec(c float64) []float32 {
	s := math.Sqrt(1 - c*c)
	return []float32{float32(c), float32(s), 0}
}

func upsertPoint(t *testing.T, f *serviceFixture, payload vectorstore.Payload, vector []float32) uuid.UUID {
	t.Helper()
	pointId := uuid.New()
	require.NoError(t, f.store.Upsert(context.Background(), testCollection, []vectorstore.Point{
		{Id: pointId, Vector: vector, Payload: payload},
	}))
	return pointId
}

func TestSearchBlankQueryFails(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)

	_, err := f.search.Search(context.Background(), "  ", 10, 0)

	require.Error(t, err)
	assert.Equal(t, apperror.KindEmptyInput, apperror.KindOf(err))
}

func TestSearchFailsWhenProviderIsDown(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	f.provider.failAll = true

	_, err := f.search.Search(context.Background(), "budget meeting", 10, 0)

	require.Error(t, err)
	assert.Equal(t, apperror.KindProviderFailure, apperror.KindOf(err))
}

func TestSearchPartitionsAndGroupsResults(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	f.provider.vectors["budget meeting"] = []float32{1, 0, 0}

	noteA, noteB, noteC, noteD := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	recA, recB := uuid.New(), uuid.New()

	// Note A: two chunk hits, best 0.9. Note B: one chunk hit at 0.5.
	upsertPoint(t, f, vectorstore.Payload{NoteId: noteA, RecordingId: &recA, SegmentIndex: 0, SourceText: "first segment about budgets"}, dirVec(0.9))
	upsertPoint(t, f, vectorstore.Payload{NoteId: noteA, RecordingId: &recA, SegmentIndex: 1, SourceText: "second segment about planning"}, dirVec(0.7))
	upsertPoint(t, f, vectorstore.Payload{NoteId: noteB, RecordingId: &recB, SegmentIndex: 0, SourceText: "tangential remark"}, dirVec(0.5))
	// Note C: note-level hit. Note D: note-level but below threshold.
	upsertPoint(t, f, vectorstore.Payload{NoteId: noteC, SourceText: "aggregate about budget season"}, dirVec(0.6))
	upsertPoint(t, f, vectorstore.Payload{NoteId: noteD, SourceText: "unrelated grocery list"}, dirVec(0.1))

	res, err := f.search.Search(context.Background(), "budget meeting", 10, 0.3)

	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalChunkHits)
	assert.Equal(t, 1, res.TotalNoteHits)

	require.Len(t, res.ChunkResults, 2)
	best := res.ChunkResults[0]
	assert.Equal(t, noteA, best.NoteId)
	require.NotNil(t, best.RecordingId)
	assert.Equal(t, recA, *best.RecordingId)
	assert.InDelta(t, 0.9, best.MaxScore, 1e-6)
	assert.Len(t, best.Segments, 2)
	assert.Equal(t, noteB, res.ChunkResults[1].NoteId)

	require.Len(t, res.NoteResults, 1)
	assert.Equal(t, noteC, res.NoteResults[0].NoteId)
	assert.InDelta(t, 0.6, res.NoteResults[0].Score, 1e-6)
}

func TestSearchThresholdAppliesToBothGranularities(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	f.provider.vectors["q"] = []float32{1, 0, 0}

	recId := uuid.New()
	upsertPoint(t, f, vectorstore.Payload{NoteId: uuid.New(), RecordingId: &recId, SourceText: "strong chunk hit"}, dirVec(0.9))
	upsertPoint(t, f, vectorstore.Payload{NoteId: uuid.New(), SourceText: "weaker note hit"}, dirVec(0.6))

	res, err := f.search.Search(context.Background(), "q", 10, 0.7)

	require.NoError(t, err)
	require.Len(t, res.ChunkResults, 1)
	assert.Empty(t, res.NoteResults, "note hit below threshold must be dropped")
	assert.Equal(t, 1, res.TotalChunkHits)
	assert.Zero(t, res.TotalNoteHits)
}

func TestSearchRespectsLimitPerGranularity(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	f.provider.vectors["q"] = []float32{1, 0, 0}

	for i := 0; i < 5; i++ {
		recId := uuid.New()
		score := 0.9 - float64(i)*0.05
		upsertPoint(t, f, vectorstore.Payload{NoteId: uuid.New(), RecordingId: &recId, SourceText: "chunk"}, dirVec(score))
		upsertPoint(t, f, vectorstore.Payload{NoteId: uuid.New(), SourceText: "note"}, dirVec(score))
	}

	res, err := f.search.Search(context.Background(), "q", 2, 0)

	require.NoError(t, err)
	assert.Len(t, res.ChunkResults, 2)
	assert.Len(t, res.NoteResults, 2)
	// Totals still count everything that passed the threshold.
	assert.Equal(t, 5, res.TotalChunkHits)
	assert.Equal(t, 5, res.TotalNoteHits)
	// Descending by score.
	assert.GreaterOrEqual(t, res.ChunkResults[0].MaxScore, res.ChunkResults[1].MaxScore)
	assert.GreaterOrEqual(t, res.NoteResults[0].Score, res.NoteResults[1].Score)
}

func TestSearchEmptyIndexReturnsEmptyLists(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)

	res, err := f.search.Search(context.Background(), "anything at all", 10, 0)

	require.NoError(t, err)
	assert.Empty(t, res.ChunkResults)
	assert.Empty(t, res.NoteResults)
	assert.Zero(t, res.TotalChunkHits)
	assert.Zero(t, res.TotalNoteHits)
}

func TestFindSimilarNotesExcludesSelfAndChunks(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)
	ctx := context.Background()
	noteX, noteY, noteZ := uuid.New(), uuid.New(), uuid.New()

	pointX := upsertPoint(t, f, vectorstore.Payload{NoteId: noteX, SourceText: "source note"}, []float32{1, 0, 0})
	upsertPoint(t, f, vectorstore.Payload{NoteId: noteY, SourceText: "close neighbor"}, dirVec(0.8))
	upsertPoint(t, f, vectorstore.Payload{NoteId: noteZ, SourceText: "distant note"}, dirVec(0.4))

	// A chunk of another recording sits closest of all; it must still be ignored.
	recId := uuid.New()
	upsertPoint(t, f, vectorstore.Payload{NoteId: uuid.New(), RecordingId: &recId, SourceText: "chunk"}, dirVec(0.95))

	require.NoError(t, f.factory.Repo.Create(ctx,
		entity.NewNoteLevelRecord(noteX, pointX, "source note", "fake/test-model", "hash")))

	res, err := f.search.FindSimilarNotes(ctx, noteX, 10, 0.5)

	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, noteY, res.Results[0].NoteId)
	assert.InDelta(t, 0.8, res.Results[0].Score, 1e-6)
}

func TestFindSimilarNotesWithoutNoteLevelEmbedding(t *testing.T) {
	f := newFixture(vectorstore.NewMemoryStore(), 30, 10)

	_, err := f.search.FindSimilarNotes(context.Background(), uuid.New(), 10, 0)

	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
