package service

import (
	"context"
	"errors"
	"log"

	"voicenote-vector-be/internal/pkg/logger"
	"voicenote-vector-be/internal/repository/memory"
	"voicenote-vector-be/pkg/embedding"
	"voicenote-vector-be/pkg/segment"
	"voicenote-vector-be/pkg/textdiff"
	"voicenote-vector-be/pkg/vectorstore"

	"github.com/google/uuid"
)

const testCollection = "test_collection"

// fakeProvider produces deterministic vectors: identical texts always map to
// identical vectors. Specific texts can be pinned to a vector or made to fail.
type fakeProvider struct {
	vectors map[string][]float32
	fail    map[string]bool
	failAll bool
	calls   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		vectors: make(map[string][]float32),
		fail:    make(map[string]bool),
	}
}

func (f *fakeProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	if f.failAll || f.fail[text] {
		return nil, errors.New("provider unavailable")
	}
	vec, ok := f.vectors[text]
	if !ok {
		sum := float32(0)
		for _, b := range []byte(text) {
			sum += float32(b)
		}
		vec = []float32{1, sum / 1000, float32(len(text)%7) / 10}
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: vec},
	}, nil
}

func (f *fakeProvider) Model() string { return "fake/test-model" }

// failingStore delegates to a real store but can fail chosen operations.
type failingStore struct {
	vectorstore.VectorStore
	failDelete bool
	failUpsert bool
}

func (s *failingStore) Delete(ctx context.Context, collection string, pointIds []uuid.UUID) error {
	if s.failDelete {
		return errors.New("store unreachable")
	}
	return s.VectorStore.Delete(ctx, collection, pointIds)
}

func (s *failingStore) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	if s.failUpsert {
		return errors.New("store unreachable")
	}
	return s.VectorStore.Upsert(ctx, collection, points)
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

var _ logger.ILogger = nopLogger{}

type serviceFixture struct {
	factory     *memory.RepositoryFactory
	store       vectorstore.VectorStore
	memStore    *vectorstore.MemoryStore
	provider    *fakeProvider
	index       IIndexService
	search      ISearchService
	consistency IConsistencyService
}

func newFixture(store vectorstore.VectorStore, maxWords, overlapWords int) *serviceFixture {
	factory := memory.NewRepositoryFactory()
	memStore, _ := store.(*vectorstore.MemoryStore)
	provider := newFakeProvider()

	segmenter, err := segment.NewSegmenter(maxWords, overlapWords)
	if err != nil {
		log.Panicf("bad segmenter config in fixture: %v", err)
	}
	detector, err := textdiff.NewChangeDetector(textdiff.DefaultThreshold)
	if err != nil {
		log.Panicf("bad detector config in fixture: %v", err)
	}

	consistency := NewConsistencyService(factory, store, nil, nopLogger{}, testCollection)
	index := NewIndexService(factory, store, provider, segmenter, detector, consistency, nil, nopLogger{}, testCollection)
	search := NewSearchService(factory, store, provider, nopLogger{}, testCollection, 10)

	return &serviceFixture{
		factory:     factory,
		store:       store,
		memStore:    memStore,
		provider:    provider,
		index:       index,
		search:      search,
		consistency: consistency,
	}
}
