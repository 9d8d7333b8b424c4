package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"voicenote-vector-be/internal/dto"
	"voicenote-vector-be/internal/entity"
	"voicenote-vector-be/internal/pkg/logger"
	"voicenote-vector-be/internal/repository/unitofwork"
	"voicenote-vector-be/pkg/apperror"
	"voicenote-vector-be/pkg/embedding"
	"voicenote-vector-be/pkg/events"
	pktNats "voicenote-vector-be/pkg/nats"
	"voicenote-vector-be/pkg/segment"
	"voicenote-vector-be/pkg/textdiff"
	"voicenote-vector-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type IIndexService interface {
	// IndexChunkText (re-)embeds one recording's transcript at chunk level.
	IndexChunkText(ctx context.Context, noteId, recordingId uuid.UUID, text string, segmentIds []uuid.UUID) (*dto.IndexResult, error)
	// IndexNoteText (re-)embeds a note's aggregate text as a single vector,
	// never segmenting regardless of length.
	IndexNoteText(ctx context.Context, noteId uuid.UUID, aggregateText string, sourceSegmentIds []uuid.UUID) (*dto.IndexResult, error)
	Delete(ctx context.Context, noteId uuid.UUID) (*dto.PurgeResult, error)
	DeleteByRecording(ctx context.Context, recordingId uuid.UUID) (*dto.PurgeResult, error)
}

type indexService struct {
	uowFactory        unitofwork.RepositoryFactory
	vectorStore       vectorstore.VectorStore
	embeddingProvider embedding.EmbeddingProvider
	segmenter         *segment.Segmenter
	changeDetector    *textdiff.ChangeDetector
	consistency       IConsistencyService
	eventPublisher    *pktNats.Publisher
	log               logger.ILogger
	collection        string

	// Full-text hash per key, for the cheap equality short-circuit before
	// reassembly and edit-distance kick in. Only consulted when the key still
	// has records, so eviction lag can never skip a first-time index.
	hashCache *cache.Cache
}

func NewIndexService(
	uowFactory unitofwork.RepositoryFactory,
	vectorStore vectorstore.VectorStore,
	embeddingProvider embedding.EmbeddingProvider,
	segmenter *segment.Segmenter,
	changeDetector *textdiff.ChangeDetector,
	consistency IConsistencyService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	collection string,
) IIndexService {
	return &indexService{
		uowFactory:        uowFactory,
		vectorStore:       vectorStore,
		embeddingProvider: embeddingProvider,
		segmenter:         segmenter,
		changeDetector:    changeDetector,
		consistency:       consistency,
		eventPublisher:    eventPublisher,
		log:               log,
		collection:        collection,
		hashCache:         cache.New(10*time.Minute, 30*time.Minute),
	}
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// chunkCacheKey mirrors the chunk indexing key (noteId, recordingId).
func chunkCacheKey(noteId, recordingId uuid.UUID) string {
	return "chunk:" + noteId.String() + ":" + recordingId.String()
}

func chunkKey(noteId, recordingId uuid.UUID) string {
	return fmt.Sprintf("note=%s recording=%s", noteId, recordingId)
}

func (s *indexService) IndexChunkText(ctx context.Context, noteId, recordingId uuid.UUID, text string, segmentIds []uuid.UUID) (*dto.IndexResult, error) {
	key := chunkKey(noteId, recordingId)

	if strings.TrimSpace(text) == "" {
		return nil, apperror.Newf(apperror.KindEmptyInput, "index.chunk", key, "transcript text is blank")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.EmbeddingRecordRepository()

	existing, err := repo.FindByKey(ctx, noteId, &recordingId)
	if err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.chunk", key, err)
	}

	newHash := hashText(text)
	if len(existing) > 0 {
		if cached, found := s.hashCache.Get(chunkCacheKey(noteId, recordingId)); found && cached.(string) == newHash {
			return dto.Skipped("unchanged text hash"), nil
		}
		oldText, err := s.reassembleKey(existing)
		if err != nil {
			// A reassembly failure means the stored segments are inconsistent;
			// re-embedding repairs the key, so treat it as a change.
			s.log.Warn("index", "could not reassemble previous text, forcing re-embed", map[string]interface{}{
				"key": key, "error": err.Error(),
			})
		} else if !s.changeDetector.ShouldReembed(oldText, text) {
			s.hashCache.Set(chunkCacheKey(noteId, recordingId), newHash, cache.DefaultExpiration)
			return dto.Skipped("no significant change"), nil
		}
	}

	segments := s.segmenter.Split(text)
	s.log.Info("index", "segmenting recording transcript", map[string]interface{}{
		"key": key, "segments": len(segments), "chars": len(text),
	})

	// Embed every segment first; nothing is deleted until at least one new
	// vector exists to replace the old state with.
	type embedded struct {
		index  int
		text   string
		vector []float32
	}
	var succeeded []embedded
	for i, seg := range segments {
		res, err := s.embeddingProvider.Generate(ctx, seg, embedding.TaskTypeDocument)
		if err != nil {
			s.log.Error("index", "segment embedding failed", map[string]interface{}{
				"key": key, "segment_index": i, "error": err.Error(),
			})
			continue
		}
		succeeded = append(succeeded, embedded{index: i, text: seg, vector: res.Embedding.Values})
	}
	if len(succeeded) == 0 {
		return nil, apperror.Newf(apperror.KindProviderFailure, "index.chunk", key,
			"all %d segment embeddings failed", len(segments))
	}

	// Replace-before-insert: drop the key's previous points so a shrinking
	// text cannot leave stale segments behind. Best-effort on the store side.
	if len(existing) > 0 {
		oldPointIds := make([]uuid.UUID, len(existing))
		for i, rec := range existing {
			oldPointIds[i] = rec.VectorPointId
		}
		if err := s.vectorStore.Delete(ctx, s.collection, oldPointIds); err != nil {
			s.log.Warn("index", "failed to delete superseded vector points", map[string]interface{}{
				"key": key, "points": len(oldPointIds), "error": err.Error(),
			})
		}
	}

	var records []*entity.EmbeddingRecord
	created := 0
	for _, e := range succeeded {
		pointId := uuid.New()
		point := vectorstore.Point{
			Id:     pointId,
			Vector: e.vector,
			Payload: vectorstore.Payload{
				NoteId:       noteId,
				RecordingId:  &recordingId,
				SegmentIds:   segmentIds,
				SegmentIndex: e.index,
				SourceText:   e.text,
			},
		}
		if err := s.vectorStore.Upsert(ctx, s.collection, []vectorstore.Point{point}); err != nil {
			s.log.Error("index", "segment upsert failed", map[string]interface{}{
				"key": key, "segment_index": e.index, "error": err.Error(),
			})
			continue
		}
		records = append(records, entity.NewChunkLevelRecord(
			noteId, recordingId, segmentIds, e.index, pointId,
			e.text, s.embeddingProvider.Model(), hashText(e.text),
		))
		created++
	}
	if created == 0 {
		return nil, apperror.Newf(apperror.KindStoreFailure, "index.chunk", key,
			"all %d point upserts failed", len(succeeded))
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.chunk", key, err)
	}
	defer uow.Rollback()

	txRepo := uow.EmbeddingRecordRepository()
	if err := txRepo.DeleteByKey(ctx, noteId, &recordingId); err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.chunk", key, err)
	}
	if err := txRepo.CreateBulk(ctx, records); err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.chunk", key, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.chunk", key, err)
	}

	s.hashCache.Set(chunkCacheKey(noteId, recordingId), newHash, cache.DefaultExpiration)
	s.publishEvent(ctx, events.NewRecordingIndexed(noteId, recordingId, created))

	s.log.Info("index", "recording transcript indexed", map[string]interface{}{
		"key": key, "segments_attempted": len(segments), "segments_created": created,
	})
	return &dto.IndexResult{
		Status:            dto.IndexStatusCreated,
		SegmentsAttempted: len(segments),
		SegmentsCreated:   created,
	}, nil
}

func (s *indexService) IndexNoteText(ctx context.Context, noteId uuid.UUID, aggregateText string, sourceSegmentIds []uuid.UUID) (*dto.IndexResult, error) {
	key := "note=" + noteId.String()

	// Blank aggregates are a skip, not an error: the provider is never called.
	if strings.TrimSpace(aggregateText) == "" {
		return dto.Skipped("empty aggregate text"), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.EmbeddingRecordRepository()

	existing, err := repo.FindNoteLevel(ctx, noteId)
	if err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.note", key, err)
	}

	newHash := hashText(aggregateText)
	if existing != nil {
		if existing.TextHash == newHash {
			return dto.Skipped("unchanged text hash"), nil
		}
		if !s.changeDetector.ShouldReembed(existing.SourceText, aggregateText) {
			return dto.Skipped("no significant change"), nil
		}
	}

	// The aggregate is embedded whole, never segmented. sourceSegmentIds are
	// accepted for observability only: persisting them would turn the record
	// chunk-level under the classification invariant.
	s.log.Info("index", "embedding note aggregate", map[string]interface{}{
		"key": key, "chars": len(aggregateText), "source_segments": len(sourceSegmentIds),
	})

	res, err := s.embeddingProvider.Generate(ctx, aggregateText, embedding.TaskTypeDocument)
	if err != nil {
		return nil, apperror.New(apperror.KindProviderFailure, "index.note", key, err)
	}

	if existing != nil {
		if err := s.vectorStore.Delete(ctx, s.collection, []uuid.UUID{existing.VectorPointId}); err != nil {
			s.log.Warn("index", "failed to delete superseded note-level point", map[string]interface{}{
				"key": key, "point_id": existing.VectorPointId, "error": err.Error(),
			})
		}
	}

	pointId := uuid.New()
	point := vectorstore.Point{
		Id:     pointId,
		Vector: res.Embedding.Values,
		Payload: vectorstore.Payload{
			NoteId:     noteId,
			SourceText: aggregateText,
		},
	}
	if err := s.vectorStore.Upsert(ctx, s.collection, []vectorstore.Point{point}); err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.note", key, err)
	}

	record := entity.NewNoteLevelRecord(noteId, pointId, aggregateText, s.embeddingProvider.Model(), newHash)

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.note", key, err)
	}
	defer uow.Rollback()

	txRepo := uow.EmbeddingRecordRepository()
	if err := txRepo.DeleteByKey(ctx, noteId, nil); err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.note", key, err)
	}
	if err := txRepo.Create(ctx, record); err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.note", key, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "index.note", key, err)
	}

	s.publishEvent(ctx, events.NewNoteIndexed(noteId))

	s.log.Info("index", "note aggregate indexed", map[string]interface{}{"key": key})
	return &dto.IndexResult{
		Status:            dto.IndexStatusCreated,
		SegmentsAttempted: 1,
		SegmentsCreated:   1,
	}, nil
}

func (s *indexService) Delete(ctx context.Context, noteId uuid.UUID) (*dto.PurgeResult, error) {
	// Evict hash entries before the records disappear; the recording ids are
	// only known while their records still exist.
	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.EmbeddingRecordRepository().FindByNoteId(ctx, noteId)
	if err == nil {
		for _, rec := range records {
			if rec.RecordingId != nil {
				s.hashCache.Delete(chunkCacheKey(noteId, *rec.RecordingId))
			}
		}
	}

	return s.consistency.DeleteByNote(ctx, noteId)
}

func (s *indexService) DeleteByRecording(ctx context.Context, recordingId uuid.UUID) (*dto.PurgeResult, error) {
	// The owning note id is part of the cache key and only discoverable while
	// the recording's records still exist.
	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.EmbeddingRecordRepository().FindByRecordingId(ctx, recordingId)
	if err == nil {
		for _, rec := range records {
			s.hashCache.Delete(chunkCacheKey(rec.NoteId, recordingId))
		}
	}

	return s.consistency.DeleteByRecording(ctx, recordingId)
}

// reassembleKey rebuilds the full text last embedded for a chunk key from its
// ordered segment records, by stripping each successor's overlapping head.
func (s *indexService) reassembleKey(records []*entity.EmbeddingRecord) (string, error) {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.SourceText
	}
	return segment.Reassemble(texts, s.segmenter.OverlapWords())
}

func (s *indexService) publishEvent(ctx context.Context, evt events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn("index", "failed to publish event", map[string]interface{}{
			"event": evt.EventType(), "error": err.Error(),
		})
	}
}
