package service

import (
	"context"

	"voicenote-vector-be/internal/dto"
	"voicenote-vector-be/internal/entity"
	"voicenote-vector-be/internal/pkg/logger"
	"voicenote-vector-be/internal/repository/unitofwork"
	"voicenote-vector-be/pkg/apperror"
	"voicenote-vector-be/pkg/events"
	pktNats "voicenote-vector-be/pkg/nats"
	"voicenote-vector-be/pkg/vectorstore"

	"github.com/google/uuid"
)

// IConsistencyService cascades note and recording deletions into the vector
// store and the metadata table. Point deletion is best-effort; metadata is
// always removed so a failed remote delete leaves an orphaned point, never a
// dangling record.
type IConsistencyService interface {
	DeleteByNote(ctx context.Context, noteId uuid.UUID) (*dto.PurgeResult, error)
	DeleteByRecording(ctx context.Context, recordingId uuid.UUID) (*dto.PurgeResult, error)
}

type consistencyService struct {
	uowFactory     unitofwork.RepositoryFactory
	vectorStore    vectorstore.VectorStore
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
	collection     string
}

func NewConsistencyService(
	uowFactory unitofwork.RepositoryFactory,
	vectorStore vectorstore.VectorStore,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	collection string,
) IConsistencyService {
	return &consistencyService{
		uowFactory:     uowFactory,
		vectorStore:    vectorStore,
		eventPublisher: eventPublisher,
		log:            log,
		collection:     collection,
	}
}

func (s *consistencyService) DeleteByNote(ctx context.Context, noteId uuid.UUID) (*dto.PurgeResult, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).EmbeddingRecordRepository()

	records, err := repo.FindByNoteId(ctx, noteId)
	if err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "consistency.deleteNote", noteId.String(), err)
	}
	return s.purge(ctx, repo, records, "note", noteId)
}

func (s *consistencyService) DeleteByRecording(ctx context.Context, recordingId uuid.UUID) (*dto.PurgeResult, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).EmbeddingRecordRepository()

	// Chunk-level records only: the note-level record carries no recording id,
	// so a recording cascade never touches the note's aggregate vector.
	records, err := repo.FindByRecordingId(ctx, recordingId)
	if err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "consistency.deleteRecording", recordingId.String(), err)
	}
	return s.purge(ctx, repo, records, "recording", recordingId)
}

type recordRepository interface {
	DeleteByIds(ctx context.Context, ids []uuid.UUID) error
}

func (s *consistencyService) purge(ctx context.Context, repo recordRepository, records []*entity.EmbeddingRecord, scope string, ownerId uuid.UUID) (*dto.PurgeResult, error) {
	if len(records) == 0 {
		return &dto.PurgeResult{}, nil
	}

	storeFailures := 0
	recordIds := make([]uuid.UUID, len(records))
	for i, rec := range records {
		recordIds[i] = rec.Id
		if err := s.vectorStore.Delete(ctx, s.collection, []uuid.UUID{rec.VectorPointId}); err != nil {
			storeFailures++
			s.log.Warn("consistency", "vector point deletion failed, point orphaned", map[string]interface{}{
				"scope": scope, "owner_id": ownerId, "point_id": rec.VectorPointId, "error": err.Error(),
			})
		}
	}

	if err := repo.DeleteByIds(ctx, recordIds); err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "consistency.purge", ownerId.String(), err)
	}

	result := &dto.PurgeResult{
		RecordsDeleted: len(recordIds),
		StoreFailures:  storeFailures,
	}
	s.log.Info("consistency", "embeddings purged", map[string]interface{}{
		"scope": scope, "owner_id": ownerId,
		"records_deleted": result.RecordsDeleted, "store_failures": result.StoreFailures,
	})

	if s.eventPublisher != nil {
		evt := events.NewEmbeddingsPurged(scope, ownerId, result.RecordsDeleted, result.StoreFailures)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("consistency", "failed to publish purge event", map[string]interface{}{
				"scope": scope, "owner_id": ownerId, "error": err.Error(),
			})
		}
	}
	return result, nil
}
