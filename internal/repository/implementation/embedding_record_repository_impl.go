package implementation

import (
	"context"
	"errors"

	"voicenote-vector-be/internal/entity"
	"voicenote-vector-be/internal/mapper"
	"voicenote-vector-be/internal/model"
	"voicenote-vector-be/internal/repository/contract"
	"voicenote-vector-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmbeddingRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EmbeddingRecordMapper
}

func NewEmbeddingRecordRepository(db *gorm.DB) contract.EmbeddingRecordRepository {
	return &EmbeddingRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewEmbeddingRecordMapper(),
	}
}

func (r *EmbeddingRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EmbeddingRecordRepositoryImpl) Create(ctx context.Context, record *entity.EmbeddingRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *EmbeddingRecordRepositoryImpl) CreateBulk(ctx context.Context, records []*entity.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := r.mapper.ToModels(records)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*records[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *EmbeddingRecordRepositoryImpl) findAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EmbeddingRecord, error) {
	var models []*model.EmbeddingRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *EmbeddingRecordRepositoryImpl) FindByKey(ctx context.Context, noteId uuid.UUID, recordingId *uuid.UUID) ([]*entity.EmbeddingRecord, error) {
	specs := []specification.Specification{
		specification.ByNoteId{NoteId: noteId},
		specification.OrderBySegmentIndex{},
	}
	if recordingId == nil {
		specs = append(specs, specification.NoteLevelOnly{})
	} else {
		specs = append(specs, specification.ByRecordingId{RecordingId: *recordingId})
	}
	return r.findAll(ctx, specs...)
}

func (r *EmbeddingRecordRepositoryImpl) FindNoteLevel(ctx context.Context, noteId uuid.UUID) (*entity.EmbeddingRecord, error) {
	var m model.EmbeddingRecord
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByNoteId{NoteId: noteId},
		specification.NoteLevelOnly{},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *EmbeddingRecordRepositoryImpl) FindByNoteId(ctx context.Context, noteId uuid.UUID) ([]*entity.EmbeddingRecord, error) {
	return r.findAll(ctx,
		specification.ByNoteId{NoteId: noteId},
		specification.OrderBySegmentIndex{},
	)
}

func (r *EmbeddingRecordRepositoryImpl) FindByRecordingId(ctx context.Context, recordingId uuid.UUID) ([]*entity.EmbeddingRecord, error) {
	return r.findAll(ctx,
		specification.ByRecordingId{RecordingId: recordingId},
		specification.OrderBySegmentIndex{},
	)
}

func (r *EmbeddingRecordRepositoryImpl) DeleteByKey(ctx context.Context, noteId uuid.UUID, recordingId *uuid.UUID) error {
	query := r.db.WithContext(ctx).Where("note_id = ?", noteId)
	if recordingId == nil {
		query = query.Where("recording_id IS NULL")
	} else {
		query = query.Where("recording_id = ?", *recordingId)
	}
	return query.Delete(&model.EmbeddingRecord{}).Error
}

func (r *EmbeddingRecordRepositoryImpl) DeleteByIds(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByIDs{IDs: ids})
	return query.Delete(&model.EmbeddingRecord{}).Error
}
