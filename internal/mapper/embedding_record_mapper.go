package mapper

import (
	"encoding/json"
	"time"

	"voicenote-vector-be/internal/entity"
	"voicenote-vector-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EmbeddingRecordMapper struct{}

func NewEmbeddingRecordMapper() *EmbeddingRecordMapper {
	return &EmbeddingRecordMapper{}
}

func (m *EmbeddingRecordMapper) ToEntity(r *model.EmbeddingRecord) *entity.EmbeddingRecord {
	if r == nil {
		return nil
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	var segmentIds []uuid.UUID
	if len(r.SegmentIds) > 0 {
		// Tolerate malformed JSON rather than fail a read path: an empty list
		// only widens the record to note-level classification, which Kind()
		// re-derives from recording_id anyway.
		_ = json.Unmarshal(r.SegmentIds, &segmentIds)
	}

	return &entity.EmbeddingRecord{
		Id:             r.Id,
		NoteId:         r.NoteId,
		RecordingId:    r.RecordingId,
		SegmentIds:     segmentIds,
		SegmentIndex:   r.SegmentIndex,
		VectorPointId:  r.VectorPointId,
		SourceText:     r.SourceText,
		EmbeddingModel: r.EmbeddingModel,
		TextHash:       r.TextHash,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *EmbeddingRecordMapper) ToModel(e *entity.EmbeddingRecord) *model.EmbeddingRecord {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var segmentIdsJson datatypes.JSON
	if len(e.SegmentIds) > 0 {
		b, _ := json.Marshal(e.SegmentIds)
		segmentIdsJson = datatypes.JSON(b)
	} else {
		segmentIdsJson = datatypes.JSON([]byte("[]"))
	}

	return &model.EmbeddingRecord{
		Id:             e.Id,
		NoteId:         e.NoteId,
		RecordingId:    e.RecordingId,
		SegmentIds:     segmentIdsJson,
		SegmentIndex:   e.SegmentIndex,
		VectorPointId:  e.VectorPointId,
		SourceText:     e.SourceText,
		EmbeddingModel: e.EmbeddingModel,
		TextHash:       e.TextHash,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *EmbeddingRecordMapper) ToEntities(records []*model.EmbeddingRecord) []*entity.EmbeddingRecord {
	entities := make([]*entity.EmbeddingRecord, len(records))
	for i, r := range records {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

func (m *EmbeddingRecordMapper) ToModels(records []*entity.EmbeddingRecord) []*model.EmbeddingRecord {
	models := make([]*model.EmbeddingRecord, len(records))
	for i, e := range records {
		models[i] = m.ToModel(e)
	}
	return models
}
