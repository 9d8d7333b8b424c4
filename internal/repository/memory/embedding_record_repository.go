package memory

import (
	"context"
	"sort"

	"voicenote-vector-be/internal/entity"
	"voicenote-vector-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// EmbeddingRecordRepository is an in-memory implementation used by tests and
// the memory vector-store dev mode. Records live in a go-cache keyed by id.
type EmbeddingRecordRepository struct {
	cache *cache.Cache
}

func NewEmbeddingRecordRepository() *EmbeddingRecordRepository {
	return &EmbeddingRecordRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *EmbeddingRecordRepository) Create(ctx context.Context, record *entity.EmbeddingRecord) error {
	clone := *record
	r.cache.Set(record.Id.String(), &clone, cache.DefaultExpiration)
	return nil
}

func (r *EmbeddingRecordRepository) CreateBulk(ctx context.Context, records []*entity.EmbeddingRecord) error {
	for _, record := range records {
		if err := r.Create(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (r *EmbeddingRecordRepository) all() []*entity.EmbeddingRecord {
	items := r.cache.Items()
	records := make([]*entity.EmbeddingRecord, 0, len(items))
	for _, item := range items {
		records = append(records, item.Object.(*entity.EmbeddingRecord))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SegmentIndex < records[j].SegmentIndex
	})
	return records
}

func (r *EmbeddingRecordRepository) FindByKey(ctx context.Context, noteId uuid.UUID, recordingId *uuid.UUID) ([]*entity.EmbeddingRecord, error) {
	var out []*entity.EmbeddingRecord
	for _, rec := range r.all() {
		if rec.NoteId != noteId {
			continue
		}
		if recordingId == nil {
			if rec.RecordingId != nil {
				continue
			}
		} else {
			if rec.RecordingId == nil || *rec.RecordingId != *recordingId {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *EmbeddingRecordRepository) FindNoteLevel(ctx context.Context, noteId uuid.UUID) (*entity.EmbeddingRecord, error) {
	records, _ := r.FindByKey(ctx, noteId, nil)
	for _, rec := range records {
		if rec.Kind() == entity.KindNoteLevel {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *EmbeddingRecordRepository) FindByNoteId(ctx context.Context, noteId uuid.UUID) ([]*entity.EmbeddingRecord, error) {
	var out []*entity.EmbeddingRecord
	for _, rec := range r.all() {
		if rec.NoteId == noteId {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *EmbeddingRecordRepository) FindByRecordingId(ctx context.Context, recordingId uuid.UUID) ([]*entity.EmbeddingRecord, error) {
	var out []*entity.EmbeddingRecord
	for _, rec := range r.all() {
		if rec.RecordingId != nil && *rec.RecordingId == recordingId {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *EmbeddingRecordRepository) DeleteByKey(ctx context.Context, noteId uuid.UUID, recordingId *uuid.UUID) error {
	records, _ := r.FindByKey(ctx, noteId, recordingId)
	for _, rec := range records {
		r.cache.Delete(rec.Id.String())
	}
	return nil
}

func (r *EmbeddingRecordRepository) DeleteByIds(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		r.cache.Delete(id.String())
	}
	return nil
}

var _ contract.EmbeddingRecordRepository = (*EmbeddingRecordRepository)(nil)
