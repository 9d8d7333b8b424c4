package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// vectorPoint is the backing row for the pgvector-based store. All collections
// share one table, discriminated by the collection column.
type vectorPoint struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Collection string          `gorm:"type:varchar(255);not null;index"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 / nomic-embed-text dimensions
	Payload    datatypes.JSON  `gorm:"type:jsonb"`
}

func (vectorPoint) TableName() string {
	return "vector_points"
}

// PgVectorStore implements VectorStore on Postgres with the pgvector extension,
// using cosine distance (embedding <=> query).
type PgVectorStore struct {
	db *gorm.DB
}

func NewPgVectorStore(db *gorm.DB) VectorStore {
	return &PgVectorStore{db: db}
}

// Migrate creates the vector_points table. Exposed for cmd/migrate.
func MigratePgVectorStore(db *gorm.DB) error {
	return db.AutoMigrate(&vectorPoint{})
}

func (s *PgVectorStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	rows := make([]*vectorPoint, len(points))
	for i, p := range points {
		payloadJson, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload for point %s: %w", p.Id, err)
		}
		rows[i] = &vectorPoint{
			Id:         p.Id,
			Collection: collection,
			Embedding:  pgvector.NewVector(p.Vector),
			Payload:    datatypes.JSON(payloadJson),
		}
	}
	return s.db.WithContext(ctx).Save(rows).Error
}

func (s *PgVectorStore) Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float64, filter *Filter) ([]ScoredPoint, error) {
	if limit <= 0 {
		limit = 10
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so the score is
	// 1 - (embedding <=> query).
	type row struct {
		vectorPoint
		Score float64
	}
	var rows []row

	queryVector := pgvector.NewVector(vector)

	query := s.db.WithContext(ctx).
		Table("vector_points").
		Select("vector_points.*, 1 - (embedding <=> ?) as score", queryVector).
		Where("collection = ?", collection).
		Where("1 - (embedding <=> ?) >= ?", queryVector, scoreThreshold)

	if filter != nil {
		if filter.NoteId != nil {
			query = query.Where("payload->>'note_id' = ?", filter.NoteId.String())
		}
		if filter.RecordingId != nil {
			query = query.Where("payload->>'recording_id' = ?", filter.RecordingId.String())
		}
	}

	err := query.
		Order("score DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]ScoredPoint, 0, len(rows))
	for _, r := range rows {
		point, err := toPoint(&r.vectorPoint)
		if err != nil {
			return nil, err
		}
		results = append(results, ScoredPoint{Point: *point, Score: r.Score})
	}
	return results, nil
}

func (s *PgVectorStore) Fetch(ctx context.Context, collection string, pointId uuid.UUID) (*Point, error) {
	var row vectorPoint
	err := s.db.WithContext(ctx).
		Where("id = ? AND collection = ?", pointId, collection).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toPoint(&row)
}

func (s *PgVectorStore) Delete(ctx context.Context, collection string, pointIds []uuid.UUID) error {
	if len(pointIds) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("collection = ? AND id IN ?", collection, pointIds).
		Delete(&vectorPoint{}).Error
}

func toPoint(row *vectorPoint) (*Point, error) {
	var payload Payload
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload for point %s: %w", row.Id, err)
	}
	return &Point{
		Id:      row.Id,
		Vector:  row.Embedding.Slice(),
		Payload: payload,
	}, nil
}
