package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a brute-force cosine-similarity store for tests and local
// development without Postgres or Qdrant.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[uuid.UUID]Point
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[uuid.UUID]Point),
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[uuid.UUID]Point)
		s.collections[collection] = coll
	}
	for _, p := range points {
		coll[p.Id] = p
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float64, filter *Filter) ([]ScoredPoint, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []ScoredPoint
	for _, p := range s.collections[collection] {
		if filter != nil {
			if filter.NoteId != nil && p.Payload.NoteId != *filter.NoteId {
				continue
			}
			if filter.RecordingId != nil {
				if p.Payload.RecordingId == nil || *p.Payload.RecordingId != *filter.RecordingId {
					continue
				}
			}
		}
		score := cosineSimilarity(vector, p.Vector)
		if score < scoreThreshold {
			continue
		}
		results = append(results, ScoredPoint{Point: p, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryStore) Fetch(ctx context.Context, collection string, pointId uuid.UUID) (*Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.collections[collection][pointId]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection string, pointIds []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[collection]
	for _, id := range pointIds {
		delete(coll, id)
	}
	return nil
}

// Count reports how many points a collection holds. Test helper.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
