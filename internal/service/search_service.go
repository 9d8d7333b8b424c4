package service

import (
	"context"
	"sort"
	"strings"

	"voicenote-vector-be/internal/dto"
	"voicenote-vector-be/internal/pkg/logger"
	"voicenote-vector-be/internal/repository/unitofwork"
	"voicenote-vector-be/pkg/apperror"
	"voicenote-vector-be/pkg/embedding"
	"voicenote-vector-be/pkg/vectorstore"

	"github.com/google/uuid"
)

// overfetchFactor compensates for post-retrieval filtering: hits are fetched
// kind-agnostic and partitioned afterwards, so either granularity alone could
// need up to limit results.
const overfetchFactor = 3

const previewMaxRunes = 160

type ISearchService interface {
	// Search runs one semantic query over both granularities and returns the
	// results partitioned by kind, each list capped at limit.
	Search(ctx context.Context, query string, limit int, scoreThreshold float64) (*dto.SearchResponse, error)
	// FindSimilarNotes ranks other notes by similarity to the given note's
	// note-level vector. No query embedding is generated; the stored vector is
	// reused as-is.
	FindSimilarNotes(ctx context.Context, noteId uuid.UUID, limit int, scoreThreshold float64) (*dto.SimilarNotesResponse, error)
}

type searchService struct {
	uowFactory        unitofwork.RepositoryFactory
	vectorStore       vectorstore.VectorStore
	embeddingProvider embedding.EmbeddingProvider
	log               logger.ILogger
	collection        string
	defaultLimit      int
}

func NewSearchService(
	uowFactory unitofwork.RepositoryFactory,
	vectorStore vectorstore.VectorStore,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
	collection string,
	defaultLimit int,
) ISearchService {
	return &searchService{
		uowFactory:        uowFactory,
		vectorStore:       vectorStore,
		embeddingProvider: embeddingProvider,
		log:               log,
		collection:        collection,
		defaultLimit:      defaultLimit,
	}
}

func (s *searchService) Search(ctx context.Context, query string, limit int, scoreThreshold float64) (*dto.SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperror.Newf(apperror.KindEmptyInput, "search.query", "", "query text is blank")
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	res, err := s.embeddingProvider.Generate(ctx, query, embedding.TaskTypeQuery)
	if err != nil {
		// No degraded lexical fallback: a provider outage fails the search.
		return nil, apperror.New(apperror.KindProviderFailure, "search.query", query, err)
	}

	hits, err := s.vectorStore.Search(ctx, s.collection, res.Embedding.Values, limit*overfetchFactor, 0, nil)
	if err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "search.query", query, err)
	}

	response := &dto.SearchResponse{
		ChunkResults: []*dto.ChunkMatch{},
		NoteResults:  []*dto.NoteMatch{},
	}

	chunkGroups := make(map[uuid.UUID]*dto.ChunkMatch)
	for _, hit := range hits {
		if hit.Score < scoreThreshold {
			continue
		}
		if hit.Payload.IsChunkLevel() {
			response.TotalChunkHits++
			group, ok := chunkGroups[hit.Payload.NoteId]
			if !ok {
				group = &dto.ChunkMatch{NoteId: hit.Payload.NoteId}
				chunkGroups[hit.Payload.NoteId] = group
				response.ChunkResults = append(response.ChunkResults, group)
			}
			if hit.Score > group.MaxScore || len(group.Segments) == 0 {
				group.MaxScore = hit.Score
				group.RecordingId = hit.Payload.RecordingId
			}
			group.Segments = append(group.Segments, dto.SegmentPreview{
				SegmentIndex: hit.Payload.SegmentIndex,
				Score:        hit.Score,
				Preview:      makePreview(hit.Payload.SourceText),
			})
		} else {
			response.TotalNoteHits++
			response.NoteResults = append(response.NoteResults, &dto.NoteMatch{
				NoteId:  hit.Payload.NoteId,
				Score:   hit.Score,
				Preview: makePreview(hit.Payload.SourceText),
			})
		}
	}

	// Groups rank by their best segment.
	sort.SliceStable(response.ChunkResults, func(i, j int) bool {
		return response.ChunkResults[i].MaxScore > response.ChunkResults[j].MaxScore
	})
	sort.SliceStable(response.NoteResults, func(i, j int) bool {
		return response.NoteResults[i].Score > response.NoteResults[j].Score
	})
	if len(response.ChunkResults) > limit {
		response.ChunkResults = response.ChunkResults[:limit]
	}
	if len(response.NoteResults) > limit {
		response.NoteResults = response.NoteResults[:limit]
	}

	s.log.Debug("search", "semantic search served", map[string]interface{}{
		"chunk_hits": response.TotalChunkHits, "note_hits": response.TotalNoteHits, "limit": limit,
	})
	return response, nil
}

func (s *searchService) FindSimilarNotes(ctx context.Context, noteId uuid.UUID, limit int, scoreThreshold float64) (*dto.SimilarNotesResponse, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).EmbeddingRecordRepository()
	record, err := repo.FindNoteLevel(ctx, noteId)
	if err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "search.similar", noteId.String(), err)
	}
	if record == nil {
		return nil, apperror.Newf(apperror.KindNotFound, "search.similar", noteId.String(),
			"note has no note-level embedding")
	}

	point, err := s.vectorStore.Fetch(ctx, s.collection, record.VectorPointId)
	if err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "search.similar", noteId.String(), err)
	}
	if point == nil {
		return nil, apperror.Newf(apperror.KindStoreFailure, "search.similar", noteId.String(),
			"note-level point %s missing from vector store", record.VectorPointId)
	}

	// Over-fetch by one extra slot since the source note always matches itself.
	hits, err := s.vectorStore.Search(ctx, s.collection, point.Vector, limit*overfetchFactor+1, 0, nil)
	if err != nil {
		return nil, apperror.New(apperror.KindStoreFailure, "search.similar", noteId.String(), err)
	}

	response := &dto.SimilarNotesResponse{Results: []*dto.SimilarNote{}}
	for _, hit := range hits {
		if hit.Payload.IsChunkLevel() || hit.Payload.NoteId == noteId || hit.Score < scoreThreshold {
			continue
		}
		response.Results = append(response.Results, &dto.SimilarNote{
			NoteId:  hit.Payload.NoteId,
			Score:   hit.Score,
			Preview: makePreview(hit.Payload.SourceText),
		})
		if len(response.Results) == limit {
			break
		}
	}
	return response, nil
}

func makePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewMaxRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:previewMaxRunes])) + "..."
}
