package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// QdrantStore implements VectorStore against the Qdrant REST API.
type QdrantStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewQdrantStore(baseURL string, apiKey string, timeout time.Duration) VectorStore {
	if baseURL == "" {
		baseURL = "http://localhost:6333"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &QdrantStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type qdrantPoint struct {
	Id      string    `json:"id"`
	Vector  []float32 `json:"vector,omitempty"`
	Payload *Payload  `json:"payload,omitempty"`
	Score   float64   `json:"score,omitempty"`
}

type qdrantMatch struct {
	Value string `json:"value"`
}

type qdrantCondition struct {
	Key   string      `json:"key"`
	Match qdrantMatch `json:"match"`
}

type qdrantFilter struct {
	Must []qdrantCondition `json:"must"`
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	qdrantPoints := make([]qdrantPoint, len(points))
	for i, p := range points {
		payload := p.Payload
		qdrantPoints[i] = qdrantPoint{
			Id:      p.Id.String(),
			Vector:  p.Vector,
			Payload: &payload,
		}
	}

	body := map[string]interface{}{"points": qdrantPoints}
	endpoint := fmt.Sprintf("%s/collections/%s/points?wait=true", s.baseURL, collection)
	return s.do(ctx, http.MethodPut, endpoint, body, nil)
}

func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float64, filter *Filter) ([]ScoredPoint, error) {
	if limit <= 0 {
		limit = 10
	}

	body := map[string]interface{}{
		"vector":          vector,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": scoreThreshold,
	}
	if filter != nil {
		var must []qdrantCondition
		if filter.NoteId != nil {
			must = append(must, qdrantCondition{Key: "note_id", Match: qdrantMatch{Value: filter.NoteId.String()}})
		}
		if filter.RecordingId != nil {
			must = append(must, qdrantCondition{Key: "recording_id", Match: qdrantMatch{Value: filter.RecordingId.String()}})
		}
		if len(must) > 0 {
			body["filter"] = qdrantFilter{Must: must}
		}
	}

	var res struct {
		Result []qdrantPoint `json:"result"`
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points/search", s.baseURL, collection)
	if err := s.do(ctx, http.MethodPost, endpoint, body, &res); err != nil {
		return nil, err
	}

	// Qdrant returns hits pre-sorted by score descending.
	results := make([]ScoredPoint, 0, len(res.Result))
	for _, qp := range res.Result {
		id, err := uuid.Parse(qp.Id)
		if err != nil {
			return nil, fmt.Errorf("qdrant returned non-uuid point id %q: %w", qp.Id, err)
		}
		var payload Payload
		if qp.Payload != nil {
			payload = *qp.Payload
		}
		results = append(results, ScoredPoint{
			Point: Point{Id: id, Payload: payload},
			Score: qp.Score,
		})
	}
	return results, nil
}

func (s *QdrantStore) Fetch(ctx context.Context, collection string, pointId uuid.UUID) (*Point, error) {
	var res struct {
		Result *qdrantPoint `json:"result"`
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points/%s", s.baseURL, collection, pointId)
	err := s.do(ctx, http.MethodGet, endpoint, nil, &res)
	if err != nil {
		return nil, err
	}
	if res.Result == nil {
		return nil, nil
	}
	var payload Payload
	if res.Result.Payload != nil {
		payload = *res.Result.Payload
	}
	return &Point{
		Id:      pointId,
		Vector:  res.Result.Vector,
		Payload: payload,
	}, nil
}

func (s *QdrantStore) Delete(ctx context.Context, collection string, pointIds []uuid.UUID) error {
	if len(pointIds) == 0 {
		return nil
	}
	ids := make([]string, len(pointIds))
	for i, id := range pointIds {
		ids[i] = id.String()
	}
	body := map[string]interface{}{"points": ids}
	endpoint := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.baseURL, collection)
	return s.do(ctx, http.MethodPost, endpoint, body, nil)
}

func (s *QdrantStore) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	resBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Qdrant answers 404 for a missing point fetch; treat as empty result.
	if resp.StatusCode == http.StatusNotFound && out != nil {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant error, code %d, body %s", resp.StatusCode, string(resBytes))
	}

	if out != nil {
		if err := json.Unmarshal(resBytes, out); err != nil {
			return err
		}
	}
	return nil
}
