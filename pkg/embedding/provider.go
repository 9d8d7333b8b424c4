package embedding

import "context"

// Task types hint the provider at asymmetric embedding spaces (Gemini honors
// them, Ollama ignores them).
const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings.
// Implementations return a fixed dimensionality for their configured model and
// bound every call with a client timeout; a timeout is a failure like any other.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)

	// Model identifies which provider/model produced the vectors. It is stored
	// on every embedding record so stale vectors are attributable.
	Model() string
}
