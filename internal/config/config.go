package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Vector    VectorConfig
	Embedding EmbeddingConfig
	Index     IndexConfig
	Search    SearchConfig
	Topics    TopicConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WorkerLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type VectorConfig struct {
	// Store selects the backend: "pgvector", "qdrant" or "memory".
	Store      string
	Collection string
	QdrantURL  string
	QdrantKey  string
}

type EmbeddingConfig struct {
	Provider      string // "gemini" or "ollama"
	GeminiAPIKey  string
	OllamaBaseURL string
	OllamaModel   string
}

type IndexConfig struct {
	SegmentMaxWords     int
	SegmentOverlapWords int
	ChangeThreshold     float64
}

type SearchConfig struct {
	DefaultLimit   int
	ScoreThreshold float64
}

type TopicConfig struct {
	VectorizeRecording string
	VectorizeNote      string
	Poison             string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			WorkerLogFilePath:  getEnv("WORKER_LOG_FILE_PATH", "worker.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Vector: VectorConfig{
			Store:      getEnv("VECTOR_STORE", "pgvector"),
			Collection: getEnv("VECTOR_COLLECTION_NAME", "voice_notes"),
			QdrantURL:  getEnv("QDRANT_URL", "http://localhost:6333"),
			QdrantKey:  getEnv("QDRANT_API_KEY", ""),
		},
		Embedding: EmbeddingConfig{
			Provider:      getEnv("EMBEDDING_PROVIDER", "gemini"),
			GeminiAPIKey:  getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:   getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Index: IndexConfig{
			SegmentMaxWords:     getEnvAsInt("SEGMENT_MAX_WORDS", 300),
			SegmentOverlapWords: getEnvAsInt("SEGMENT_OVERLAP_WORDS", 50),
			ChangeThreshold:     getEnvAsFloat("CHANGE_THRESHOLD", 0.2),
		},
		Search: SearchConfig{
			DefaultLimit:   getEnvAsInt("SEARCH_LIMIT", 10),
			ScoreThreshold: getEnvAsFloat("SEARCH_SCORE_THRESHOLD", 0.0),
		},
		Topics: TopicConfig{
			VectorizeRecording: getEnv("VECTORIZE_RECORDING_TOPIC_NAME", "VECTORIZE_RECORDING"),
			VectorizeNote:      getEnv("VECTORIZE_NOTE_TOPIC_NAME", "VECTORIZE_NOTE"),
			Poison:             getEnv("VECTORIZE_POISON_TOPIC_NAME", "VECTORIZE_POISON"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
