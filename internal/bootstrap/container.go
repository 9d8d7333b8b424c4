package bootstrap

import (
	"context"
	"log"
	"time"

	"voicenote-vector-be/internal/config"
	"voicenote-vector-be/internal/controller"
	"voicenote-vector-be/internal/pkg/logger"
	"voicenote-vector-be/internal/repository/memory"
	"voicenote-vector-be/internal/repository/unitofwork"
	"voicenote-vector-be/internal/service"
	"voicenote-vector-be/pkg/embedding"
	"voicenote-vector-be/pkg/lock"
	"voicenote-vector-be/pkg/segment"
	"voicenote-vector-be/pkg/textdiff"
	"voicenote-vector-be/pkg/vectorstore"

	pktNats "voicenote-vector-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	VectorizeController controller.IVectorizeController
	SearchController    controller.ISearchController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
	CleanupService  service.ICleanupService

	Logger logger.ILogger
}

func segmenterFromConfig(cfg *config.Config) (*segment.Segmenter, error) {
	return segment.NewSegmenter(cfg.Index.SegmentMaxWords, cfg.Index.SegmentOverlapWords)
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	workerLogger := logger.NewIsolatedLogger(cfg.App.WorkerLogFilePath)

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] No database connection, using in-memory metadata repository")
		uowFactory = memory.NewRepositoryFactory()
	}

	// 2. Embedding provider
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Embedding.Provider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Embedding.OllamaBaseURL,
			cfg.Embedding.OllamaModel,
			30*time.Second,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Embedding.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Embedding.GeminiAPIKey, 30*time.Second)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// 3. Vector store
	var vectorStore vectorstore.VectorStore
	switch cfg.Vector.Store {
	case "qdrant":
		vectorStore = vectorstore.NewQdrantStore(cfg.Vector.QdrantURL, cfg.Vector.QdrantKey, 15*time.Second)
		log.Printf("[INFO] Using Vector Store: QDRANT (%s)", cfg.Vector.QdrantURL)
	case "memory":
		vectorStore = vectorstore.NewMemoryStore()
		log.Printf("[INFO] Using Vector Store: MEMORY (non-persistent)")
	default:
		if db == nil {
			log.Fatalf("[FATAL] pgvector store requires a database connection")
		}
		vectorStore = vectorstore.NewPgVectorStore(db)
		log.Printf("[INFO] Using Vector Store: PGVECTOR")
	}

	// 4. Text pipeline
	segmenter, err := segmenterFromConfig(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Invalid segmenter config: %v", err)
	}

	// 5. Event bus and queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// 6. Redis keyed lock
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	var keyedLock *lock.KeyedLock
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, worker runs without keyed locks: %v", err)
	} else {
		keyedLock = lock.NewKeyedLock(rdb)
	}

	// 7. Services
	consistencyService := service.NewConsistencyService(
		uowFactory,
		vectorStore,
		natsPub,
		sysLogger,
		cfg.Vector.Collection,
	)

	changeDetector, err := textdiff.NewChangeDetector(cfg.Index.ChangeThreshold)
	if err != nil {
		log.Fatalf("[FATAL] Invalid change detector config: %v", err)
	}

	indexService := service.NewIndexService(
		uowFactory,
		vectorStore,
		embeddingProvider,
		segmenter,
		changeDetector,
		consistencyService,
		natsPub,
		workerLogger,
		cfg.Vector.Collection,
	)

	searchService := service.NewSearchService(
		uowFactory,
		vectorStore,
		embeddingProvider,
		sysLogger,
		cfg.Vector.Collection,
		cfg.Search.DefaultLimit,
	)

	publisherService := service.NewPublisherService(
		pubSub,
		cfg.Topics.VectorizeRecording,
		cfg.Topics.VectorizeNote,
		sysLogger,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		pubSub,
		service.ConsumerTopics{
			Recording: cfg.Topics.VectorizeRecording,
			Note:      cfg.Topics.VectorizeNote,
			Poison:    cfg.Topics.Poison,
		},
		indexService,
		keyedLock,
		workerLogger,
	)

	var cleanupService service.ICleanupService
	if natsSub != nil {
		cleanupService = service.NewCleanupService(natsSub, consistencyService, sysLogger)
	}

	// 8. Controllers
	return &Container{
		VectorizeController: controller.NewVectorizeController(publisherService, indexService),
		SearchController:    controller.NewSearchController(searchService, cfg.Search.ScoreThreshold),
		ConsumerService:     consumerService,
		CleanupService:      cleanupService,
		Logger:              sysLogger,
	}
}
