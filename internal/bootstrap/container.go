package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/controller"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/internal/service"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/embedding/jina"
	"ai-tutor-be/pkg/graph"
	"ai-tutor-be/pkg/jobstore"
	"ai-tutor-be/pkg/llm/factory"

	pktNats "ai-tutor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	TutorController     controller.ITutorController
	KnowledgeController controller.IKnowledgeController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WorkerService   service.IWorkerService

	// Exposed for the seed binary
	KnowledgeService service.IKnowledgeService

	// Shared infra handles for shutdown
	GraphClient *graph.Client
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaAPIKey)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFaceAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Knowledge Graph
	graphClient, err := graph.NewClient(graph.ClientConfig{
		URI:      cfg.Graph.URI,
		User:     cfg.Graph.User,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to Neo4j: %v", err)
	}
	graphStore := graph.NewStore(graphClient, log.Default())

	// In-Memory Conversation Cache
	convRepo := memory.NewConversationRepository()

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	jobs := jobstore.NewStore(rdb, 24*time.Hour)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Retrieval.IngestTopicName, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Retrieval.IngestTopicName,
		uowFactory,
		embeddingProvider,
		graphStore,
		natsPub,
		cfg.Retrieval.ChunkSize,
		cfg.Retrieval.ChunkOverlap,
	)

	knowledgeService := service.NewKnowledgeService(
		uowFactory,
		publisherService,
		embeddingProvider,
		graphStore,
		natsPub,
	)
	if err := knowledgeService.EnsureIndexes(context.Background(), cfg.Retrieval.EmbeddingDims); err != nil {
		log.Printf("[WARN] Failed to ensure vector indexes: %v", err)
	}

	tutorService := service.NewTutorService(
		uowFactory,
		embeddingProvider,
		llmProvider,
		graphStore,
		convRepo,
		jobs,
		natsPub,
		cfg,
	)

	var workerService service.IWorkerService
	if natsSub != nil {
		workerService = service.NewWorkerService(tutorService, natsSub, jobs, sysLogger)
	}

	// 5. Controllers
	return &Container{
		TutorController:     controller.NewTutorController(tutorService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),

		ConsumerService: consumerService,
		WorkerService:   workerService,

		KnowledgeService: knowledgeService,

		GraphClient: graphClient,
	}
}
