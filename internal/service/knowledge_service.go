package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/graph"
	pktNats "ai-tutor-be/pkg/nats"
)

// IKnowledgeService manages the knowledge base: document intake,
// relationships between concepts, and direct search.
type IKnowledgeService interface {
	CreateDocument(ctx context.Context, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	CreateDocumentsBatch(ctx context.Context, req *dto.BatchCreateDocumentsRequest) (*dto.BatchCreateDocumentsResponse, error)
	CreateRelationship(ctx context.Context, req *dto.CreateRelationshipRequest) error
	Search(ctx context.Context, query string, limit int) ([]*dto.SearchResultResponse, error)
	EnsureIndexes(ctx context.Context, dimensions int) error
}

type knowledgeService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	graphStore        *graph.Store
	eventPublisher    *pktNats.Publisher
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
	graphStore *graph.Store,
	eventPublisher *pktNats.Publisher,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		graphStore:        graphStore,
		eventPublisher:    eventPublisher,
	}
}

// CreateDocument accepts the raw document and queues it for ingestion.
// Chunking and embedding happen asynchronously in the consumer.
func (ks *knowledgeService) CreateDocument(ctx context.Context, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	uow := ks.uowFactory.NewUnitOfWork(ctx)

	document := entity.Document{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		Source:    req.Source,
		CreatedAt: time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	msgPayload := dto.IngestDocumentMessage{
		DocumentId: document.Id,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := ks.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	if ks.eventPublisher != nil {
		event := events.NewDocumentIngestRequested(document.Id.String(), document.Title)
		if err := ks.eventPublisher.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to publish ingest-requested event: %v", err)
		}
	}

	return &dto.CreateDocumentResponse{
		Id:     document.Id,
		Status: "accepted",
	}, nil
}

func (ks *knowledgeService) CreateDocumentsBatch(ctx context.Context, req *dto.BatchCreateDocumentsRequest) (*dto.BatchCreateDocumentsResponse, error) {
	accepted := make([]dto.CreateDocumentResponse, 0, len(req.Documents))
	for i := range req.Documents {
		res, err := ks.CreateDocument(ctx, &req.Documents[i])
		if err != nil {
			return nil, err
		}
		accepted = append(accepted, *res)
	}
	return &dto.BatchCreateDocumentsResponse{Accepted: accepted}, nil
}

// CreateRelationship links two knowledge nodes. Both endpoints must
// already exist in the graph.
func (ks *knowledgeService) CreateRelationship(ctx context.Context, req *dto.CreateRelationshipRequest) error {
	err := ks.graphStore.UpsertRelationship(ctx,
		req.FromId, constant.NodeTypeKnowledge,
		req.ToId, constant.NodeTypeKnowledge,
		req.Type, req.Props)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Failed to create relationship: "+err.Error())
	}
	return nil
}

// Search is a hybrid lookup outside the tutoring pipeline: vector hits
// first, then a depth-1 expansion from the top hits, deduplicated by
// node id.
func (ks *knowledgeService) Search(ctx context.Context, query string, limit int) ([]*dto.SearchResultResponse, error) {
	if limit <= 0 || limit > 50 {
		limit = constant.SemanticTopK
	}

	res, err := ks.embeddingProvider.Generate(query, "retrieval_query")
	if err != nil {
		return nil, err
	}

	hits, err := ks.graphStore.QueryVectorIndex(ctx, constant.KnowledgeIndexName, res.Embedding.Values, limit, constant.SemanticThreshold)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(hits))
	for _, hit := range hits {
		seen[hit.Node.ID] = true
	}

	relTypes := []string{constant.RelRelatedTo, constant.RelPrerequisite, constant.RelSimilarTo}
	seeds := hits
	if len(seeds) > constant.GraphSeedCount {
		seeds = seeds[:constant.GraphSeedCount]
	}
	for _, seed := range seeds {
		// Expansion is best-effort; the vector hits stand on their own.
		related, err := ks.graphStore.Traverse(ctx, seed.Node.ID, relTypes, 1, limit)
		if err != nil {
			continue
		}
		for _, hit := range related {
			if hit.Node.ID == "" || seen[hit.Node.ID] {
				continue
			}
			seen[hit.Node.ID] = true
			hits = append(hits, hit)
		}
	}

	results := make([]*dto.SearchResultResponse, 0, len(hits))
	for _, hit := range hits {
		results = append(results, &dto.SearchResultResponse{
			Id:      hit.Node.ID,
			Title:   hit.Node.Title,
			Content: hit.Node.Content,
			Score:   hit.ScoreOrZero(),
			Origin:  hit.Origin,
		})
	}
	return results, nil
}

// EnsureIndexes creates the knowledge vector index when missing. Called
// once at startup.
func (ks *knowledgeService) EnsureIndexes(ctx context.Context, dimensions int) error {
	return ks.graphStore.EnsureVectorIndex(ctx, constant.KnowledgeIndexName, constant.NodeTypeKnowledge, "embedding", dimensions)
}
