package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/graph"
	pktNats "ai-tutor-be/pkg/nats"
	"ai-tutor-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	graphStore        *graph.Store
	eventPublisher    *pktNats.Publisher
	chunkSize         int
	chunkOverlap      int
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	graphStore *graph.Store,
	eventPublisher *pktNats.Publisher,
	chunkSize int,
	chunkOverlap int,
) IConsumerService {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 200
	}
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		graphStore:        graphStore,
		eventPublisher:    eventPublisher,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestDocumentMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing ingestion for DocumentId: %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if document == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocumentId)
		msg.Ack() // Document deleted? Ack.
		return
	}

	content := fmt.Sprintf("Title: %s\n\n%s", document.Title, document.Content)

	chunks := utils.SplitText(content, cs.chunkSize, cs.chunkOverlap)
	log.Printf("[INFO] Content split into %d chunks", len(chunks))

	responses, err := cs.embeddingProvider.GenerateBatch(chunks, "retrieval_document")
	if err != nil {
		log.Printf("[ERROR] Failed to generate embeddings for document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}

	newChunks := make([]*entity.DocumentChunk, len(chunks))
	for i, chunk := range chunks {
		newChunks[i] = &entity.DocumentChunk{
			Id:             uuid.New(),
			DocumentId:     document.Id,
			ChunkIndex:     i,
			Content:        chunk,
			EmbeddingValue: responses[i].Embedding.Values,
			CreatedAt:      time.Now(),
		}
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old chunks: %v", err)
		msg.Nack()
		return
	}

	if len(newChunks) > 0 {
		if err := uow.DocumentChunkRepository().CreateBulk(ctx, newChunks); err != nil {
			log.Printf("[ERROR] Failed to create bulk chunks: %v", err)
			msg.Nack()
			return
		}
	}

	document.ChunkCount = len(newChunks)
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		log.Printf("[ERROR] Failed to update document chunk count: %v", err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	// Mirror each chunk into the knowledge graph so vector search and
	// traversal see the new material. Graph writes sit outside the SQL
	// transaction; a retry overwrites the same node ids.
	for i, chunk := range newChunks {
		nodeID := fmt.Sprintf("%s_chunk_%d", document.Id, i)
		props := map[string]any{
			"title":       fmt.Sprintf("%s (part %d)", document.Title, i+1),
			"content":     chunk.Content,
			"document_id": document.Id.String(),
			"source":      document.Source,
		}
		if err := cs.graphStore.UpsertNode(ctx, nodeID, constant.NodeTypeKnowledge, props, chunk.EmbeddingValue); err != nil {
			log.Printf("[ERROR] Failed to upsert knowledge node %s: %v", nodeID, err)
			msg.Nack()
			return
		}
	}

	if cs.eventPublisher != nil {
		event := events.NewDocumentIngested(document.Id.String(), len(newChunks))
		if err := cs.eventPublisher.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to publish ingested event: %v", err)
		}
	}

	log.Printf("[SUCCESS] Document processed: %d chunks for DocumentId: %s", len(newChunks), payload.DocumentId)
	msg.Ack()
}
