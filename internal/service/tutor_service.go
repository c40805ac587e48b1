package service

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/graph"
	"ai-tutor-be/pkg/jobstore"
	"ai-tutor-be/pkg/llm"
	pktNats "ai-tutor-be/pkg/nats"
	"ai-tutor-be/pkg/rag/executor"
	"ai-tutor-be/pkg/rag/fusion"
	"ai-tutor-be/pkg/rag/generation"
	"ai-tutor-be/pkg/rag/history"
	"ai-tutor-be/pkg/rag/persistence"
	"ai-tutor-be/pkg/rag/retrieval"
	"ai-tutor-be/pkg/rag/router"
	"ai-tutor-be/pkg/rag/state"
	"ai-tutor-be/pkg/rag/validation"
	"ai-tutor-be/pkg/store"
)

// ITutorService is the question-answering surface: synchronous asks,
// per-stage streaming, fire-and-forget jobs, and thread history.
type ITutorService interface {
	Ask(ctx context.Context, studentId string, req *dto.AskRequest) (*dto.AskResponse, error)
	AskStream(ctx context.Context, studentId string, req *dto.AskRequest, emit executor.EmitFunc) (*dto.AskResponse, error)
	AskAsync(ctx context.Context, studentId string, req *dto.AskRequest) (*dto.AskAsyncResponse, error)
	GetJob(ctx context.Context, studentId string, jobId string) (*dto.JobStatusResponse, error)
	GetThreadMessages(ctx context.Context, studentId string, threadId uuid.UUID) ([]*dto.ThreadMessageResponse, error)
}

type tutorService struct {
	uowFactory unitofwork.RepositoryFactory
	pipeline   *executor.Pipeline
	convRepo   *memory.ConversationRepository
	jobs       *jobstore.Store
	natsPub    *pktNats.Publisher
	ragLogger  *log.Logger
}

// NewTutorService wires the full pipeline from its stage components.
func NewTutorService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	graphStore *graph.Store,
	convRepo *memory.ConversationRepository,
	jobs *jobstore.Store,
	natsPub *pktNats.Publisher,
	cfg *config.Config,
) ITutorService {
	ragLogger := initRagLogger()

	var classifier executor.Classifier
	if cfg.Ai.UseLLMRouter {
		classifier = router.NewLLMRouter(llmProvider, ragLogger)
	} else {
		classifier = router.NewRouter(ragLogger)
	}

	semantic := retrieval.NewSemanticRetriever(embeddingProvider, graphStore, retrieval.SemanticConfig{
		TopK:      cfg.Retrieval.VectorTopK,
		Threshold: cfg.Retrieval.VectorThreshold,
	}, ragLogger)

	graphRetriever := retrieval.NewGraphRetriever(graphStore, retrieval.GraphConfig{
		MaxDepth: cfg.Retrieval.TraversalDepth,
	}, ragLogger)

	var chunkIndex retrieval.TextSearcher
	if cfg.Retrieval.SecondaryEnabled {
		chunkIndex = &chunkSearcher{
			uowFactory: uowFactory,
			embedder:   embeddingProvider,
		}
	}
	secondary := retrieval.NewSecondaryRetriever(chunkIndex, constant.SecondaryTopK, ragLogger)

	historyLoader := history.NewLoader(&threadHistorySource{
		uowFactory: uowFactory,
		cache:      convRepo,
	}, constant.HistoryWindow, ragLogger)

	pipeline := executor.NewPipeline(
		classifier,
		semantic,
		graphRetriever,
		secondary,
		fusion.NewFuser(ragLogger),
		generation.NewGenerator(llmProvider, ragLogger),
		validation.NewValidator(ragLogger),
		persistence.NewRecorder(graphStore, ragLogger),
		historyLoader,
		ragLogger,
	)

	return &tutorService{
		uowFactory: uowFactory,
		pipeline:   pipeline,
		convRepo:   convRepo,
		jobs:       jobs,
		natsPub:    natsPub,
		ragLogger:  ragLogger,
	}
}

func initRagLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "rag_pipeline.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (ts *tutorService) Ask(ctx context.Context, studentId string, req *dto.AskRequest) (*dto.AskResponse, error) {
	return ts.AskStream(ctx, studentId, req, nil)
}

func (ts *tutorService) AskStream(ctx context.Context, studentId string, req *dto.AskRequest, emit executor.EmitFunc) (*dto.AskResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	thread, err := ts.resolveThread(ctx, uow, studentId, req)
	if err != nil {
		return nil, err
	}

	st := state.New(req.Question, studentId, req.Context, thread.Id.String())
	st = ts.pipeline.ExecuteStream(ctx, st, emit)

	if err := ts.persistTurn(ctx, uow, thread, st); err != nil {
		// The answer exists; losing the thread record is logged, not fatal.
		ts.ragLogger.Printf("[WARN] Failed to persist thread messages: %v", err)
	}

	// Refresh the cached window so the next turn sees this exchange.
	window := st.Messages
	if len(window) > constant.HistoryWindow {
		window = window[len(window)-constant.HistoryWindow:]
	}
	ts.convRepo.Save(thread.Id.String(), window)

	interactionId := persistence.InteractionID(studentId, req.Question)
	if ts.natsPub != nil {
		event := events.NewInteractionRecorded(studentId, interactionId, st.Confidence)
		if err := ts.natsPub.Publish(ctx, event); err != nil {
			ts.ragLogger.Printf("[WARN] Failed to publish interaction event: %v", err)
		}
	}

	return &dto.AskResponse{
		Answer:             st.Answer,
		Confidence:         st.Confidence,
		QuestionType:       st.QuestionType,
		RetrievalCount:     st.RetrievalCount,
		GenerationAttempts: st.GenerationAttempts,
		Sources:            st.Sources,
		ThreadId:           thread.Id,
		InteractionId:      interactionId,
	}, nil
}

func (ts *tutorService) resolveThread(ctx context.Context, uow unitofwork.UnitOfWork, studentId string, req *dto.AskRequest) (*entity.Thread, error) {
	if req.ThreadId != nil {
		thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: *req.ThreadId})
		if err != nil {
			return nil, err
		}
		if thread == nil || thread.StudentId != studentId {
			return nil, fiber.NewError(fiber.StatusNotFound, "Thread not found")
		}
		return thread, nil
	}

	thread := entity.Thread{
		Id:        uuid.New(),
		StudentId: studentId,
		Title:     truncateTitle(req.Question, 80),
		CreatedAt: time.Now(),
	}
	if err := uow.ThreadRepository().Create(ctx, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (ts *tutorService) persistTurn(ctx context.Context, uow unitofwork.UnitOfWork, thread *entity.Thread, st *state.RunState) error {
	now := time.Now()
	confidence := st.Confidence

	userMessage := entity.ThreadMessage{
		Id:        uuid.New(),
		ThreadId:  thread.Id,
		Role:      constant.ChatMessageRoleUser,
		Content:   st.Question,
		CreatedAt: now,
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ThreadMessageRepository().Create(ctx, &userMessage); err != nil {
		return err
	}

	// A fallback answer is returned to the caller but never recorded as
	// an assistant turn.
	if !st.Fallback {
		assistantMessage := entity.ThreadMessage{
			Id:         uuid.New(),
			ThreadId:   thread.Id,
			Role:       constant.ChatMessageRoleModel,
			Content:    st.Answer,
			Confidence: &confidence,
			Sources:    st.Sources,
			CreatedAt:  now.Add(1 * time.Millisecond),
		}
		if err := uow.ThreadMessageRepository().Create(ctx, &assistantMessage); err != nil {
			return err
		}
	}

	return uow.Commit()
}

// AskAsync queues the question as a background job and returns its id.
func (ts *tutorService) AskAsync(ctx context.Context, studentId string, req *dto.AskRequest) (*dto.AskAsyncResponse, error) {
	if ts.natsPub == nil || ts.jobs == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "Async processing is not available")
	}

	jobId := uuid.NewString()

	threadId := ""
	if req.ThreadId != nil {
		threadId = req.ThreadId.String()
	}
	err := ts.jobs.Create(ctx, jobstore.Job{
		ID:        jobId,
		StudentID: studentId,
		Question:  req.Question,
		ThreadID:  threadId,
	})
	if err != nil {
		return nil, err
	}

	err = ts.natsPub.PublishJob(ctx, pktNats.JobSubjectAsk, dto.AskJobMessage{
		JobId:     jobId,
		StudentId: studentId,
		Question:  req.Question,
		ThreadId:  req.ThreadId,
		Context:   req.Context,
	})
	if err != nil {
		// The job record exists but will never run; mark it failed now.
		_ = ts.jobs.MarkFailed(ctx, jobId, "failed to enqueue job")
		return nil, err
	}

	return &dto.AskAsyncResponse{
		JobId:  jobId,
		Status: jobstore.StatusQueued,
	}, nil
}

func (ts *tutorService) GetJob(ctx context.Context, studentId string, jobId string) (*dto.JobStatusResponse, error) {
	if ts.jobs == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "Async processing is not available")
	}

	job, err := ts.jobs.Get(ctx, jobId)
	if errors.Is(err, jobstore.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Job not found")
	}
	if err != nil {
		return nil, err
	}
	if job.StudentID != studentId {
		return nil, fiber.NewError(fiber.StatusNotFound, "Job not found")
	}

	return &dto.JobStatusResponse{
		JobId:      job.ID,
		Status:     job.Status,
		Answer:     job.Answer,
		Confidence: job.Confidence,
		Sources:    job.Sources,
		Error:      job.Error,
		CreatedAt:  job.CreatedAt,
		UpdatedAt:  job.UpdatedAt,
	}, nil
}

func (ts *tutorService) GetThreadMessages(ctx context.Context, studentId string, threadId uuid.UUID) ([]*dto.ThreadMessageResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: threadId})
	if err != nil {
		return nil, err
	}
	if thread == nil || thread.StudentId != studentId {
		return nil, fiber.NewError(fiber.StatusNotFound, "Thread not found")
	}

	messages, err := uow.ThreadMessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.ThreadMessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, &dto.ThreadMessageResponse{
			Id:         m.Id,
			Role:       m.Role,
			Content:    m.Content,
			Confidence: m.Confidence,
			Sources:    m.Sources,
			CreatedAt:  m.CreatedAt,
		})
	}
	return response, nil
}

func truncateTitle(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// chunkSearcher adapts the pgvector chunk repository to the secondary
// retrieval surface.
type chunkSearcher struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
}

func (s *chunkSearcher) SearchByText(ctx context.Context, query string, k int) ([]store.Hit, error) {
	res, err := s.embedder.Generate(query, "retrieval_query")
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilarWithScore(ctx, res.Embedding.Values, k, 0)
	if err != nil {
		return nil, err
	}

	hits := make([]store.Hit, 0, len(scored))
	for _, sc := range scored {
		similarity := sc.Similarity
		hits = append(hits, store.Hit{
			Node: store.Node{
				ID:      sc.Chunk.Id.String(),
				Type:    "Document",
				Title:   "Document chunk " + sc.Chunk.DocumentId.String(),
				Content: sc.Chunk.Content,
			},
			Score:  &similarity,
			Origin: store.OriginSecondary,
		})
	}
	return hits, nil
}

// threadHistorySource serves conversation history, preferring the
// in-memory cache and falling back to the database.
type threadHistorySource struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.ConversationRepository
}

func (s *threadHistorySource) ListRecent(ctx context.Context, threadID string, limit int) ([]llm.Message, error) {
	if cached, found := s.cache.Get(threadID); found {
		if len(cached) > limit {
			cached = cached[len(cached)-limit:]
		}
		return cached, nil
	}

	tid, err := uuid.Parse(threadID)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	entities, err := uow.ThreadMessageRepository().FindRecentByThreadId(ctx, tid, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(entities))
	for _, e := range entities {
		messages = append(messages, llm.Message{
			Role:    e.Role,
			Content: e.Content,
		})
	}
	s.cache.Save(threadID, messages)
	return messages, nil
}
