package service

import (
	"context"
	"encoding/json"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/jobstore"
	pktNats "ai-tutor-be/pkg/nats"
)

// IWorkerService drains the async ask queue, running each job through
// the same pipeline as the synchronous endpoint.
type IWorkerService interface {
	Start() error
}

type workerService struct {
	tutorService ITutorService
	subscriber   *pktNats.Subscriber
	jobs         *jobstore.Store
	logger       logger.ILogger
}

func NewWorkerService(
	tutorService ITutorService,
	subscriber *pktNats.Subscriber,
	jobs *jobstore.Store,
	log logger.ILogger,
) IWorkerService {
	return &workerService{
		tutorService: tutorService,
		subscriber:   subscriber,
		jobs:         jobs,
		logger:       log,
	}
}

func (ws *workerService) Start() error {
	return ws.subscriber.SubscribeJobs(pktNats.JobSubjectAsk, "tutor-ask-worker", ws.handleJob)
}

// handleJob returns nil for malformed payloads so they are not
// redelivered forever; real processing failures are recorded on the job
// rather than retried, since the pipeline already degrades internally.
func (ws *workerService) handleJob(ctx context.Context, data []byte) error {
	var payload dto.AskJobMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		ws.logger.Error("worker", "Failed to unmarshal job payload", map[string]interface{}{"error": err.Error()})
		return nil
	}

	ws.logger.Info("worker", "Processing ask job", map[string]interface{}{
		"job_id":     payload.JobId,
		"student_id": payload.StudentId,
	})

	if err := ws.jobs.MarkProcessing(ctx, payload.JobId); err != nil {
		ws.logger.Warn("worker", "Failed to mark job processing", map[string]interface{}{"job_id": payload.JobId, "error": err.Error()})
	}

	res, err := ws.tutorService.Ask(ctx, payload.StudentId, &dto.AskRequest{
		Question: payload.Question,
		ThreadId: payload.ThreadId,
		Context:  payload.Context,
	})
	if err != nil {
		ws.logger.Error("worker", "Ask job failed", map[string]interface{}{"job_id": payload.JobId, "error": err.Error()})
		if markErr := ws.jobs.MarkFailed(ctx, payload.JobId, err.Error()); markErr != nil {
			ws.logger.Warn("worker", "Failed to mark job failed", map[string]interface{}{"job_id": payload.JobId, "error": markErr.Error()})
		}
		return nil
	}

	if err := ws.jobs.MarkSucceeded(ctx, payload.JobId, res.Answer, res.Confidence, res.Sources); err != nil {
		ws.logger.Warn("worker", "Failed to mark job succeeded", map[string]interface{}{"job_id": payload.JobId, "error": err.Error()})
	}

	ws.logger.Info("worker", "Ask job completed", map[string]interface{}{
		"job_id":     payload.JobId,
		"confidence": res.Confidence,
	})
	return nil
}
