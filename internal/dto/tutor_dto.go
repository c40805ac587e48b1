package dto

import (
	"time"

	"github.com/google/uuid"

	"ai-tutor-be/pkg/store"
)

type AskRequest struct {
	Question string                 `json:"question" validate:"required,min=1,max=4000"`
	ThreadId *uuid.UUID             `json:"thread_id,omitempty"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

type AskResponse struct {
	Answer             string         `json:"answer"`
	Confidence         float64        `json:"confidence"`
	QuestionType       string         `json:"question_type"`
	RetrievalCount     int            `json:"retrieval_count"`
	GenerationAttempts int            `json:"generation_attempts"`
	Sources            []store.Source `json:"sources"`
	ThreadId           uuid.UUID      `json:"thread_id"`
	InteractionId      string         `json:"interaction_id"`
}

type AskAsyncResponse struct {
	JobId  string `json:"job_id"`
	Status string `json:"status"`
}

type JobStatusResponse struct {
	JobId      string         `json:"job_id"`
	Status     string         `json:"status"`
	Answer     string         `json:"answer,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Sources    []store.Source `json:"sources,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type ThreadMessageResponse struct {
	Id         uuid.UUID      `json:"id"`
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Confidence *float64       `json:"confidence,omitempty"`
	Sources    []store.Source `json:"sources,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AskJobMessage is the payload placed on the job stream for the worker.
type AskJobMessage struct {
	JobId     string                 `json:"job_id"`
	StudentId string                 `json:"student_id"`
	Question  string                 `json:"question"`
	ThreadId  *uuid.UUID             `json:"thread_id,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}
