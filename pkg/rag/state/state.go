package state

import (
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/store"
)

// Stage tags for the orchestrator's linear pass. The macro-sequence is
// fixed; the router only decides which retrievers run inside Retrieved.
const (
	StageStart     = "START"
	StageRouted    = "ROUTED"
	StageRetrieved = "RETRIEVED"
	StageFused     = "FUSED"
	StageGenerated = "GENERATED"
	StageValidated = "VALIDATED"
	StagePersisted = "PERSISTED"
)

// RunState is the working record for one pipeline invocation. It is owned
// exclusively by that invocation; fields accumulate as stages execute and
// the whole struct is discarded once the response is produced.
type RunState struct {
	// Input
	Question  string
	StudentID string
	Context   map[string]any
	ThreadID  string

	// Conversation history, append-only. Only the trailing window is
	// handed to the model at call time.
	Messages []llm.Message

	// Retrieval results per sub-retriever
	RetrievedDocs    []store.Hit
	GraphResults     []store.Hit
	SecondaryResults []store.Hit

	// Fusion output
	FusedContext string
	Sources      []store.Source

	// Generation / validation output. Fallback marks an answer produced
	// by a degradation path rather than the model; such answers never
	// become conversation history.
	Answer     string
	Fallback   bool
	Confidence float64

	// Metadata
	QuestionType       string
	RetrievalCount     int
	GenerationAttempts int
}

// New initializes a RunState with the user's question as the first message.
func New(question, studentID string, ctx map[string]any, threadID string) *RunState {
	if ctx == nil {
		ctx = map[string]any{}
	}
	return &RunState{
		Question:  question,
		StudentID: studentID,
		Context:   ctx,
		ThreadID:  threadID,
		Messages:  []llm.Message{{Role: "user", Content: question}},
	}
}

// Snapshot is the caller-facing view of a RunState after a stage completes.
// Streaming mode emits one snapshot per stage instead of materializing the
// full state history.
type Snapshot struct {
	Stage              string         `json:"stage"`
	QuestionType       string         `json:"question_type,omitempty"`
	RetrievalCount     int            `json:"retrieval_count"`
	Answer             string         `json:"answer,omitempty"`
	Confidence         float64        `json:"confidence"`
	Sources            []store.Source `json:"sources,omitempty"`
	GenerationAttempts int            `json:"generation_attempts"`
}

// Snapshot projects the current state for a completed stage.
func (s *RunState) Snapshot(stage string) Snapshot {
	return Snapshot{
		Stage:              stage,
		QuestionType:       s.QuestionType,
		RetrievalCount:     s.RetrievalCount,
		Answer:             s.Answer,
		Confidence:         s.Confidence,
		Sources:            s.Sources,
		GenerationAttempts: s.GenerationAttempts,
	}
}
