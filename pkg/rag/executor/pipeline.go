// Package executor orchestrates the tutoring pipeline: route, retrieve,
// fuse, generate, validate, persist. The macro-sequence is fixed; the
// router only decides which retrievers run.
package executor

import (
	"context"
	"fmt"
	"log"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/rag/fusion"
	"ai-tutor-be/pkg/rag/generation"
	"ai-tutor-be/pkg/rag/persistence"
	"ai-tutor-be/pkg/rag/router"
	"ai-tutor-be/pkg/rag/state"
	"ai-tutor-be/pkg/rag/validation"
	"ai-tutor-be/pkg/store"
)

// Stage interfaces. Each concrete component lives in its own package;
// the pipeline only sees these surfaces.
type (
	Classifier interface {
		Classify(ctx context.Context, question string, studentContext map[string]any) router.Decision
	}
	SemanticSearcher interface {
		Retrieve(ctx context.Context, question string) []store.Hit
	}
	GraphExpander interface {
		Retrieve(ctx context.Context, seeds []store.Hit) []store.Hit
	}
	SecondarySearcher interface {
		Enabled() bool
		Retrieve(ctx context.Context, question string) []store.Hit
	}
	ContextFuser interface {
		Fuse(semantic, graph, secondary []store.Hit) fusion.Result
	}
	AnswerGenerator interface {
		Generate(ctx context.Context, question, fusedContext string, history []llm.Message) generation.Output
	}
	AnswerValidator interface {
		Validate(answer, fusedContext string, sources []store.Source, hits []store.Hit) validation.Result
	}
	InteractionRecorder interface {
		Persist(ctx context.Context, rec persistence.Record) bool
	}
	HistoryLoader interface {
		Load(ctx context.Context, threadID string) []llm.Message
	}
)

// EmitFunc receives one snapshot per completed stage. Streaming callers
// forward snapshots to the client; sync callers pass nil.
type EmitFunc func(state.Snapshot)

// Pipeline is the orchestrator. Individual stage failures degrade inside
// the stage components; the pipeline itself only guards against panics.
type Pipeline struct {
	classifier Classifier
	semantic   SemanticSearcher
	graph      GraphExpander
	secondary  SecondarySearcher
	fuser      ContextFuser
	generator  AnswerGenerator
	validator  AnswerValidator
	recorder   InteractionRecorder
	history    HistoryLoader
	logger     *log.Logger
}

func NewPipeline(
	classifier Classifier,
	semantic SemanticSearcher,
	graph GraphExpander,
	secondary SecondarySearcher,
	fuser ContextFuser,
	generator AnswerGenerator,
	validator AnswerValidator,
	recorder InteractionRecorder,
	history HistoryLoader,
	logger *log.Logger,
) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		semantic:   semantic,
		graph:      graph,
		secondary:  secondary,
		fuser:      fuser,
		generator:  generator,
		validator:  validator,
		recorder:   recorder,
		history:    history,
		logger:     logger,
	}
}

// Execute runs the full pipeline synchronously.
func (p *Pipeline) Execute(ctx context.Context, st *state.RunState) *state.RunState {
	return p.ExecuteStream(ctx, st, nil)
}

// ExecuteStream runs the pipeline, emitting a snapshot after every stage.
// A panic anywhere inside produces the degraded response instead of
// propagating.
func (p *Pipeline) ExecuteStream(ctx context.Context, st *state.RunState, emit EmitFunc) (result *state.RunState) {
	result = st
	defer func() {
		if r := recover(); r != nil {
			p.logger.Printf("[ERROR] Pipeline panicked: %v", r)
			st.Answer = constant.PipelineFallbackPrefix + fmt.Sprint(r)
			st.Fallback = true
			st.Confidence = 0
			st.Sources = nil
			if emit != nil {
				emit(st.Snapshot(state.StageValidated))
			}
		}
	}()

	notify := func(stage string) {
		if emit != nil {
			emit(st.Snapshot(stage))
		}
	}

	p.logger.Printf("[PIPELINE] Start for student %s: %s", st.StudentID, truncate(st.Question, 50))
	notify(state.StageStart)

	decision := p.classifier.Classify(ctx, st.Question, st.Context)
	st.QuestionType = decision.QuestionType
	notify(state.StageRouted)

	if p.history != nil && st.ThreadID != "" {
		if prior := p.history.Load(ctx, st.ThreadID); len(prior) > 0 {
			st.Messages = append(prior, st.Messages...)
		}
	}

	// RetrievalCount counts attempts, not hits. A retriever that comes
	// back empty or degraded still increments the counter.
	st.RetrievedDocs = p.semantic.Retrieve(ctx, st.Question)
	st.RetrievalCount++
	if decision.Tier != constant.TierSimple {
		st.GraphResults = p.graph.Retrieve(ctx, st.RetrievedDocs)
		st.RetrievalCount++
	}
	if decision.Tier == constant.TierMultiHop && p.secondary != nil && p.secondary.Enabled() {
		st.SecondaryResults = p.secondary.Retrieve(ctx, st.Question)
		st.RetrievalCount++
	}
	notify(state.StageRetrieved)

	fused := p.fuser.Fuse(st.RetrievedDocs, st.GraphResults, st.SecondaryResults)
	st.FusedContext = fused.Context
	st.Sources = fused.Sources
	notify(state.StageFused)

	out := p.generator.Generate(ctx, st.Question, st.FusedContext, st.Messages)
	st.Answer = out.Answer
	st.Fallback = out.Fallback
	st.GenerationAttempts++
	// A fallback apology must not become a prior turn for the next
	// generation.
	if !out.Fallback {
		st.Messages = append(st.Messages, llm.Message{
			Role:    constant.ChatMessageRoleModel,
			Content: st.Answer,
		})
	}
	notify(state.StageGenerated)

	hits := make([]store.Hit, 0, len(st.RetrievedDocs)+len(st.GraphResults)+len(st.SecondaryResults))
	hits = append(hits, st.RetrievedDocs...)
	hits = append(hits, st.GraphResults...)
	hits = append(hits, st.SecondaryResults...)

	verdict := p.validator.Validate(st.Answer, st.FusedContext, st.Sources, hits)
	st.Confidence = verdict.Confidence
	st.Sources = verdict.Sources
	notify(state.StageValidated)

	if p.recorder != nil {
		p.recorder.Persist(ctx, persistence.Record{
			StudentID:    st.StudentID,
			Question:     st.Question,
			Answer:       st.Answer,
			Confidence:   st.Confidence,
			QuestionType: st.QuestionType,
			Sources:      st.Sources,
		})
	}
	notify(state.StagePersisted)

	p.logger.Printf("[PIPELINE] Done: type=%s retrieved=%d confidence=%.2f",
		st.QuestionType, st.RetrievalCount, st.Confidence)
	return st
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
