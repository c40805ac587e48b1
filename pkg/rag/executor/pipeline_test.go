package executor

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

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

type fakeClassifier struct{ tier string }

func (f *fakeClassifier) Classify(ctx context.Context, question string, _ map[string]any) router.Decision {
	return router.Decision{QuestionType: f.tier, Tier: f.tier}
}

type fakeSemantic struct {
	hits   []store.Hit
	called bool
}

func (f *fakeSemantic) Retrieve(ctx context.Context, question string) []store.Hit {
	f.called = true
	return f.hits
}

type fakeGraph struct {
	hits   []store.Hit
	called bool
	seeds  []store.Hit
}

func (f *fakeGraph) Retrieve(ctx context.Context, seeds []store.Hit) []store.Hit {
	f.called = true
	f.seeds = seeds
	return f.hits
}

type fakeSecondary struct {
	enabled bool
	hits    []store.Hit
	called  bool
}

func (f *fakeSecondary) Enabled() bool { return f.enabled }
func (f *fakeSecondary) Retrieve(ctx context.Context, question string) []store.Hit {
	f.called = true
	return f.hits
}

type fakeFuser struct{ result fusion.Result }

func (f *fakeFuser) Fuse(semantic, graph, secondary []store.Hit) fusion.Result {
	return f.result
}

type fakeGenerator struct {
	answer   string
	fallback bool
	panics   bool
	history  []llm.Message
}

func (f *fakeGenerator) Generate(ctx context.Context, question, fusedContext string, history []llm.Message) generation.Output {
	if f.panics {
		panic("generator exploded")
	}
	f.history = history
	return generation.Output{Answer: f.answer, Fallback: f.fallback}
}

type fakeValidator struct {
	confidence float64
	hits       []store.Hit
}

func (f *fakeValidator) Validate(answer, fusedContext string, sources []store.Source, hits []store.Hit) validation.Result {
	f.hits = hits
	return validation.Result{Confidence: f.confidence, Sources: sources}
}

type fakeRecorder struct {
	records []persistence.Record
}

func (f *fakeRecorder) Persist(ctx context.Context, rec persistence.Record) bool {
	f.records = append(f.records, rec)
	return true
}

type fakeHistory struct{ messages []llm.Message }

func (f *fakeHistory) Load(ctx context.Context, threadID string) []llm.Message {
	return f.messages
}

type fixture struct {
	classifier *fakeClassifier
	semantic   *fakeSemantic
	graph      *fakeGraph
	secondary  *fakeSecondary
	fuser      *fakeFuser
	generator  *fakeGenerator
	validator  *fakeValidator
	recorder   *fakeRecorder
	history    *fakeHistory
	pipeline   *Pipeline
}

func newFixture(tier string) *fixture {
	f := &fixture{
		classifier: &fakeClassifier{tier: tier},
		semantic:   &fakeSemantic{},
		graph:      &fakeGraph{},
		secondary:  &fakeSecondary{enabled: true},
		fuser:      &fakeFuser{},
		generator:  &fakeGenerator{answer: "the answer"},
		validator:  &fakeValidator{confidence: 0.8},
		recorder:   &fakeRecorder{},
		history:    &fakeHistory{},
	}
	f.pipeline = NewPipeline(
		f.classifier, f.semantic, f.graph, f.secondary,
		f.fuser, f.generator, f.validator, f.recorder, f.history,
		log.New(io.Discard, "", 0),
	)
	return f
}

func sampleHit(id string) store.Hit {
	score := 0.9
	return store.Hit{Node: store.Node{ID: id, Content: "content " + id}, Score: &score, Origin: store.OriginSemantic}
}

func TestExecuteSimpleSkipsGraphAndSecondary(t *testing.T) {
	f := newFixture(constant.TierSimple)
	f.semantic.hits = []store.Hit{sampleHit("s1")}

	st := f.pipeline.Execute(context.Background(), state.New("Define atom", "student-1", nil, ""))

	if !f.semantic.called {
		t.Error("semantic retrieval not called")
	}
	if f.graph.called {
		t.Error("graph retrieval called for simple tier")
	}
	if f.secondary.called {
		t.Error("secondary retrieval called for simple tier")
	}
	if st.RetrievalCount != 1 {
		t.Errorf("RetrievalCount = %d, want 1", st.RetrievalCount)
	}
	if st.Answer != "the answer" {
		t.Errorf("Answer = %q", st.Answer)
	}
}

func TestExecuteComplexRunsGraph(t *testing.T) {
	f := newFixture(constant.TierComplex)
	f.semantic.hits = []store.Hit{sampleHit("s1"), sampleHit("s2")}
	f.graph.hits = []store.Hit{sampleHit("g1")}

	st := f.pipeline.Execute(context.Background(), state.New("Explain gravity", "student-1", nil, ""))

	if !f.graph.called {
		t.Error("graph retrieval not called for complex tier")
	}
	if len(f.graph.seeds) != 2 {
		t.Errorf("graph seeded with %d hits, want 2", len(f.graph.seeds))
	}
	if f.secondary.called {
		t.Error("secondary retrieval called for complex tier")
	}
	if st.RetrievalCount != 2 {
		t.Errorf("RetrievalCount = %d, want 2 attempts", st.RetrievalCount)
	}
}

func TestExecuteCountsRetrievalAttemptsNotHits(t *testing.T) {
	tests := []struct {
		name string
		tier string
		want int
	}{
		{name: "simple", tier: constant.TierSimple, want: 1},
		{name: "complex", tier: constant.TierComplex, want: 2},
		{name: "multi hop", tier: constant.TierMultiHop, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// every retriever comes back empty, as when the store is down
			f := newFixture(tt.tier)

			st := f.pipeline.Execute(context.Background(), state.New("Define atom", "student-1", nil, ""))

			if st.RetrievalCount != tt.want {
				t.Errorf("RetrievalCount = %d, want %d", st.RetrievalCount, tt.want)
			}
		})
	}
}

func TestExecuteMultiHopRunsAllRetrievers(t *testing.T) {
	f := newFixture(constant.TierMultiHop)
	f.semantic.hits = []store.Hit{sampleHit("s1")}
	f.graph.hits = []store.Hit{sampleHit("g1")}
	f.secondary.hits = []store.Hit{sampleHit("d1")}

	st := f.pipeline.Execute(context.Background(), state.New("How to study calculus", "student-1", nil, ""))

	if !f.graph.called || !f.secondary.called {
		t.Error("multi-hop should run graph and secondary retrieval")
	}
	if st.RetrievalCount != 3 {
		t.Errorf("RetrievalCount = %d, want 3", st.RetrievalCount)
	}

	// All hits reach the validator.
	if len(f.validator.hits) != 3 {
		t.Errorf("validator saw %d hits, want 3", len(f.validator.hits))
	}
}

func TestExecuteMultiHopHonorsDisabledSecondary(t *testing.T) {
	f := newFixture(constant.TierMultiHop)
	f.secondary.enabled = false

	f.pipeline.Execute(context.Background(), state.New("How to study calculus", "student-1", nil, ""))

	if f.secondary.called {
		t.Error("disabled secondary retriever was still called")
	}
}

func TestExecutePersistsInteraction(t *testing.T) {
	f := newFixture(constant.TierSimple)
	f.fuser.result = fusion.Result{
		Context: "ctx",
		Sources: []store.Source{{ID: "k1"}},
	}

	f.pipeline.Execute(context.Background(), state.New("Define atom", "student-1", nil, ""))

	if len(f.recorder.records) != 1 {
		t.Fatalf("got %d persisted records, want 1", len(f.recorder.records))
	}
	rec := f.recorder.records[0]
	if rec.StudentID != "student-1" || rec.Question != "Define atom" || rec.Answer != "the answer" {
		t.Errorf("persisted record = %+v", rec)
	}
	if rec.Confidence != 0.8 || rec.QuestionType != constant.TierSimple {
		t.Errorf("persisted metadata = %+v", rec)
	}
}

func TestExecuteStreamEmitsStagesInOrder(t *testing.T) {
	f := newFixture(constant.TierComplex)

	var stages []string
	f.pipeline.ExecuteStream(context.Background(), state.New("Explain gravity", "student-1", nil, ""), func(s state.Snapshot) {
		stages = append(stages, s.Stage)
	})

	want := []string{
		state.StageStart, state.StageRouted, state.StageRetrieved,
		state.StageFused, state.StageGenerated, state.StageValidated, state.StagePersisted,
	}
	if len(stages) != len(want) {
		t.Fatalf("got stages %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage %d = %q, want %q", i, stages[i], want[i])
		}
	}
}

func TestExecutePrependsThreadHistory(t *testing.T) {
	f := newFixture(constant.TierSimple)
	f.history.messages = []llm.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}

	st := f.pipeline.Execute(context.Background(), state.New("follow-up", "student-1", nil, "thread-1"))

	// prior two + current question reach the generator
	if len(f.generator.history) != 3 {
		t.Fatalf("generator saw %d messages, want 3", len(f.generator.history))
	}
	if f.generator.history[0].Content != "earlier question" {
		t.Errorf("history not prepended: %+v", f.generator.history)
	}

	// the produced answer is appended afterwards
	last := st.Messages[len(st.Messages)-1]
	if last.Role != constant.ChatMessageRoleModel || last.Content != "the answer" {
		t.Errorf("final message = %+v", last)
	}
}

func TestExecuteFallbackAnswerStaysOutOfHistory(t *testing.T) {
	f := newFixture(constant.TierSimple)
	f.generator.answer = constant.GenerationFallbackPrefix + "boom"
	f.generator.fallback = true

	st := f.pipeline.Execute(context.Background(), state.New("Define atom", "student-1", nil, ""))

	if !st.Fallback {
		t.Error("Fallback flag not propagated to state")
	}
	if st.Answer != constant.GenerationFallbackPrefix+"boom" {
		t.Errorf("Answer = %q", st.Answer)
	}
	last := st.Messages[len(st.Messages)-1]
	if last.Role != constant.ChatMessageRoleUser || last.Content != "Define atom" {
		t.Errorf("fallback answer appended to history: %+v", last)
	}
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	f := newFixture(constant.TierSimple)
	f.generator.panics = true

	var stages []string
	st := f.pipeline.ExecuteStream(context.Background(), state.New("Define atom", "student-1", nil, ""), func(s state.Snapshot) {
		stages = append(stages, s.Stage)
	})

	if !strings.HasPrefix(st.Answer, constant.PipelineFallbackPrefix) {
		t.Errorf("Answer = %q, want degraded prefix", st.Answer)
	}
	if !st.Fallback {
		t.Error("recovered state not marked as fallback")
	}
	if st.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", st.Confidence)
	}
	if st.Sources != nil {
		t.Errorf("Sources = %+v, want nil", st.Sources)
	}
	if len(stages) == 0 || stages[len(stages)-1] != state.StageValidated {
		t.Errorf("final emitted stage = %v, want VALIDATED", stages)
	}
}
