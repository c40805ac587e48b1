package generation

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/llm"
)

type stubLLM struct {
	answer   string
	err      error
	received []llm.Message
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.received = history
	return s.answer, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.answer, s.err
}

func newTestGenerator(stub *stubLLM) *Generator {
	return NewGenerator(stub, log.New(io.Discard, "", 0))
}

func TestGenerateBuildsChat(t *testing.T) {
	stub := &stubLLM{answer: "Water boils at 100C."}
	g := newTestGenerator(stub)

	out := g.Generate(context.Background(), "At what temperature does water boil?", "Water boils at 100C at sea level.", nil)

	if out.Fallback {
		t.Fatal("unexpected fallback")
	}
	if out.Answer != stub.answer {
		t.Errorf("Answer = %q, want %q", out.Answer, stub.answer)
	}

	msgs := stub.received
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].Role != constant.ChatMessageRoleSystem || msgs[0].Content != constant.TutorSystemPrompt {
		t.Errorf("first message is not the system prompt: %+v", msgs[0])
	}
	if !strings.HasPrefix(msgs[1].Content, "Context:\n") {
		t.Errorf("second message does not carry the context: %q", msgs[1].Content)
	}
	if msgs[2].Role != constant.ChatMessageRoleUser || msgs[2].Content != "At what temperature does water boil?" {
		t.Errorf("last message is not the question: %+v", msgs[2])
	}
}

func TestGenerateOmitsEmptyContext(t *testing.T) {
	stub := &stubLLM{answer: "ok"}
	g := newTestGenerator(stub)

	g.Generate(context.Background(), "hello", "", nil)

	for _, m := range stub.received {
		if strings.HasPrefix(m.Content, "Context:") {
			t.Errorf("context message present despite empty context: %q", m.Content)
		}
	}
}

func TestGenerateTrailingWindow(t *testing.T) {
	stub := &stubLLM{answer: "ok"}
	g := newTestGenerator(stub)

	var history []llm.Message
	for i := 0; i < constant.HistoryWindow+4; i++ {
		history = append(history, llm.Message{Role: constant.ChatMessageRoleUser, Content: strings.Repeat("x", i+1)})
	}

	g.Generate(context.Background(), "new question", "ctx", history)

	// system + context + window + question
	want := 2 + constant.HistoryWindow + 1
	if len(stub.received) != want {
		t.Fatalf("got %d messages, want %d", len(stub.received), want)
	}

	first := stub.received[2]
	wantFirst := history[len(history)-constant.HistoryWindow]
	if first.Content != wantFirst.Content {
		t.Errorf("window starts at %q, want %q", first.Content, wantFirst.Content)
	}
}

func TestGenerateDoesNotRepeatQuestion(t *testing.T) {
	stub := &stubLLM{answer: "ok"}
	g := newTestGenerator(stub)

	history := []llm.Message{
		{Role: constant.ChatMessageRoleUser, Content: "same question"},
	}

	g.Generate(context.Background(), "same question", "", history)

	count := 0
	for _, m := range stub.received {
		if m.Content == "same question" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("question appears %d times, want 1", count)
	}
}

func TestGenerateFallbackOnError(t *testing.T) {
	stub := &stubLLM{err: errors.New("model unavailable")}
	g := newTestGenerator(stub)

	out := g.Generate(context.Background(), "question", "ctx", nil)

	if !out.Fallback {
		t.Fatal("expected fallback output")
	}
	if !strings.HasPrefix(out.Answer, constant.GenerationFallbackPrefix) {
		t.Errorf("Answer = %q, want fallback prefix", out.Answer)
	}
	if !strings.Contains(out.Answer, "model unavailable") {
		t.Errorf("Answer = %q, want embedded error text", out.Answer)
	}
}
