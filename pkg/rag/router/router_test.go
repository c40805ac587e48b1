package router

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/llm"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestClassifyQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{
			name:     "direct fact lookup",
			question: "Define photosynthesis",
			want:     constant.TierSimple,
		},
		{
			name:     "short question mark only",
			question: "Name the largest planet?",
			want:     constant.TierSimple,
		},
		{
			name:     "prerequisite keyword",
			question: "What math is a prerequisite for calculus",
			want:     constant.TierMultiHop,
		},
		{
			name:     "comparison keyword",
			question: "Compare mitosis with meiosis",
			want:     constant.TierMultiHop,
		},
		{
			name:     "procedural keyword",
			question: "how to balance a chemical equation",
			want:     constant.TierMultiHop,
		},
		{
			name:     "why question",
			question: "Why does ice float",
			want:     constant.TierComplex,
		},
		{
			name:     "explain keyword",
			question: "Explain gravity",
			want:     constant.TierComplex,
		},
		{
			name:     "multi-hop wins over complex",
			question: "Why is algebra a prerequisite for calculus",
			want:     constant.TierMultiHop,
		},
		{
			name:     "long question without keywords",
			question: "In a distant galaxy far away from our own there lived many tiny green creatures on a very small planet",
			want:     constant.TierComplex,
		},
		{
			name:     "multiple question marks",
			question: "Is it raining? Is it snowing?",
			want:     constant.TierComplex,
		},
		{
			name:     "conjunction or",
			question: "Is light a wave or a particle",
			want:     constant.TierComplex,
		},
		{
			name:     "keyword is case-insensitive",
			question: "EXPLAIN the seasons",
			want:     constant.TierComplex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyQuestion(tt.question)
			if got != tt.want {
				t.Errorf("ClassifyQuestion(%q) = %q, want %q", tt.question, got, tt.want)
			}
		})
	}
}

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func TestClassifyWithLLM(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		question string
		want     string
	}{
		{
			name:     "accepts canonical label",
			response: "multi_hop",
			question: "Define atom",
			want:     constant.TierMultiHop,
		},
		{
			name:     "normalizes case and whitespace",
			response: "  Complex \n",
			question: "Define atom",
			want:     constant.TierComplex,
		},
		{
			// the rules would say complex here; a non-canonical label
			// must default to simple instead
			name:     "unknown label defaults to simple",
			response: "definitely a complicated one",
			question: "Explain gravity",
			want:     constant.TierSimple,
		},
		{
			name:     "transport error falls back to rules",
			err:      errors.New("connection refused"),
			question: "Define atom",
			want:     constant.TierSimple,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewLLMRouter(&stubLLM{response: tt.response, err: tt.err}, discardLogger())
			got := r.Classify(context.Background(), tt.question, nil)
			if got.Tier != tt.want {
				t.Errorf("Classify(%q).Tier = %q, want %q", tt.question, got.Tier, tt.want)
			}
			if got.QuestionType != got.Tier {
				t.Errorf("QuestionType %q does not echo Tier %q", got.QuestionType, got.Tier)
			}
		})
	}
}

func TestClassifyNeverErrors(t *testing.T) {
	r := NewRouter(discardLogger())
	got := r.Classify(context.Background(), "", nil)
	if got.Tier != constant.TierSimple {
		t.Errorf("empty question classified as %q, want simple", got.Tier)
	}
}
