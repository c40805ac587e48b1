package validation

import (
	"io"
	"log"
	"math"
	"strings"
	"testing"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/store"
)

func scored(score float64) store.Hit {
	return store.Hit{Score: &score}
}

func sources(n int) []store.Source {
	out := make([]store.Source, n)
	for i := range out {
		out[i] = store.Source{ID: "src"}
	}
	return out
}

func TestValidateConfidence(t *testing.T) {
	longAnswer := strings.Repeat("a", constant.AnswerMinLength+10)
	longContext := strings.Repeat("c", constant.ContextMinLength+10)

	tests := []struct {
		name    string
		answer  string
		context string
		sources []store.Source
		hits    []store.Hit
		want    float64
	}{
		{
			name:   "empty answer keeps base plus length bonus",
			answer: "",
			want:   constant.ConfidenceBase + constant.ConfidenceLengthBonus,
		},
		{
			name:    "substantial answer with context",
			answer:  longAnswer,
			context: longContext,
			want:    constant.ConfidenceBase + constant.ConfidenceAnswerBonus + constant.ConfidenceLengthBonus + constant.ConfidenceContextBonus,
		},
		{
			name:   "retrieval score contributes proportionally",
			answer: longAnswer,
			hits:   []store.Hit{scored(0.5)},
			want:   constant.ConfidenceBase + constant.ConfidenceAnswerBonus + constant.ConfidenceLengthBonus + 0.5*constant.ConfidenceScoreCap,
		},
		{
			name:   "unscored hits are excluded from the mean",
			answer: longAnswer,
			hits:   []store.Hit{{Score: nil}, scored(1.0)},
			want:   constant.ConfidenceBase + constant.ConfidenceAnswerBonus + constant.ConfidenceLengthBonus + constant.ConfidenceScoreCap,
		},
		{
			name:    "source count bonus",
			answer:  longAnswer,
			sources: sources(constant.MinSourcesForBonus),
			want:    constant.ConfidenceBase + constant.ConfidenceAnswerBonus + constant.ConfidenceLengthBonus + constant.ConfidenceSourcesBonus,
		},
		{
			name:    "everything maxed clamps to one",
			answer:  longAnswer,
			context: longContext,
			sources: sources(5),
			hits:    []store.Hit{scored(1.0), scored(1.0)},
			want:    1.0,
		},
		{
			name:   "oversized answer loses length bonus",
			answer: strings.Repeat("a", constant.AnswerMaxLength+1),
			want:   constant.ConfidenceBase + constant.ConfidenceAnswerBonus,
		},
	}

	v := NewValidator(log.New(io.Discard, "", 0))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.answer, tt.context, tt.sources, tt.hits)
			if math.Abs(res.Confidence-tt.want) > 1e-9 {
				t.Errorf("Confidence = %v, want %v", res.Confidence, tt.want)
			}
		})
	}
}

func TestValidateTrimsSources(t *testing.T) {
	v := NewValidator(log.New(io.Discard, "", 0))

	res := v.Validate("answer", "", sources(constant.MaxResponseSources+3), nil)

	if got := len(res.Sources); got != constant.MaxResponseSources {
		t.Errorf("got %d sources, want %d", got, constant.MaxResponseSources)
	}
}

func TestValidateKeepsSmallSourceList(t *testing.T) {
	v := NewValidator(log.New(io.Discard, "", 0))

	res := v.Validate("answer", "", sources(2), nil)

	if got := len(res.Sources); got != 2 {
		t.Errorf("got %d sources, want 2", got)
	}
}
