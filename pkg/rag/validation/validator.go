// Package validation scores the generated answer and trims the source
// list to the response bound.
package validation

import (
	"log"
	"math"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/store"
)

// Validator computes an additive confidence score from answer shape,
// context size and retrieval quality. It never rejects an answer; low
// confidence is surfaced to the caller, not acted on here.
type Validator struct {
	logger *log.Logger
}

func NewValidator(logger *log.Logger) *Validator {
	return &Validator{logger: logger}
}

// Result carries the confidence plus the response-facing source list.
type Result struct {
	Confidence float64
	Sources    []store.Source
}

// Validate scores the answer and caps sources at the response limit.
// Hits without a score are excluded from the mean, not counted as zero.
func (v *Validator) Validate(answer, fusedContext string, sources []store.Source, hits []store.Hit) Result {
	confidence := constant.ConfidenceBase

	if len(answer) > constant.AnswerMinLength {
		confidence += constant.ConfidenceAnswerBonus
	}
	if len(answer) < constant.AnswerMaxLength {
		confidence += constant.ConfidenceLengthBonus
	}
	if len(fusedContext) > constant.ContextMinLength {
		confidence += constant.ConfidenceContextBonus
	}

	var sum float64
	var scored int
	for _, hit := range hits {
		if hit.Score == nil {
			continue
		}
		sum += *hit.Score
		scored++
	}
	if scored > 0 {
		mean := sum / float64(scored)
		confidence += math.Min(mean*constant.ConfidenceScoreCap, constant.ConfidenceScoreCap)
	}

	if len(sources) >= constant.MinSourcesForBonus {
		confidence += constant.ConfidenceSourcesBonus
	}

	confidence = math.Max(0, math.Min(1, confidence))

	trimmed := sources
	if len(trimmed) > constant.MaxResponseSources {
		trimmed = trimmed[:constant.MaxResponseSources]
	}

	v.logger.Printf("[VALIDATION] Confidence %.2f with %d sources", confidence, len(trimmed))
	return Result{
		Confidence: confidence,
		Sources:    trimmed,
	}
}
