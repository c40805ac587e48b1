package router

import (
	"context"
	"log"
	"strings"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/llm"
)

// Multi-hop indicators: prerequisites, ordering, comparison, procedure.
var multiHopKeywords = []string{
	"prerequisite", "prerequisites", "before", "after", "next",
	"related to", "similar to", "compare", "difference between",
	"how to", "step by step", "process", "workflow",
}

// Complex indicators: explanation, analysis, causal or pros/cons phrasing.
var complexKeywords = []string{
	"why", "explain", "describe", "analyze", "evaluate",
	"what are", "what is", "how does", "what causes",
	"advantages", "disadvantages", "pros and cons",
}

// Decision is the router's output: the complexity tier plus the tag echoed
// back to the caller.
type Decision struct {
	QuestionType string
	Tier         string
}

// Router classifies a question into a complexity tier. When an LLM
// classifier is configured it is tried first and the rules are the
// fallback; classification never fails past this boundary.
type Router struct {
	llmProvider llm.LLMProvider // nil disables LLM classification
	useLLM      bool
	logger      *log.Logger
}

func NewRouter(logger *log.Logger) *Router {
	return &Router{logger: logger}
}

// NewLLMRouter enables the LLM classifier on top of the rule set.
func NewLLMRouter(llmProvider llm.LLMProvider, logger *log.Logger) *Router {
	return &Router{
		llmProvider: llmProvider,
		useLLM:      llmProvider != nil,
		logger:      logger,
	}
}

// Classify never returns an error: any internal failure defaults to the
// simple tier, the cheapest path.
func (r *Router) Classify(ctx context.Context, question string, _ map[string]any) Decision {
	tier := constant.TierSimple

	if r.useLLM {
		tier = r.classifyWithLLM(ctx, question)
	} else {
		tier = ClassifyQuestion(question)
	}

	r.logger.Printf("[ROUTER] Question classified as: %s", tier)
	return Decision{QuestionType: tier, Tier: tier}
}

// ClassifyQuestion applies the rule set in strict precedence order; the
// first matching rule wins.
func ClassifyQuestion(question string) string {
	lower := strings.ToLower(question)

	for _, keyword := range multiHopKeywords {
		if strings.Contains(lower, keyword) {
			return constant.TierMultiHop
		}
	}

	for _, keyword := range complexKeywords {
		if strings.Contains(lower, keyword) {
			return constant.TierComplex
		}
	}

	// Longer questions tend to be more complex
	if len(strings.Fields(question)) > constant.ComplexWordThreshold {
		return constant.TierComplex
	}

	if strings.Count(question, "?") > 1 ||
		strings.Contains(lower, " and ") ||
		strings.Contains(lower, " or ") {
		return constant.TierComplex
	}

	return constant.TierSimple
}

const classifierPrompt = `Classify this question into one of three categories:
- simple: Can be answered with a direct fact or definition
- complex: Requires explanation or analysis
- multi_hop: Requires multiple steps, prerequisites, or related concepts

Question: %s

Respond with only one word: simple, complex, or multi_hop`

// classifyWithLLM asks the model for a tier, accepting only the three
// canonical labels. A transport error falls back to the rule-based
// result; a non-canonical label defaults to simple.
func (r *Router) classifyWithLLM(ctx context.Context, question string) string {
	prompt := strings.Replace(classifierPrompt, "%s", question, 1)

	response, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		r.logger.Printf("[WARN] LLM classification failed: %v, using rule-based", err)
		return ClassifyQuestion(question)
	}

	label := strings.ToLower(strings.TrimSpace(response))
	switch label {
	case constant.TierSimple, constant.TierComplex, constant.TierMultiHop:
		return label
	}

	r.logger.Printf("[WARN] LLM classifier returned %q, defaulting to simple", label)
	return constant.TierSimple
}
