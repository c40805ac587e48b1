// Package generation produces the tutor's answer from the fused context
// and the conversation history.
package generation

import (
	"context"
	"fmt"
	"log"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/llm"
)

// Generator drives the language model. Generation never fails upward: a
// model error yields a deterministic fallback answer that embeds the
// error text, so validation and persistence still run.
type Generator struct {
	llmProvider   lm
	systemPrompt  string
	historyWindow int
	logger        *log.Logger
}

// lm is the minimal model surface the generator needs.
type lm interface {
	Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error)
}

func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider:   llmProvider,
		systemPrompt:  constant.TutorSystemPrompt,
		historyWindow: constant.HistoryWindow,
		logger:        logger,
	}
}

// Output carries the answer plus whether it came from the model or the
// fallback path.
type Output struct {
	Answer   string
	Fallback bool
}

// Generate builds the chat from system prompt, fused context, trailing
// history window and the question, and asks the model.
func (g *Generator) Generate(ctx context.Context, question, fusedContext string, history []llm.Message) Output {
	messages := make([]llm.Message, 0, g.historyWindow+3)
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: g.systemPrompt,
	})

	if fusedContext != "" {
		messages = append(messages, llm.Message{
			Role:    constant.ChatMessageRoleSystem,
			Content: fmt.Sprintf("Context:\n%s", fusedContext),
		})
	}

	// Only the trailing window of the conversation reaches the model.
	window := history
	if len(window) > g.historyWindow {
		window = window[len(window)-g.historyWindow:]
	}
	messages = append(messages, window...)

	last := ""
	if len(window) > 0 {
		last = window[len(window)-1].Content
	}
	if last != question {
		messages = append(messages, llm.Message{
			Role:    constant.ChatMessageRoleUser,
			Content: question,
		})
	}

	answer, err := g.llmProvider.Chat(ctx, messages)
	if err != nil {
		g.logger.Printf("[ERROR] Generation failed: %v", err)
		return Output{
			Answer:   constant.GenerationFallbackPrefix + err.Error(),
			Fallback: true,
		}
	}

	g.logger.Printf("[GENERATION] Produced answer (%d chars)", len(answer))
	return Output{Answer: answer}
}
