// Package history loads prior conversation turns so the generator sees
// the thread the student is continuing.
package history

import (
	"context"
	"log"

	"ai-tutor-be/pkg/llm"
)

// MessageSource is whatever backs the conversation history, ordered
// oldest first.
type MessageSource interface {
	ListRecent(ctx context.Context, threadID string, limit int) ([]llm.Message, error)
}

// Loader fetches the trailing turns of a thread. History is a nicety,
// not a requirement: failures degrade to an empty history.
type Loader struct {
	source MessageSource
	window int
	logger *log.Logger
}

func NewLoader(source MessageSource, window int, logger *log.Logger) *Loader {
	return &Loader{
		source: source,
		window: window,
		logger: logger,
	}
}

// Load returns the last turns of the thread, oldest first. A nil source
// or empty thread id yields no history.
func (l *Loader) Load(ctx context.Context, threadID string) []llm.Message {
	if l == nil || l.source == nil || threadID == "" {
		return nil
	}

	messages, err := l.source.ListRecent(ctx, threadID, l.window)
	if err != nil {
		l.logger.Printf("[WARN] History load for thread %s failed: %v", threadID, err)
		return nil
	}
	return messages
}
