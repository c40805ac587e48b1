package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"ai-tutor-be/pkg/llm"
)

// ConversationRepository caches the recent message window per thread so
// hot threads skip the database on every turn. Entries expire on their
// own; the database stays the source of truth.
type ConversationRepository struct {
	cache *cache.Cache
}

func NewConversationRepository() *ConversationRepository {
	// Default expiration of 1 hour, purging expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ConversationRepository{
		cache: c,
	}
}

func (r *ConversationRepository) Save(threadID string, messages []llm.Message) {
	r.cache.Set(threadID, messages, cache.DefaultExpiration)
}

func (r *ConversationRepository) Get(threadID string) ([]llm.Message, bool) {
	if x, found := r.cache.Get(threadID); found {
		return x.([]llm.Message), true
	}
	return nil, false
}

func (r *ConversationRepository) Delete(threadID string) {
	r.cache.Delete(threadID)
}
