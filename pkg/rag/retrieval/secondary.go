package retrieval

import (
	"context"
	"log"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/store"
)

// SecondaryRetriever queries the supplementary document index. It only
// runs for multi-hop questions and is fully optional; a nil searcher
// disables it.
type SecondaryRetriever struct {
	searcher TextSearcher
	topK     int
	logger   *log.Logger
}

func NewSecondaryRetriever(searcher TextSearcher, topK int, logger *log.Logger) *SecondaryRetriever {
	if topK <= 0 {
		topK = constant.SecondaryTopK
	}
	return &SecondaryRetriever{
		searcher: searcher,
		topK:     topK,
		logger:   logger,
	}
}

func (r *SecondaryRetriever) Enabled() bool {
	return r.searcher != nil
}

// Retrieve searches the secondary index by raw text, degrading to empty
// on failure.
func (r *SecondaryRetriever) Retrieve(ctx context.Context, question string) []store.Hit {
	if r.searcher == nil {
		return nil
	}

	hits, err := r.searcher.SearchByText(ctx, question, r.topK)
	if err != nil {
		r.logger.Printf("[WARN] Secondary retrieval failed: %v", err)
		return nil
	}

	for i := range hits {
		hits[i].Origin = store.OriginSecondary
	}

	r.logger.Printf("[RETRIEVAL] Secondary search returned %d documents", len(hits))
	return hits
}
