package retrieval

import (
	"context"
	"log"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/store"
)

// SemanticConfig bounds the vector search. Zero values fall back to the
// product defaults.
type SemanticConfig struct {
	IndexName string
	TopK      int
	Threshold float64
}

// SemanticRetriever embeds the question and searches the knowledge-store
// vector index.
type SemanticRetriever struct {
	embedder embedding.EmbeddingProvider
	searcher VectorSearcher
	cfg      SemanticConfig
	logger   *log.Logger
}

func NewSemanticRetriever(embedder embedding.EmbeddingProvider, searcher VectorSearcher, cfg SemanticConfig, logger *log.Logger) *SemanticRetriever {
	if cfg.IndexName == "" {
		cfg.IndexName = constant.KnowledgeIndexName
	}
	if cfg.TopK <= 0 {
		cfg.TopK = constant.SemanticTopK
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = constant.SemanticThreshold
	}
	return &SemanticRetriever{
		embedder: embedder,
		searcher: searcher,
		cfg:      cfg,
		logger:   logger,
	}
}

// Retrieve returns the top hits above the similarity threshold. Embedding
// or search failures degrade to an empty result set.
func (r *SemanticRetriever) Retrieve(ctx context.Context, question string) []store.Hit {
	res, err := r.embedder.Generate(question, "retrieval_query")
	if err != nil {
		r.logger.Printf("[WARN] Semantic retrieval: embedding failed: %v", err)
		return nil
	}

	hits, err := r.searcher.QueryVectorIndex(ctx, r.cfg.IndexName, res.Embedding.Values, r.cfg.TopK, r.cfg.Threshold)
	if err != nil {
		r.logger.Printf("[WARN] Semantic retrieval: vector query failed: %v", err)
		return nil
	}

	r.logger.Printf("[RETRIEVAL] Semantic search returned %d hits", len(hits))
	return hits
}
