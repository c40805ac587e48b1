package retrieval

import (
	"context"
	"log"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/store"
)

// GraphConfig bounds relationship traversal.
type GraphConfig struct {
	SeedCount         int
	MaxDepth          int
	Limit             int
	RelationshipTypes []string
}

// GraphRetriever expands the semantic hits by walking the knowledge graph
// outward from the top-scored seeds.
type GraphRetriever struct {
	traverser Traverser
	cfg       GraphConfig
	logger    *log.Logger
}

func NewGraphRetriever(traverser Traverser, cfg GraphConfig, logger *log.Logger) *GraphRetriever {
	if cfg.SeedCount <= 0 {
		cfg.SeedCount = constant.GraphSeedCount
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = constant.GraphMaxDepth
	}
	if cfg.Limit <= 0 {
		cfg.Limit = constant.GraphResultsLimit
	}
	if len(cfg.RelationshipTypes) == 0 {
		cfg.RelationshipTypes = []string{
			constant.RelRelatedTo,
			constant.RelPrerequisite,
			constant.RelSimilarTo,
		}
	}
	return &GraphRetriever{
		traverser: traverser,
		cfg:       cfg,
		logger:    logger,
	}
}

// Retrieve traverses from each seed and merges the results, deduplicated
// by node id. Seeds themselves are excluded; the semantic pass already
// carries them. A failed traversal skips that seed only.
func (r *GraphRetriever) Retrieve(ctx context.Context, seeds []store.Hit) []store.Hit {
	if len(seeds) == 0 {
		return nil
	}
	if len(seeds) > r.cfg.SeedCount {
		seeds = seeds[:r.cfg.SeedCount]
	}

	seen := make(map[string]bool, len(seeds))
	for _, seed := range seeds {
		seen[seed.Node.ID] = true
	}

	var merged []store.Hit
	for _, seed := range seeds {
		hits, err := r.traverser.Traverse(ctx, seed.Node.ID, r.cfg.RelationshipTypes, r.cfg.MaxDepth, r.cfg.Limit)
		if err != nil {
			r.logger.Printf("[WARN] Graph retrieval: traverse from %s failed: %v", seed.Node.ID, err)
			continue
		}
		for _, hit := range hits {
			if hit.Node.ID == "" || seen[hit.Node.ID] {
				continue
			}
			seen[hit.Node.ID] = true
			merged = append(merged, hit)
		}
	}

	r.logger.Printf("[RETRIEVAL] Graph traversal returned %d related nodes", len(merged))
	return merged
}
