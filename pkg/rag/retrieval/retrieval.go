// Package retrieval holds the three sub-retrievers the router chooses
// between. Every retriever degrades to an empty result set on failure so
// a dead backend never takes the pipeline down with it.
package retrieval

import (
	"context"

	"ai-tutor-be/pkg/store"
)

// VectorSearcher is the nearest-neighbor search surface of the knowledge
// store.
type VectorSearcher interface {
	QueryVectorIndex(ctx context.Context, indexName string, vector []float32, k int, threshold float64) ([]store.Hit, error)
}

// Traverser walks typed relationships outward from a seed node.
type Traverser interface {
	Traverse(ctx context.Context, seedID string, relationshipTypes []string, maxDepth, limit int) ([]store.Hit, error)
}

// TextSearcher is the secondary document index, queried by raw text.
type TextSearcher interface {
	SearchByText(ctx context.Context, query string, k int) ([]store.Hit, error)
}
