package integration

import (
	"context"
	"io"
	"log"
	"os"
	"testing"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/graph"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeo4jKnowledgeStore(t *testing.T) {
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("Skipping integration test: NEO4J_URI not set")
	}

	client, err := graph.NewClient(graph.ClientConfig{
		URI:      uri,
		User:     os.Getenv("NEO4J_USER"),
		Password: os.Getenv("NEO4J_PASSWORD"),
		Database: os.Getenv("NEO4J_DATABASE"),
	})
	require.NoError(t, err)
	defer client.Close(context.Background())

	store := graph.NewStore(client, log.New(io.Discard, "", 0))
	ctx := context.Background()

	embedding := make([]float32, 768)
	embedding[0] = 1

	t.Run("Upsert and traverse", func(t *testing.T) {
		err := store.UpsertNode(ctx, "it_node_a", constant.NodeTypeKnowledge, map[string]any{
			"title":   "Integration node A",
			"content": "alpha",
		}, embedding)
		require.NoError(t, err)

		err = store.UpsertNode(ctx, "it_node_b", constant.NodeTypeKnowledge, map[string]any{
			"title":   "Integration node B",
			"content": "beta",
		}, embedding)
		require.NoError(t, err)

		err = store.UpsertRelationship(ctx,
			"it_node_a", constant.NodeTypeKnowledge,
			"it_node_b", constant.NodeTypeKnowledge,
			constant.RelRelatedTo, nil)
		require.NoError(t, err)

		hits, err := store.Traverse(ctx, "it_node_a", []string{constant.RelRelatedTo}, 1, 10)
		require.NoError(t, err)

		found := false
		for _, hit := range hits {
			if hit.Node.ID == "it_node_b" {
				found = true
			}
		}
		assert.True(t, found, "traversal should reach it_node_b")
	})

	t.Run("Vector index query", func(t *testing.T) {
		err := store.EnsureVectorIndex(ctx, constant.KnowledgeIndexName, constant.NodeTypeKnowledge, "embedding", len(embedding))
		require.NoError(t, err)

		hits, err := store.QueryVectorIndex(ctx, constant.KnowledgeIndexName, embedding, 5, 0.1)
		require.NoError(t, err)
		assert.NotEmpty(t, hits)
	})
}
