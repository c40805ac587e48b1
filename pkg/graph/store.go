package graph

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"ai-tutor-be/pkg/store"
)

// Store is the knowledge-store facade: vector-index search, bounded
// relationship traversal, and node/relationship upserts.
type Store struct {
	client *Client
	logger *log.Logger
}

func NewStore(client *Client, logger *log.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
	}
}

// EnsureVectorIndex creates the cosine vector index when missing.
// Index and label names are config-controlled, never user input.
func (s *Store) EnsureVectorIndex(ctx context.Context, indexName, label, property string, dimensions int) error {
	query := fmt.Sprintf(`
		CREATE VECTOR INDEX %s IF NOT EXISTS
		FOR (n:%s)
		ON n.%s
		OPTIONS {
			indexConfig: {
				`+"`vector.dimensions`"+`: %d,
				`+"`vector.similarity_function`"+`: 'cosine'
			}
		}`, indexName, label, property, dimensions)

	session := s.newSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	res, err := session.Run(ctx, query, nil)
	if err != nil {
		return fmt.Errorf("graph: create vector index %s: %w", indexName, err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return err
	}
	s.logger.Printf("[GRAPH] Vector index %s ensured (%d dims)", indexName, dimensions)
	return nil
}

// QueryVectorIndex runs nearest-neighbor search over the named index and
// returns hits above the threshold, ordered by score descending.
func (s *Store) QueryVectorIndex(ctx context.Context, indexName string, vector []float32, k int, threshold float64) ([]store.Hit, error) {
	query := `
		CALL db.index.vector.queryNodes($index_name, $k, $query_embedding)
		YIELD node, score
		WHERE score >= $threshold
		RETURN node, score
		ORDER BY score DESC`

	params := map[string]any{
		"index_name":      indexName,
		"k":               k,
		"query_embedding": toFloat64(vector),
		"threshold":       threshold,
	}

	session := s.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := runAndCollect(ctx, session, query, params)
	if err != nil {
		return nil, fmt.Errorf("graph: vector query on %s: %w", indexName, err)
	}

	hits := make([]store.Hit, 0, len(records))
	for _, rec := range records {
		nodeVal, ok := rec.Get("node")
		if !ok {
			continue
		}
		node, ok := nodeVal.(neo4j.Node)
		if !ok {
			continue
		}
		scoreVal, _ := rec.Get("score")
		score, _ := scoreVal.(float64)

		hit := store.Hit{
			Node:   toStoreNode(node),
			Score:  &score,
			Origin: store.OriginSemantic,
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Traverse walks outward from the seed node over the given relationship
// types up to maxDepth, deduplicated by node id, closer relations first.
func (s *Store) Traverse(ctx context.Context, seedID string, relationshipTypes []string, maxDepth, limit int) ([]store.Hit, error) {
	if maxDepth <= 0 {
		maxDepth = 1
	}
	if limit <= 0 {
		limit = 50
	}

	// Relationship types come from a fixed config set; Cypher cannot
	// parameterize them inside a pattern.
	relPattern := strings.Join(relationshipTypes, "|")
	query := fmt.Sprintf(`
		MATCH path = (start {id: $seed_id})-[:%s*1..%d]->(related)
		RETURN DISTINCT related, length(path) AS depth
		ORDER BY depth
		LIMIT $limit`, relPattern, maxDepth)

	params := map[string]any{
		"seed_id": seedID,
		"limit":   limit,
	}

	session := s.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := runAndCollect(ctx, session, query, params)
	if err != nil {
		return nil, fmt.Errorf("graph: traverse from %s: %w", seedID, err)
	}

	hits := make([]store.Hit, 0, len(records))
	for _, rec := range records {
		nodeVal, ok := rec.Get("related")
		if !ok {
			continue
		}
		node, ok := nodeVal.(neo4j.Node)
		if !ok {
			continue
		}
		depth := 0
		if depthVal, ok := rec.Get("depth"); ok {
			if d, ok := depthVal.(int64); ok {
				depth = int(d)
			}
		}
		hits = append(hits, store.Hit{
			Node:   toStoreNode(node),
			Origin: store.OriginGraph,
			Depth:  depth,
		})
	}
	return hits, nil
}

// UpsertNode merges a node by id and sets its properties. An optional
// embedding is stored alongside the other properties.
func (s *Store) UpsertNode(ctx context.Context, id, nodeType string, properties map[string]any, embedding []float32) error {
	props := make(map[string]any, len(properties)+1)
	for k, v := range properties {
		props[k] = v
	}
	if embedding != nil {
		props["embedding"] = toFloat64(embedding)
	}

	query := fmt.Sprintf(`
		MERGE (n:%s {id: $node_id})
		SET n += $properties`, nodeType)

	session := s.newSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"node_id":    id,
			"properties": props,
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("graph: upsert node %s: %w", id, err)
	}
	return nil
}

// UpsertRelationship merges a typed relationship between two existing
// nodes, optionally setting relationship properties.
func (s *Store) UpsertRelationship(ctx context.Context, fromID, fromType, toID, toType, relType string, properties map[string]any) error {
	query := fmt.Sprintf(`
		MATCH (a:%s {id: $from_id})
		MATCH (b:%s {id: $to_id})
		MERGE (a)-[r:%s]->(b)`, fromType, toType, relType)
	if len(properties) > 0 {
		query += "\n\t\tSET r += $properties"
	}

	session := s.newSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"from_id":    fromID,
			"to_id":      toID,
			"properties": properties,
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("graph: upsert relationship %s-[%s]->%s: %w", fromID, relType, toID, err)
	}
	return nil
}

func (s *Store) newSession(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.client.Database,
	})
}

func runAndCollect(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// toStoreNode maps a Neo4j node into the store representation, lifting
// the well-known properties and keeping the rest as-is. The embedding
// property is dropped: hits never carry vectors back to callers.
func toStoreNode(node neo4j.Node) store.Node {
	props := node.Props
	n := store.Node{
		Properties: make(map[string]any, len(props)),
	}
	if len(node.Labels) > 0 {
		n.Type = node.Labels[0]
	}
	var text string
	for k, v := range props {
		switch k {
		case "id":
			if id, ok := v.(string); ok {
				n.ID = id
			}
		case "title":
			if title, ok := v.(string); ok {
				n.Title = title
			}
		case "content":
			if content, ok := v.(string); ok {
				n.Content = content
			}
		case "text":
			text, _ = v.(string)
		case "embedding":
			// skip
		default:
			n.Properties[k] = v
		}
	}
	if n.Content == "" {
		n.Content = text
	}
	return n
}

func toFloat64(vector []float32) []float64 {
	out := make([]float64, len(vector))
	for i, v := range vector {
		out[i] = float64(v)
	}
	return out
}
