package retrieval

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/store"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}},
	}, nil
}

func (s *stubEmbedder) GenerateBatch(texts []string, taskType string) ([]*embedding.EmbeddingResponse, error) {
	out := make([]*embedding.EmbeddingResponse, len(texts))
	for i := range texts {
		res, err := s.Generate(texts[i], taskType)
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}

type stubVectorSearcher struct {
	hits []store.Hit
	err  error
}

func (s *stubVectorSearcher) QueryVectorIndex(ctx context.Context, indexName string, vector []float32, k int, threshold float64) ([]store.Hit, error) {
	return s.hits, s.err
}

func graphHit(id string) store.Hit {
	return store.Hit{Node: store.Node{ID: id, Content: "content " + id}, Origin: store.OriginGraph}
}

func TestSemanticRetrieveDegradesOnEmbeddingFailure(t *testing.T) {
	r := NewSemanticRetriever(&stubEmbedder{err: errors.New("embedder down")}, &stubVectorSearcher{}, SemanticConfig{}, testLogger())

	if hits := r.Retrieve(context.Background(), "question"); hits != nil {
		t.Errorf("got %d hits, want none", len(hits))
	}
}

func TestSemanticRetrieveDegradesOnSearchFailure(t *testing.T) {
	r := NewSemanticRetriever(&stubEmbedder{}, &stubVectorSearcher{err: errors.New("index gone")}, SemanticConfig{}, testLogger())

	if hits := r.Retrieve(context.Background(), "question"); hits != nil {
		t.Errorf("got %d hits, want none", len(hits))
	}
}

func TestSemanticRetrieveReturnsHits(t *testing.T) {
	want := []store.Hit{graphHit("n1"), graphHit("n2")}
	r := NewSemanticRetriever(&stubEmbedder{}, &stubVectorSearcher{hits: want}, SemanticConfig{}, testLogger())

	hits := r.Retrieve(context.Background(), "question")
	if len(hits) != 2 {
		t.Errorf("got %d hits, want 2", len(hits))
	}
}

type stubTraverser struct {
	perSeed map[string][]store.Hit
	errFor  string
	seeds   []string
}

func (s *stubTraverser) Traverse(ctx context.Context, seedID string, relationshipTypes []string, maxDepth, limit int) ([]store.Hit, error) {
	s.seeds = append(s.seeds, seedID)
	if seedID == s.errFor {
		return nil, errors.New("traverse failed")
	}
	return s.perSeed[seedID], nil
}

func TestGraphRetrieveSeedCapAndDedup(t *testing.T) {
	tr := &stubTraverser{perSeed: map[string][]store.Hit{
		"s1": {graphHit("n1"), graphHit("n2")},
		"s2": {graphHit("n2"), graphHit("s1")}, // n2 duplicate, s1 is a seed
		"s3": {graphHit("n3")},
	}}
	r := NewGraphRetriever(tr, GraphConfig{}, testLogger())

	seeds := []store.Hit{graphHit("s1"), graphHit("s2"), graphHit("s3"), graphHit("s4")}
	hits := r.Retrieve(context.Background(), seeds)

	if len(tr.seeds) != constant.GraphSeedCount {
		t.Errorf("traversed %d seeds, want %d", len(tr.seeds), constant.GraphSeedCount)
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.Node.ID)
	}
	want := []string{"n1", "n2", "n3"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("hit %d = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestGraphRetrieveSkipsFailedSeed(t *testing.T) {
	tr := &stubTraverser{
		perSeed: map[string][]store.Hit{"s2": {graphHit("n1")}},
		errFor:  "s1",
	}
	r := NewGraphRetriever(tr, GraphConfig{}, testLogger())

	hits := r.Retrieve(context.Background(), []store.Hit{graphHit("s1"), graphHit("s2")})
	if len(hits) != 1 || hits[0].Node.ID != "n1" {
		t.Errorf("hits = %+v, want only n1", hits)
	}
}

func TestGraphRetrieveEmptySeeds(t *testing.T) {
	r := NewGraphRetriever(&stubTraverser{}, GraphConfig{}, testLogger())
	if hits := r.Retrieve(context.Background(), nil); hits != nil {
		t.Errorf("got %d hits for no seeds", len(hits))
	}
}

type stubTextSearcher struct {
	hits []store.Hit
	err  error
}

func (s *stubTextSearcher) SearchByText(ctx context.Context, query string, k int) ([]store.Hit, error) {
	return s.hits, s.err
}

func TestSecondaryRetrieverDisabledWithoutSearcher(t *testing.T) {
	r := NewSecondaryRetriever(nil, 0, testLogger())
	if r.Enabled() {
		t.Error("retriever without searcher reports enabled")
	}
	if hits := r.Retrieve(context.Background(), "q"); hits != nil {
		t.Errorf("got %d hits, want none", len(hits))
	}
}

func TestSecondaryRetrieverTagsOrigin(t *testing.T) {
	r := NewSecondaryRetriever(&stubTextSearcher{hits: []store.Hit{
		{Node: store.Node{ID: "d1"}},
		{Node: store.Node{ID: "d2"}, Origin: store.OriginSemantic},
	}}, 0, testLogger())

	hits := r.Retrieve(context.Background(), "q")
	for _, h := range hits {
		if h.Origin != store.OriginSecondary {
			t.Errorf("hit %s origin = %q, want %q", h.Node.ID, h.Origin, store.OriginSecondary)
		}
	}
}

func TestSecondaryRetrieverDegradesOnFailure(t *testing.T) {
	r := NewSecondaryRetriever(&stubTextSearcher{err: errors.New("db down")}, 0, testLogger())
	if hits := r.Retrieve(context.Background(), "q"); hits != nil {
		t.Errorf("got %d hits, want none", len(hits))
	}
}
