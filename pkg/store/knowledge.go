package store

// Node is a knowledge-graph node as returned by the graph store.
// Properties carries whatever extra keys the node holds beyond the
// well-known ones.
type Node struct {
	ID         string
	Type       string
	Title      string
	Content    string
	Properties map[string]any
}

// Hit origins. Graph traversal hits carry no similarity score, so Score
// is a pointer: nil means "no score", not "score zero".
const (
	OriginSemantic  = "vector_search"
	OriginGraph     = "graph_traversal"
	OriginSecondary = "document_search"
)

// Hit is a single retrieved node plus optional similarity score.
type Hit struct {
	Node   Node
	Score  *float64
	Origin string
	Depth  int // traversal depth for graph hits, 0 otherwise
}

// ScoreOrZero returns the similarity score, or 0.0 when the hit carries none.
func (h Hit) ScoreOrZero() float64 {
	if h.Score == nil {
		return 0.0
	}
	return *h.Score
}

// Source is the response-facing projection of a Hit. Derived once during
// fusion and never mutated afterwards.
type Source struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
	Origin string  `json:"type"`
}
