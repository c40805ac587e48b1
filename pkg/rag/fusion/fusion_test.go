package fusion

import (
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/store"
)

func hit(id, content, origin string, score float64) store.Hit {
	return store.Hit{
		Node: store.Node{
			ID:      id,
			Title:   "title " + id,
			Content: content,
		},
		Score:  &score,
		Origin: origin,
	}
}

func newTestFuser() *Fuser {
	return NewFuser(log.New(io.Discard, "", 0))
}

func TestFusePrecedenceAndDedup(t *testing.T) {
	semantic := []store.Hit{
		hit("s1", "alpha", store.OriginSemantic, 0.9),
		hit("s2", "beta", store.OriginSemantic, 0.8),
	}
	graph := []store.Hit{
		hit("g1", "alpha", store.OriginGraph, 0.0), // duplicate of s1
		hit("g2", "gamma", store.OriginGraph, 0.0),
	}
	secondary := []store.Hit{
		hit("d1", "delta", store.OriginSecondary, 0.7),
		hit("d2", "beta", store.OriginSecondary, 0.6), // duplicate of s2
	}

	res := newTestFuser().Fuse(semantic, graph, secondary)

	wantContext := strings.Join([]string{"alpha", "beta", "gamma", "delta"}, "\n\n")
	if res.Context != wantContext {
		t.Errorf("Context = %q, want %q", res.Context, wantContext)
	}

	wantIDs := []string{"s1", "s2", "g2", "d1"}
	if len(res.Sources) != len(wantIDs) {
		t.Fatalf("got %d sources, want %d", len(res.Sources), len(wantIDs))
	}
	for i, id := range wantIDs {
		if res.Sources[i].ID != id {
			t.Errorf("Sources[%d].ID = %q, want %q", i, res.Sources[i].ID, id)
		}
	}
}

func TestFuseGraphCap(t *testing.T) {
	var graph []store.Hit
	for i := 0; i < constant.MaxGraphContributions+3; i++ {
		graph = append(graph, hit(fmt.Sprintf("g%d", i), fmt.Sprintf("graph content %d", i), store.OriginGraph, 0))
	}

	res := newTestFuser().Fuse(nil, graph, nil)

	if got := len(res.Sources); got != constant.MaxGraphContributions {
		t.Errorf("got %d graph sources, want cap %d", got, constant.MaxGraphContributions)
	}
}

func TestFuseGraphDuplicatesDoNotConsumeCap(t *testing.T) {
	semantic := []store.Hit{hit("s1", "shared", store.OriginSemantic, 0.9)}
	graph := []store.Hit{
		hit("g0", "shared", store.OriginGraph, 0), // dedup, should not count
	}
	for i := 1; i <= constant.MaxGraphContributions; i++ {
		graph = append(graph, hit(fmt.Sprintf("g%d", i), fmt.Sprintf("unique %d", i), store.OriginGraph, 0))
	}

	res := newTestFuser().Fuse(semantic, graph, nil)

	// 1 semantic + full graph quota
	if got := len(res.Sources); got != 1+constant.MaxGraphContributions {
		t.Errorf("got %d sources, want %d", got, 1+constant.MaxGraphContributions)
	}
}

func TestFuseKeepsAllSemanticHits(t *testing.T) {
	semantic := []store.Hit{
		hit("s1", "alpha", store.OriginSemantic, 0.9),
		hit("s2", "alpha", store.OriginSemantic, 0.8), // same content, still kept
	}
	graph := []store.Hit{
		hit("g1", "alpha", store.OriginGraph, 0), // deduplicated
	}

	res := newTestFuser().Fuse(semantic, graph, nil)

	wantContext := strings.Join([]string{"alpha", "alpha"}, "\n\n")
	if res.Context != wantContext {
		t.Errorf("Context = %q, want %q", res.Context, wantContext)
	}
	if len(res.Sources) != 2 || res.Sources[0].ID != "s1" || res.Sources[1].ID != "s2" {
		t.Errorf("Sources = %+v, want s1 and s2", res.Sources)
	}
}

func TestFuseChunkCap(t *testing.T) {
	var semantic, secondary []store.Hit
	for i := 0; i < 8; i++ {
		semantic = append(semantic, hit(fmt.Sprintf("s%d", i), fmt.Sprintf("sem %d", i), store.OriginSemantic, 0.5))
	}
	for i := 0; i < 8; i++ {
		secondary = append(secondary, hit(fmt.Sprintf("d%d", i), fmt.Sprintf("doc %d", i), store.OriginSecondary, 0.5))
	}

	res := newTestFuser().Fuse(semantic, nil, secondary)

	if got := len(strings.Split(res.Context, "\n\n")); got != constant.MaxContextChunks {
		t.Errorf("context holds %d chunks, want %d", got, constant.MaxContextChunks)
	}
	if got := len(res.Sources); got != constant.MaxContextSources {
		t.Errorf("got %d sources, want %d", got, constant.MaxContextSources)
	}
}

func TestFuseSkipsEmptyContent(t *testing.T) {
	semantic := []store.Hit{
		hit("s1", "", store.OriginSemantic, 0.9),
		hit("s2", "real", store.OriginSemantic, 0.8),
	}

	res := newTestFuser().Fuse(semantic, nil, nil)

	if res.Context != "real" {
		t.Errorf("Context = %q, want %q", res.Context, "real")
	}
	if len(res.Sources) != 1 || res.Sources[0].ID != "s2" {
		t.Errorf("Sources = %+v, want only s2", res.Sources)
	}
}

func TestFuseEmptyInput(t *testing.T) {
	res := newTestFuser().Fuse(nil, nil, nil)
	if res.Context != "" {
		t.Errorf("Context = %q, want empty", res.Context)
	}
	if len(res.Sources) != 0 {
		t.Errorf("Sources = %+v, want empty", res.Sources)
	}
}
