// Package fusion merges the sub-retrievers' results into a single bounded
// context block plus the source list carried alongside it.
package fusion

import (
	"log"
	"strings"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/store"
)

// Result is the fused context handed to generation: the concatenated
// chunks and the sources they came from, index-aligned only loosely
// since both lists are independently capped.
type Result struct {
	Context string
	Sources []store.Source
}

// Fuser combines retrieval results with fixed precedence: semantic hits
// first, then a bounded slice of graph hits, then secondary documents.
type Fuser struct {
	maxChunks    int
	maxGraphHits int
	maxSources   int
	logger       *log.Logger
}

func NewFuser(logger *log.Logger) *Fuser {
	return &Fuser{
		maxChunks:    constant.MaxContextChunks,
		maxGraphHits: constant.MaxGraphContributions,
		maxSources:   constant.MaxContextSources,
		logger:       logger,
	}
}

// Fuse builds the context block and source list. Every semantic hit is
// taken as-is; graph and secondary hits are deduplicated against content
// already included so a node reachable both semantically and structurally
// appears once.
func (f *Fuser) Fuse(semantic, graph, secondary []store.Hit) Result {
	chunks := make([]string, 0, f.maxChunks)
	sources := make([]store.Source, 0, f.maxSources)
	seen := make(map[string]bool)

	appendHit := func(hit store.Hit, dedup bool) {
		content := hit.Node.Content
		if content == "" {
			return
		}
		if dedup && seen[content] {
			return
		}
		seen[content] = true
		chunks = append(chunks, content)
		if len(sources) < f.maxSources {
			sources = append(sources, store.Source{
				ID:     hit.Node.ID,
				Title:  hit.Node.Title,
				Score:  hit.ScoreOrZero(),
				Origin: hit.Origin,
			})
		}
	}

	for _, hit := range semantic {
		appendHit(hit, false)
	}

	graphTaken := 0
	for _, hit := range graph {
		if graphTaken >= f.maxGraphHits {
			break
		}
		before := len(chunks)
		appendHit(hit, true)
		if len(chunks) > before {
			graphTaken++
		}
	}

	for _, hit := range secondary {
		appendHit(hit, true)
	}

	if len(chunks) > f.maxChunks {
		chunks = chunks[:f.maxChunks]
	}

	f.logger.Printf("[FUSION] Combined %d context chunks from %d sources", len(chunks), len(sources))
	return Result{
		Context: strings.Join(chunks, "\n\n"),
		Sources: sources,
	}
}
