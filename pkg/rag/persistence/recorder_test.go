package persistence

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/store"
)

type nodeWrite struct {
	id       string
	nodeType string
	props    map[string]any
}

type relWrite struct {
	fromID, fromType string
	toID, toType     string
	relType          string
	props            map[string]any
}

type fakeWriter struct {
	nodes    []nodeWrite
	rels     []relWrite
	nodeErr  error
	relErr   error
	failNode string // fail only this node id
}

func (f *fakeWriter) UpsertNode(ctx context.Context, id, nodeType string, properties map[string]any, embedding []float32) error {
	if f.nodeErr != nil && (f.failNode == "" || f.failNode == id) {
		return f.nodeErr
	}
	f.nodes = append(f.nodes, nodeWrite{id: id, nodeType: nodeType, props: properties})
	return nil
}

func (f *fakeWriter) UpsertRelationship(ctx context.Context, fromID, fromType, toID, toType, relType string, properties map[string]any) error {
	if f.relErr != nil {
		return f.relErr
	}
	f.rels = append(f.rels, relWrite{fromID: fromID, fromType: fromType, toID: toID, toType: toType, relType: relType, props: properties})
	return nil
}

func newTestRecorder(w GraphWriter) *Recorder {
	r := NewRecorder(w, log.New(io.Discard, "", 0))
	r.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestInteractionIDStable(t *testing.T) {
	a := InteractionID("student-1", "What is osmosis?")
	b := InteractionID("student-1", "What is osmosis?")
	if a != b {
		t.Errorf("same input produced %q and %q", a, b)
	}

	if !strings.HasPrefix(a, "interaction_student-1_") {
		t.Errorf("id %q missing prefix", a)
	}
	// 8 hex chars from the question digest
	suffix := strings.TrimPrefix(a, "interaction_student-1_")
	if len(suffix) != 8 {
		t.Errorf("digest suffix %q has length %d, want 8", suffix, len(suffix))
	}

	if a == InteractionID("student-1", "What is diffusion?") {
		t.Error("different questions produced the same id")
	}
	if a == InteractionID("student-2", "What is osmosis?") {
		t.Error("different students produced the same id")
	}
}

func TestPersistWritesGraph(t *testing.T) {
	w := &fakeWriter{}
	r := newTestRecorder(w)

	rec := Record{
		StudentID:    "student-1",
		Question:     "What is osmosis?",
		Answer:       "Movement of water across a membrane.",
		Confidence:   0.85,
		QuestionType: constant.TierSimple,
		Sources: []store.Source{
			{ID: "k1", Score: 0.9},
			{ID: "k2", Score: 0.8},
			{ID: "k3", Score: 0.7},
			{ID: "k4", Score: 0.6}, // beyond the persist cap
		},
	}

	if !r.Persist(context.Background(), rec) {
		t.Fatal("Persist returned false")
	}

	if len(w.nodes) != 2 {
		t.Fatalf("got %d node writes, want 2", len(w.nodes))
	}

	interaction := w.nodes[0]
	if interaction.nodeType != constant.NodeTypeInteraction {
		t.Errorf("first node type = %q, want Interaction", interaction.nodeType)
	}
	if interaction.props["question"] != rec.Question ||
		interaction.props["answer"] != rec.Answer ||
		interaction.props["confidence"] != rec.Confidence ||
		interaction.props["question_type"] != rec.QuestionType {
		t.Errorf("interaction props = %+v", interaction.props)
	}
	if interaction.props["timestamp"] != "2026-03-01T12:00:00Z" {
		t.Errorf("timestamp = %v, want RFC3339 UTC", interaction.props["timestamp"])
	}

	student := w.nodes[1]
	if student.id != "student-1" || student.nodeType != constant.NodeTypeStudent {
		t.Errorf("student node = %+v", student)
	}

	// ASKED plus top three USED_SOURCE links
	if len(w.rels) != 1+constant.MaxPersistSources {
		t.Fatalf("got %d relationships, want %d", len(w.rels), 1+constant.MaxPersistSources)
	}
	asked := w.rels[0]
	if asked.relType != constant.RelAsked || asked.fromID != "student-1" || asked.toID != interaction.id {
		t.Errorf("asked rel = %+v", asked)
	}
	for i, rel := range w.rels[1:] {
		if rel.relType != constant.RelUsedSource {
			t.Errorf("rel %d type = %q, want USED_SOURCE", i, rel.relType)
		}
		if rel.toID != rec.Sources[i].ID {
			t.Errorf("rel %d target = %q, want %q", i, rel.toID, rec.Sources[i].ID)
		}
		if rel.props["score"] != rec.Sources[i].Score {
			t.Errorf("rel %d score = %v, want %v", i, rel.props["score"], rec.Sources[i].Score)
		}
	}
}

func TestPersistSkipsSourcesWithoutID(t *testing.T) {
	w := &fakeWriter{}
	r := newTestRecorder(w)

	r.Persist(context.Background(), Record{
		StudentID: "s",
		Question:  "q",
		Sources:   []store.Source{{ID: ""}, {ID: "k1"}},
	})

	used := 0
	for _, rel := range w.rels {
		if rel.relType == constant.RelUsedSource {
			used++
		}
	}
	if used != 1 {
		t.Errorf("got %d USED_SOURCE links, want 1", used)
	}
}

func TestPersistReturnsFalseOnWriteFailure(t *testing.T) {
	w := &fakeWriter{nodeErr: errors.New("graph down")}
	r := newTestRecorder(w)

	if r.Persist(context.Background(), Record{StudentID: "s", Question: "q"}) {
		t.Error("Persist returned true despite write failure")
	}
}
