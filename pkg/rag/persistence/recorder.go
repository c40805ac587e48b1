// Package persistence records completed interactions into the knowledge
// graph for later analysis of what each student asked and which sources
// answered it.
package persistence

import (
	"context"
	"crypto/md5"
	"fmt"
	"log"
	"time"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/store"
)

// GraphWriter is the write surface of the knowledge store.
type GraphWriter interface {
	UpsertNode(ctx context.Context, id, nodeType string, properties map[string]any, embedding []float32) error
	UpsertRelationship(ctx context.Context, fromID, fromType, toID, toType, relType string, properties map[string]any) error
}

// Recorder writes the interaction node and its relationships. Recording
// is best-effort: the answer has already been produced, so failures are
// logged and swallowed.
type Recorder struct {
	writer GraphWriter
	logger *log.Logger
	now    func() time.Time
}

func NewRecorder(writer GraphWriter, logger *log.Logger) *Recorder {
	return &Recorder{
		writer: writer,
		logger: logger,
		now:    time.Now,
	}
}

// InteractionID derives the stable interaction id for a student/question
// pair. Re-asking the same question overwrites the previous record
// instead of accumulating duplicates.
func InteractionID(studentID, question string) string {
	digest := md5.Sum([]byte(question))
	return fmt.Sprintf("interaction_%s_%x", studentID, digest[:4])
}

// Record is the interaction written to the graph.
type Record struct {
	StudentID    string
	Question     string
	Answer       string
	Confidence   float64
	QuestionType string
	Sources      []store.Source
}

// Persist writes the interaction node, links it to the student and to the
// top sources that produced the answer.
func (r *Recorder) Persist(ctx context.Context, rec Record) bool {
	interactionID := InteractionID(rec.StudentID, rec.Question)

	err := r.writer.UpsertNode(ctx, interactionID, constant.NodeTypeInteraction, map[string]any{
		"question":      rec.Question,
		"answer":        rec.Answer,
		"confidence":    rec.Confidence,
		"question_type": rec.QuestionType,
		"timestamp":     r.now().UTC().Format(time.RFC3339),
	}, nil)
	if err != nil {
		r.logger.Printf("[WARN] Persistence: interaction node write failed: %v", err)
		return false
	}

	if err := r.writer.UpsertNode(ctx, rec.StudentID, constant.NodeTypeStudent, map[string]any{}, nil); err != nil {
		r.logger.Printf("[WARN] Persistence: student node write failed: %v", err)
		return false
	}

	err = r.writer.UpsertRelationship(ctx,
		rec.StudentID, constant.NodeTypeStudent,
		interactionID, constant.NodeTypeInteraction,
		constant.RelAsked, nil)
	if err != nil {
		r.logger.Printf("[WARN] Persistence: asked link failed: %v", err)
		return false
	}

	sources := rec.Sources
	if len(sources) > constant.MaxPersistSources {
		sources = sources[:constant.MaxPersistSources]
	}
	for _, src := range sources {
		if src.ID == "" {
			continue
		}
		err := r.writer.UpsertRelationship(ctx,
			interactionID, constant.NodeTypeInteraction,
			src.ID, constant.NodeTypeKnowledge,
			constant.RelUsedSource, map[string]any{"score": src.Score})
		if err != nil {
			r.logger.Printf("[WARN] Persistence: source link to %s failed: %v", src.ID, err)
		}
	}

	r.logger.Printf("[PERSISTENCE] Recorded interaction %s", interactionID)
	return true
}
