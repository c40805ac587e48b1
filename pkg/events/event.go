package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_INGEST_REQUESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation used by publishers and the
// subscriber-side reconstruction.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes.
const (
	TypeDocumentIngestRequested = "DOCUMENT_INGEST_REQUESTED"
	TypeDocumentIngested        = "DOCUMENT_INGESTED"
	TypeInteractionRecorded     = "INTERACTION_RECORDED"
)

// NewDocumentIngestRequested signals that a raw document was accepted and
// awaits chunking and embedding.
func NewDocumentIngestRequested(documentID, title string) Event {
	return BaseEvent{
		Type: TypeDocumentIngestRequested,
		Data: map[string]interface{}{
			"document_id": documentID,
			"title":       title,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentIngested signals that a document's chunks and embeddings are
// written to the knowledge store.
func NewDocumentIngested(documentID string, chunkCount int) Event {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"document_id": documentID,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewInteractionRecorded signals a completed tutoring interaction.
func NewInteractionRecorded(studentID, interactionID string, confidence float64) Event {
	return BaseEvent{
		Type: TypeInteractionRecorded,
		Data: map[string]interface{}{
			"student_id":     studentID,
			"interaction_id": interactionID,
			"confidence":     confidence,
		},
		OccurredAt: time.Now(),
	}
}
