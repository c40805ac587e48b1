package dto

import (
	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=512"`
	Content string `json:"content" validate:"required,min=1"`
	Source  string `json:"source,omitempty"`
}

type CreateDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type BatchCreateDocumentsRequest struct {
	Documents []CreateDocumentRequest `json:"documents" validate:"required,min=1,max=100,dive"`
}

type BatchCreateDocumentsResponse struct {
	Accepted []CreateDocumentResponse `json:"accepted"`
}

type CreateRelationshipRequest struct {
	FromId string                 `json:"from_id" validate:"required"`
	ToId   string                 `json:"to_id" validate:"required"`
	Type   string                 `json:"type" validate:"required,oneof=RELATED_TO PREREQUISITE SIMILAR_TO"`
	Props  map[string]interface{} `json:"properties,omitempty"`
}

type SearchResultResponse struct {
	Id      string  `json:"id"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Origin  string  `json:"type"`
}

// IngestDocumentMessage is the internal event payload that triggers
// chunking and embedding of an accepted document.
type IngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
