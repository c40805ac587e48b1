package entity

import (
	"time"

	"github.com/google/uuid"

	"ai-tutor-be/pkg/store"
)

type ThreadMessage struct {
	Id         uuid.UUID
	ThreadId   uuid.UUID
	Role       string
	Content    string
	Confidence *float64
	Sources    []store.Source
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
