package entity

import (
	"time"

	"github.com/google/uuid"
)

type Thread struct {
	Id        uuid.UUID
	StudentId string
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
