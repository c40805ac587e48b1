package mapper

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/pkg/store"
)

type ThreadMapper struct{}

func NewThreadMapper() *ThreadMapper {
	return &ThreadMapper{}
}

func (m *ThreadMapper) ToEntity(t *model.Thread) *entity.Thread {
	if t == nil {
		return nil
	}

	var deletedAt *time.Time
	if t.DeletedAt.Valid {
		d := t.DeletedAt.Time
		deletedAt = &d
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	return &entity.Thread{
		Id:        t.Id,
		StudentId: t.StudentId,
		Title:     t.Title,
		CreatedAt: t.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: t.DeletedAt.Valid,
	}
}

func (m *ThreadMapper) ToModel(t *entity.Thread) *model.Thread {
	if t == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if t.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *t.DeletedAt, Valid: true}
	} else if t.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.Thread{
		Id:        t.Id,
		StudentId: t.StudentId,
		Title:     t.Title,
		CreatedAt: t.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

type ThreadMessageMapper struct{}

func NewThreadMessageMapper() *ThreadMessageMapper {
	return &ThreadMessageMapper{}
}

func (m *ThreadMessageMapper) ToEntity(t *model.ThreadMessage) *entity.ThreadMessage {
	if t == nil {
		return nil
	}

	var deletedAt *time.Time
	if t.DeletedAt.Valid {
		d := t.DeletedAt.Time
		deletedAt = &d
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	var sources []store.Source
	if len(t.Sources) > 0 {
		// A decode failure leaves sources empty rather than failing the read.
		_ = json.Unmarshal(t.Sources, &sources)
	}

	return &entity.ThreadMessage{
		Id:         t.Id,
		ThreadId:   t.ThreadId,
		Role:       t.Role,
		Content:    t.Content,
		Confidence: t.Confidence,
		Sources:    sources,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  t.DeletedAt.Valid,
	}
}

func (m *ThreadMessageMapper) ToModel(t *entity.ThreadMessage) *model.ThreadMessage {
	if t == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if t.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *t.DeletedAt, Valid: true}
	} else if t.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	var sources datatypes.JSON
	if len(t.Sources) > 0 {
		if data, err := json.Marshal(t.Sources); err == nil {
			sources = data
		}
	}

	return &model.ThreadMessage{
		Id:         t.Id,
		ThreadId:   t.ThreadId,
		Role:       t.Role,
		Content:    t.Content,
		Confidence: t.Confidence,
		Sources:    sources,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *ThreadMessageMapper) ToEntities(messages []*model.ThreadMessage) []*entity.ThreadMessage {
	entities := make([]*entity.ThreadMessage, len(messages))
	for i, msg := range messages {
		entities[i] = m.ToEntity(msg)
	}
	return entities
}
