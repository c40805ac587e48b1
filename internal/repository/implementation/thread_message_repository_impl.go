package implementation

import (
	"context"
	"errors"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ThreadMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ThreadMessageMapper
}

func NewThreadMessageRepository(db *gorm.DB) contract.ThreadMessageRepository {
	return &ThreadMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewThreadMessageMapper(),
	}
}

func (r *ThreadMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ThreadMessageRepositoryImpl) Create(ctx context.Context, message *entity.ThreadMessage) error {
	m := r.mapper.ToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ToEntity(m)
	return nil
}

func (r *ThreadMessageRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ThreadMessage{}, id).Error
}

func (r *ThreadMessageRepositoryImpl) DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("thread_id = ?", threadId).Delete(&model.ThreadMessage{}).Error
}

func (r *ThreadMessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ThreadMessage, error) {
	var m model.ThreadMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ThreadMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ThreadMessage, error) {
	var models []*model.ThreadMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

// FindRecentByThreadId returns the last 'limit' messages of a thread in
// chronological order. The query fetches newest-first then reverses so
// the limit applies to the tail of the conversation.
func (r *ThreadMessageRepositoryImpl) FindRecentByThreadId(ctx context.Context, threadId uuid.UUID, limit int) ([]*entity.ThreadMessage, error) {
	var models []*model.ThreadMessage
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadId).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ThreadMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ThreadMessage{}).Count(&count).Error
	return count, err
}
