package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ThreadRepository interface {
	Create(ctx context.Context, thread *entity.Thread) error
	Update(ctx context.Context, thread *entity.Thread) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thread, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thread, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type ThreadMessageRepository interface {
	Create(ctx context.Context, message *entity.ThreadMessage) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ThreadMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ThreadMessage, error)
	FindRecentByThreadId(ctx context.Context, threadId uuid.UUID, limit int) ([]*entity.ThreadMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
