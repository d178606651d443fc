package repository

import (
	"context"
	"time"

	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type TopicRepository interface {
	Save(ctx context.Context, topic *models.Topic) error
	FindByID(ctx context.Context, id int64) (*models.Topic, error)
	FindByUserID(ctx context.Context, userID int64) ([]*models.Topic, error)
	Update(ctx context.Context, topic *models.Topic) error
	Delete(ctx context.Context, id, userID int64) error
	UpdateOrders(ctx context.Context, userID int64, orders []models.OrderUpdate) error
	FindStale(ctx context.Context, olderThan time.Time, limit, offset int) ([]*models.Topic, error)
	Count(ctx context.Context) (int, error)
	CountByType(ctx context.Context) (map[models.TopicType]int, error)
}

type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePreferences(ctx context.Context, user *models.User) error
	FindByBriefTime(ctx context.Context, hour, minute int) ([]*models.User, error)
}
