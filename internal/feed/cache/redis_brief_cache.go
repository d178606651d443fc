package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/degen-feed/degen-feed/internal/domain/models"
)

// BriefCache накапливает обновления топиков для ежедневного брифа пользователя.
type BriefCache interface {
	AddUpdate(ctx context.Context, userID int64, update *models.TopicUpdate) error
	GetUpdates(ctx context.Context, userID int64) ([]*models.TopicUpdate, error)
	ClearUpdates(ctx context.Context, userID int64) error
	Close() error
}

type RedisBriefCache struct {
	client     *redis.Client
	ttl        time.Duration
	logger     *slog.Logger
	keyPattern string
}

func NewRedisBriefCache(
	ctx context.Context,
	redisURL, password string,
	db int,
	ttl time.Duration,
	logger *slog.Logger,
) (*RedisBriefCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ошибка при подключении к Redis: %w", err)
	}

	logger.Info("Соединение с Redis для кэша брифов успешно установлено")

	return &RedisBriefCache{
		client:     client,
		ttl:        ttl,
		logger:     logger,
		keyPattern: "brief:updates:%d",
	}, nil
}

func (c *RedisBriefCache) AddUpdate(ctx context.Context, userID int64, update *models.TopicUpdate) error {
	key := fmt.Sprintf(c.keyPattern, userID)

	updates, err := c.GetUpdates(ctx, userID)
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("ошибка при получении текущих обновлений: %w", err)
	}

	updates = append(updates, update)

	data, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации данных для Redis: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка при сохранении обновлений в Redis: %w", err)
	}

	c.logger.Debug("Обновление добавлено в бриф",
		"userID", userID,
		"topicID", update.TopicID,
		"count", len(updates),
	)

	return nil
}

func (c *RedisBriefCache) GetUpdates(ctx context.Context, userID int64) ([]*models.TopicUpdate, error) {
	key := fmt.Sprintf(c.keyPattern, userID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*models.TopicUpdate{}, nil
		}

		return nil, fmt.Errorf("ошибка при получении обновлений из Redis: %w", err)
	}

	var updates []*models.TopicUpdate
	if err := json.Unmarshal(data, &updates); err != nil {
		return nil, fmt.Errorf("ошибка при десериализации данных из Redis: %w", err)
	}

	return updates, nil
}

func (c *RedisBriefCache) ClearUpdates(ctx context.Context, userID int64) error {
	key := fmt.Sprintf(c.keyPattern, userID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("ошибка при удалении обновлений из Redis: %w", err)
	}

	c.logger.Debug("Накопленные обновления брифа удалены",
		"userID", userID,
	)

	return nil
}

func (c *RedisBriefCache) Close() error {
	return c.client.Close()
}
