package cache_test

import (
	"context"
	"testing"
	"time"

	"log/slog"
	"os"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/degen-feed/degen-feed/internal/feed/cache"
)

func TestRedisBriefCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx := context.Background()

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	defer func() {
		if err := redisContainer.Terminate(context.Background()); err != nil {
			t.Logf("Ошибка при остановке Redis контейнера: %v", err)
		}
	}()

	redisEndpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	briefCache, err := cache.NewRedisBriefCache(ctx, redisEndpoint, "", 0, 30*time.Second, logger)
	require.NoError(t, err)

	defer briefCache.Close()

	userID := int64(123456789)

	updates, err := briefCache.GetUpdates(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, updates)

	first := &models.TopicUpdate{
		TopicID:        1,
		UserID:         userID,
		DisplayName:    "Degen",
		TwitterSummary: "degen is hyping a new L2 launch.",
		UpdatedAt:      time.Now().UTC(),
	}
	second := &models.TopicUpdate{
		TopicID:         2,
		UserID:          userID,
		DisplayName:     "alpha_calls",
		TelegramSummary: "alpha_calls discussed new listings.",
		UpdatedAt:       time.Now().UTC(),
	}

	require.NoError(t, briefCache.AddUpdate(ctx, userID, first))
	require.NoError(t, briefCache.AddUpdate(ctx, userID, second))

	updates, err = briefCache.GetUpdates(ctx, userID)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	assert.Equal(t, first.TopicID, updates[0].TopicID)
	assert.Equal(t, first.DisplayName, updates[0].DisplayName)
	assert.Equal(t, first.TwitterSummary, updates[0].TwitterSummary)
	assert.Equal(t, second.TopicID, updates[1].TopicID)
	assert.Equal(t, second.TelegramSummary, updates[1].TelegramSummary)

	require.NoError(t, briefCache.ClearUpdates(ctx, userID))

	updates, err = briefCache.GetUpdates(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, updates)

	shortTTLCache, err := cache.NewRedisBriefCache(ctx, redisEndpoint, "", 0, time.Second, logger)
	require.NoError(t, err)

	defer shortTTLCache.Close()

	require.NoError(t, shortTTLCache.AddUpdate(ctx, userID+1, first))

	updates, err = shortTTLCache.GetUpdates(ctx, userID+1)
	require.NoError(t, err)
	require.Len(t, updates, 1)

	time.Sleep(2 * time.Second)

	updates, err = shortTTLCache.GetUpdates(ctx, userID+1)
	require.NoError(t, err)
	assert.Empty(t, updates, "обновления истекают по TTL")
}
