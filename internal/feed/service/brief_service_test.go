package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/degen-feed/degen-feed/internal/feed/repository/memory"
	"github.com/degen-feed/degen-feed/internal/feed/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBriefCache struct {
	mu      sync.Mutex
	updates map[int64][]*models.TopicUpdate
}

func newMemoryBriefCache() *memoryBriefCache {
	return &memoryBriefCache{updates: make(map[int64][]*models.TopicUpdate)}
}

func (c *memoryBriefCache) AddUpdate(_ context.Context, userID int64, update *models.TopicUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.updates[userID] = append(c.updates[userID], update)

	return nil
}

func (c *memoryBriefCache) GetUpdates(_ context.Context, userID int64) ([]*models.TopicUpdate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.updates[userID], nil
}

func (c *memoryBriefCache) ClearUpdates(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.updates, userID)

	return nil
}

func (c *memoryBriefCache) Close() error { return nil }

func newBriefService(t *testing.T) (*service.BriefService, *memory.UserRepository, *memoryBriefCache, *stubNotifier) {
	t.Helper()

	userRepo := memory.NewUserRepository()
	briefCache := newMemoryBriefCache()
	notifier := &stubNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return service.NewBriefService(notifier, briefCache, userRepo, logger), userRepo, briefCache, notifier
}

func TestBriefService_AddUpdateRespectsPreference(t *testing.T) {
	svc, userRepo, briefCache, _ := newBriefService(t)
	ctx := context.Background()

	enabled := &models.User{ID: 1, BriefEnabled: true}
	disabled := &models.User{ID: 2}
	require.NoError(t, userRepo.Upsert(ctx, enabled))
	require.NoError(t, userRepo.Upsert(ctx, disabled))

	require.NoError(t, svc.AddUpdate(ctx, &models.TopicUpdate{UserID: 1, TopicID: 11, DisplayName: "degen"}))
	require.NoError(t, svc.AddUpdate(ctx, &models.TopicUpdate{UserID: 2, TopicID: 22, DisplayName: "alpha"}))

	stored, err := briefCache.GetUpdates(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	stored, err = briefCache.GetUpdates(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, stored, "обновления не копятся при выключенных брифах")
}

func TestBriefService_SendBriefNow(t *testing.T) {
	svc, userRepo, briefCache, notifier := newBriefService(t)
	ctx := context.Background()

	require.NoError(t, userRepo.Upsert(ctx, &models.User{ID: 1, BriefEnabled: true}))

	require.NoError(t, svc.AddUpdate(ctx, &models.TopicUpdate{
		UserID:         1,
		TopicID:        11,
		DisplayName:    "degen",
		TwitterSummary: "stale summary",
		UpdatedAt:      time.Now().Add(-time.Hour),
	}))
	require.NoError(t, svc.AddUpdate(ctx, &models.TopicUpdate{
		UserID:         1,
		TopicID:        11,
		DisplayName:    "degen",
		TwitterSummary: "fresh summary",
		UpdatedAt:      time.Now(),
	}))
	require.NoError(t, svc.AddUpdate(ctx, &models.TopicUpdate{
		UserID:          1,
		TopicID:         12,
		DisplayName:     "alpha_calls",
		TelegramSummary: "channel summary",
		UpdatedAt:       time.Now(),
	}))

	sent, err := svc.SendBriefNow(ctx, 1)
	require.NoError(t, err)
	assert.True(t, sent)

	require.Len(t, notifier.updates, 1)
	message := notifier.updates[0].Message
	assert.Contains(t, message, "Daily Brief")
	assert.Contains(t, message, "degen")
	assert.Contains(t, message, "fresh summary")
	assert.NotContains(t, message, "stale summary", "в бриф попадает только последнее обновление топика")
	assert.Contains(t, message, "alpha_calls")
	assert.Contains(t, message, "channel summary")

	stored, err := briefCache.GetUpdates(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stored, "кэш очищается после отправки")
}

func TestBriefService_SendBriefNowEmpty(t *testing.T) {
	svc, userRepo, _, notifier := newBriefService(t)
	ctx := context.Background()

	require.NoError(t, userRepo.Upsert(ctx, &models.User{ID: 1, BriefEnabled: true}))

	sent, err := svc.SendBriefNow(ctx, 1)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, notifier.updates)
}
