package memory_test

import (
	"context"
	"testing"
	"time"

	domainerrors "github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/degen-feed/degen-feed/internal/feed/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTopic(userID int64, username string) *models.Topic {
	return &models.Topic{
		UserID:      userID,
		Type:        models.TwitterTopic,
		Username:    username,
		DisplayName: username,
		LastUpdated: time.Now(),
	}
}

func TestTopicRepository_SaveAssignsSequentialOrder(t *testing.T) {
	repo := memory.NewTopicRepository()
	ctx := context.Background()

	first := newTopic(1, "alpha")
	second := newTopic(1, "beta")
	other := newTopic(2, "gamma")

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, other))

	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, 0, other.Order)
}

func TestTopicRepository_SaveDuplicateCaseInsensitive(t *testing.T) {
	repo := memory.NewTopicRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTopic(1, "Alpha")))

	err := repo.Save(ctx, newTopic(1, "ALPHA"))

	require.Error(t, err)
	assert.ErrorIs(t, err, &domainerrors.ErrTopicAlreadyExists{})

	require.NoError(t, repo.Save(ctx, newTopic(2, "alpha")))
}

func TestTopicRepository_DeleteRenumbers(t *testing.T) {
	repo := memory.NewTopicRepository()
	ctx := context.Background()

	first := newTopic(1, "alpha")
	second := newTopic(1, "beta")
	third := newTopic(1, "gamma")

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, third))

	require.NoError(t, repo.Delete(ctx, second.ID, 1))

	topics, err := repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, topics, 2)

	assert.Equal(t, "alpha", topics[0].Username)
	assert.Equal(t, 0, topics[0].Order)
	assert.Equal(t, "gamma", topics[1].Username)
	assert.Equal(t, 1, topics[1].Order)
}

func TestTopicRepository_DeleteWrongUser(t *testing.T) {
	repo := memory.NewTopicRepository()
	ctx := context.Background()

	topic := newTopic(1, "alpha")
	require.NoError(t, repo.Save(ctx, topic))

	err := repo.Delete(ctx, topic.ID, 2)

	require.Error(t, err)
	assert.ErrorIs(t, err, &domainerrors.ErrTopicNotFound{})
}

func TestTopicRepository_UpdateOrders(t *testing.T) {
	repo := memory.NewTopicRepository()
	ctx := context.Background()

	first := newTopic(1, "alpha")
	second := newTopic(1, "beta")

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	err := repo.UpdateOrders(ctx, 1, []models.OrderUpdate{
		{TopicID: first.ID, Order: 1},
		{TopicID: second.ID, Order: 0},
	})
	require.NoError(t, err)

	topics, err := repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, topics, 2)

	assert.Equal(t, "beta", topics[0].Username)
	assert.Equal(t, "alpha", topics[1].Username)
}

func TestTopicRepository_FindStale(t *testing.T) {
	repo := memory.NewTopicRepository()
	ctx := context.Background()

	now := time.Now()

	fresh := newTopic(1, "fresh")
	fresh.LastUpdated = now.Add(-1 * time.Hour)

	stale := newTopic(1, "stale")
	stale.LastUpdated = now.Add(-13 * time.Hour)

	older := newTopic(1, "older")
	older.LastUpdated = now.Add(-20 * time.Hour)

	require.NoError(t, repo.Save(ctx, fresh))
	require.NoError(t, repo.Save(ctx, stale))
	require.NoError(t, repo.Save(ctx, older))

	found, err := repo.FindStale(ctx, now.Add(-12*time.Hour), 10, 0)
	require.NoError(t, err)

	require.Len(t, found, 2)
	assert.Equal(t, "older", found[0].Username)
	assert.Equal(t, "stale", found[1].Username)
}

func TestTopicRepository_CountByType(t *testing.T) {
	repo := memory.NewTopicRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTopic(1, "alpha")))
	require.NoError(t, repo.Save(ctx, newTopic(1, "beta")))

	channel := &models.Topic{
		UserID:      1,
		Type:        models.TelegramTopic,
		ChannelName: "calls",
		DisplayName: "calls",
		LastUpdated: time.Now(),
	}
	require.NoError(t, repo.Save(ctx, channel))

	counts, err := repo.CountByType(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, counts[models.TwitterTopic])
	assert.Equal(t, 1, counts[models.TelegramTopic])
}
