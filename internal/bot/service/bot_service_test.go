package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/degen-feed/degen-feed/internal/bot/domain"
	"github.com/degen-feed/degen-feed/internal/bot/service"
	domainerrors "github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/degen-feed/degen-feed/internal/feed/repository/memory"
)

type stubTelegramClient struct {
	mu       sync.Mutex
	messages []string
	updates  []*models.TopicUpdate
}

func (s *stubTelegramClient) SendMessage(_ context.Context, _ int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, text)

	return nil
}

func (s *stubTelegramClient) SendUpdate(_ context.Context, update *models.TopicUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates = append(s.updates, update)

	return nil
}

func (s *stubTelegramClient) SetMyCommands(_ context.Context, _ []domain.BotCommand) error {
	return nil
}

func (s *stubTelegramClient) GetBot() *tgbotapi.BotAPI {
	return nil
}

func newBotService(t *testing.T) (*service.BotService, *memory.TopicRepository, *memory.UserRepository, *stubTelegramClient) {
	t.Helper()

	topicRepo := memory.NewTopicRepository()
	userRepo := memory.NewUserRepository()
	client := &stubTelegramClient{}

	return service.NewBotService(topicRepo, userRepo, client), topicRepo, userRepo, client
}

func saveTopic(t *testing.T, repo *memory.TopicRepository, topic *models.Topic) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), topic))
}

func TestBotService_StartRegistersUser(t *testing.T) {
	svc, _, userRepo, _ := newBotService(t)
	ctx := context.Background()

	response, err := svc.ProcessCommand(ctx, &models.Command{
		ChatID:    7,
		UserID:    7,
		FirstName: "Ava",
		Username:  "ava",
		Type:      models.CommandStart,
	})

	require.NoError(t, err)
	assert.Contains(t, response, "Welcome to Degen Feed")

	user, err := userRepo.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Ava", user.FirstName)
}

func TestBotService_ListEmpty(t *testing.T) {
	svc, _, _, _ := newBotService(t)

	response, err := svc.ProcessCommand(context.Background(), &models.Command{
		UserID: 7,
		Type:   models.CommandList,
	})

	require.NoError(t, err)
	assert.Contains(t, response, "not tracking any sources")
}

func TestBotService_ListTopics(t *testing.T) {
	svc, topicRepo, _, _ := newBotService(t)
	ctx := context.Background()

	saveTopic(t, topicRepo, &models.Topic{
		UserID:      7,
		Type:        models.TwitterTopic,
		Username:    "degen",
		DisplayName: "degen",
	})
	saveTopic(t, topicRepo, &models.Topic{
		UserID:      7,
		Type:        models.TelegramTopic,
		ChannelName: "alpha_calls",
		DisplayName: "Alpha Calls",
	})

	response, err := svc.ProcessCommand(ctx, &models.Command{
		UserID: 7,
		Type:   models.CommandList,
	})

	require.NoError(t, err)
	assert.Contains(t, response, "1. degen (@degen)")
	assert.Contains(t, response, "2. Alpha Calls (t.me/alpha_calls)")
}

func TestBotService_BriefCommand(t *testing.T) {
	svc, topicRepo, _, _ := newBotService(t)
	ctx := context.Background()

	saveTopic(t, topicRepo, &models.Topic{
		UserID:         7,
		Type:           models.TwitterTopic,
		Username:       "degen",
		DisplayName:    "degen",
		TwitterSummary: "posting about the new memecoin meta",
		LastUpdated:    time.Now(),
	})

	response, err := svc.ProcessCommand(ctx, &models.Command{
		UserID: 7,
		Type:   models.CommandBrief,
	})

	require.NoError(t, err)
	assert.Contains(t, response, "Brief for")
	assert.Contains(t, response, "degen")
	assert.Contains(t, response, "posting about the new memecoin meta")
}

func TestBotService_UnknownCommand(t *testing.T) {
	svc, _, _, _ := newBotService(t)

	response, err := svc.ProcessCommand(context.Background(), &models.Command{
		UserID: 7,
		Type:   models.CommandUnknown,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, &domainerrors.ErrUnknownCommand{})
	assert.Contains(t, response, "Unknown command")
}

func TestBotService_HandleUpdateForwards(t *testing.T) {
	svc, _, _, client := newBotService(t)

	update := &models.TopicUpdate{TopicID: 1, UserID: 7, DisplayName: "degen"}

	require.NoError(t, svc.HandleUpdate(context.Background(), update))
	require.Len(t, client.updates, 1)
	assert.Equal(t, update, client.updates[0])
}
