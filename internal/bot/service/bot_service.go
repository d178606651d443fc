package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/degen-feed/degen-feed/internal/bot/domain"
	domainerrors "github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type TopicReader interface {
	FindByUserID(ctx context.Context, userID int64) ([]*models.Topic, error)
}

type UserRegistrar interface {
	Upsert(ctx context.Context, user *models.User) error
}

type BotService struct {
	topicRepo      TopicReader
	userRepo       UserRegistrar
	telegramClient domain.TelegramClientAPI
}

func NewBotService(
	topicRepo TopicReader,
	userRepo UserRegistrar,
	telegramClient domain.TelegramClientAPI,
) *BotService {
	return &BotService{
		topicRepo:      topicRepo,
		userRepo:       userRepo,
		telegramClient: telegramClient,
	}
}

func (s *BotService) ProcessCommand(ctx context.Context, command *models.Command) (string, error) {
	switch command.Type {
	case models.CommandStart:
		return s.handleStartCommand(ctx, command)
	case models.CommandHelp:
		return s.handleHelpCommand()
	case models.CommandList:
		return s.handleListCommand(ctx, command)
	case models.CommandBrief:
		return s.handleBriefCommand(ctx, command)
	default:
		return "Unknown command. Send /help to see what I can do.",
			&domainerrors.ErrUnknownCommand{Command: string(command.Type)}
	}
}

func (s *BotService) SendTopicUpdate(ctx context.Context, update *models.TopicUpdate) error {
	return s.telegramClient.SendUpdate(ctx, update)
}

func (s *BotService) HandleUpdate(ctx context.Context, update *models.TopicUpdate) error {
	return s.SendTopicUpdate(ctx, update)
}

func (s *BotService) handleStartCommand(ctx context.Context, command *models.Command) (string, error) {
	user := &models.User{
		ID:        command.UserID,
		FirstName: command.FirstName,
		LastName:  command.LastName,
		Username:  command.Username,
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return "", err
	}

	return "Welcome to Degen Feed! Track X accounts and Telegram channels, " +
		"get AI summaries of what they post. Open the Mini App to add your first topic, " +
		"or send /help to see the commands.", nil
}

func (s *BotService) handleHelpCommand() (string, error) {
	return `Available commands:
/start - register
/help - this message
/list - show tracked sources
/brief - get a summary of all your topics right now`, nil
}

func (s *BotService) handleListCommand(ctx context.Context, command *models.Command) (string, error) {
	topics, err := s.topicRepo.FindByUserID(ctx, command.UserID)
	if err != nil {
		return "", err
	}

	if len(topics) == 0 {
		return "You are not tracking any sources yet. Open the Mini App to add one.", nil
	}

	var sb strings.Builder

	sb.WriteString("Your tracked sources:\n\n")

	for i, topic := range topics {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, topic.DisplayName, sourceLabel(topic)))
	}

	return sb.String(), nil
}

func (s *BotService) handleBriefCommand(ctx context.Context, command *models.Command) (string, error) {
	topics, err := s.topicRepo.FindByUserID(ctx, command.UserID)
	if err != nil {
		return "", err
	}

	if len(topics) == 0 {
		return "You are not tracking any sources yet. Open the Mini App to add one.", nil
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📋 *Brief for %s*\n\n", time.Now().Format("January 2, 2006")))

	for _, topic := range topics {
		sb.WriteString(fmt.Sprintf("🔔 *%s*\n", topic.DisplayName))

		if topic.TwitterSummary != "" {
			sb.WriteString(fmt.Sprintf("𝕏 %s\n", topic.TwitterSummary))
		}

		if topic.TelegramSummary != "" {
			sb.WriteString(fmt.Sprintf("✈️ %s\n", topic.TelegramSummary))
		}

		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}

func sourceLabel(topic *models.Topic) string {
	switch topic.Type {
	case models.TwitterTopic:
		return "@" + topic.Username
	case models.TelegramTopic, models.PrivateTelegramTopic:
		return "t.me/" + topic.ChannelName
	case models.BothTopic:
		return "@" + topic.Username + " + t.me/" + topic.ChannelName
	default:
		return string(topic.Type)
	}
}
