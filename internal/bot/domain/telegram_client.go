package domain

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type TelegramClientAPI interface {
	SendMessage(ctx context.Context, chatID int64, text string) error

	SendUpdate(ctx context.Context, update *models.TopicUpdate) error

	SetMyCommands(ctx context.Context, commands []BotCommand) error

	GetBot() *tgbotapi.BotAPI
}

type BotCommand struct {
	Command     string
	Description string
}
