package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/degen-feed/degen-feed/internal/bot/domain"
	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type TelegramClient struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

func NewTelegramClient(token string, logger *slog.Logger) domain.TelegramClientAPI {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Ошибка при создании Telegram клиента", "error", err)
	}

	return &TelegramClient{
		bot:    bot,
		logger: logger,
	}
}

// SetBaseURL устанавливает базовый URL для API Telegram (используется в тестах).
func (c *TelegramClient) SetBaseURL(url string) {
	if c.bot != nil {
		c.bot.SetAPIEndpoint(url)
	}
}

func (c *TelegramClient) SendUpdate(_ context.Context, update *models.TopicUpdate) error {
	if c.bot == nil {
		return fmt.Errorf("telegram клиент не инициализирован")
	}

	msg := tgbotapi.NewMessage(update.UserID, FormatUpdateMessage(update))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("ошибка при отправке обновления: %w", err)
	}

	return nil
}

func (c *TelegramClient) SendMessage(_ context.Context, chatID int64, text string) error {
	if c.bot == nil {
		return fmt.Errorf("telegram клиент не инициализирован")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("ошибка при отправке сообщения: %w", err)
	}

	return nil
}

func (c *TelegramClient) SetMyCommands(_ context.Context, commands []domain.BotCommand) error {
	if c.bot == nil {
		return fmt.Errorf("telegram клиент не инициализирован")
	}

	botAPICommands := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		botAPICommands = append(botAPICommands, tgbotapi.BotCommand{
			Command:     cmd.Command,
			Description: cmd.Description,
		})
	}

	setCommandsConfig := tgbotapi.NewSetMyCommands(botAPICommands...)

	if _, err := c.bot.Request(setCommandsConfig); err != nil {
		return fmt.Errorf("ошибка при установке команд бота: %w", err)
	}

	return nil
}

func (c *TelegramClient) GetBot() *tgbotapi.BotAPI {
	return c.bot
}

// FormatUpdateMessage строит текст сообщения для обновления топика.
// Готовый текст брифа (Message) отправляется как есть.
func FormatUpdateMessage(update *models.TopicUpdate) string {
	if update.Message != "" {
		return update.Message
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🔔 *%s updated*\n\n", update.DisplayName))

	if update.TwitterSummary != "" {
		sb.WriteString(fmt.Sprintf("𝕏 %s\n\n", update.TwitterSummary))
	}

	if update.TelegramSummary != "" {
		sb.WriteString(fmt.Sprintf("✈️ %s\n", update.TelegramSummary))
	}

	return strings.TrimRight(sb.String(), "\n")
}
