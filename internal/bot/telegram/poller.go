package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/degen-feed/degen-feed/internal/bot/domain"
	"github.com/degen-feed/degen-feed/internal/common/metrics"
	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type BotService interface {
	ProcessCommand(ctx context.Context, command *models.Command) (string, error)

	SendTopicUpdate(ctx context.Context, update *models.TopicUpdate) error
}

type Poller struct {
	telegramClient domain.TelegramClientAPI
	botService     BotService
	logger         *slog.Logger
	updatesChan    tgbotapi.UpdatesChannel
	stopChan       chan struct{}
}

func NewPoller(telegramClient domain.TelegramClientAPI, botService BotService, logger *slog.Logger) *Poller {
	return &Poller{
		telegramClient: telegramClient,
		botService:     botService,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

func (p *Poller) Start() {
	p.logger.Info("Запуск Telegram поллера")

	bot := p.telegramClient.GetBot()
	if bot == nil {
		p.logger.Error("Не удалось получить доступ к API бота")
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	p.updatesChan = bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-p.stopChan:
				p.logger.Info("Получен сигнал остановки поллера")
				return
			case update := <-p.updatesChan:
				p.processUpdate(&update)
			}
		}
	}()
}

func (p *Poller) Stop() {
	p.logger.Info("Остановка Telegram поллера")
	close(p.stopChan)
}

func (p *Poller) processUpdate(update *tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	p.logger.Info("Получена команда",
		"chat_id", chatID,
		"user_id", userID,
		"text", update.Message.Text,
	)

	commandName := "/" + update.Message.Command()
	metrics.RecordBotCommand(commandName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	command := &models.Command{
		ChatID:    chatID,
		UserID:    userID,
		Text:      update.Message.Text,
		Username:  update.Message.From.UserName,
		FirstName: update.Message.From.FirstName,
		LastName:  update.Message.From.LastName,
		Type:      getCommandType(commandName),
	}

	response, err := p.botService.ProcessCommand(ctx, command)
	if err != nil {
		p.logger.Error("Ошибка при обработке команды",
			"error", err,
			"chat_id", chatID,
			"text", update.Message.Text,
		)

		if response == "" {
			response = "Something went wrong. Please try again later."
		}
	}

	if response != "" {
		sendCtx, sendCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer sendCancel()

		if err := p.telegramClient.SendMessage(sendCtx, chatID, response); err != nil {
			p.logger.Error("Ошибка при отправке ответа",
				"error", err,
				"chat_id", chatID,
			)
		}
	}
}

func getCommandType(commandName string) models.CommandType {
	switch commandName {
	case "/start":
		return models.CommandStart
	case "/help":
		return models.CommandHelp
	case "/list":
		return models.CommandList
	case "/brief":
		return models.CommandBrief
	default:
		return models.CommandUnknown
	}
}
