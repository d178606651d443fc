package notify

import (
	"context"
	"log/slog"

	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type FallbackBotNotifier struct {
	primary   BotNotifier
	secondary BotNotifier
	logger    *slog.Logger
}

func NewFallbackBotNotifier(primary, secondary BotNotifier, logger *slog.Logger) *FallbackBotNotifier {
	return &FallbackBotNotifier{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// SendUpdate пробует основной транспорт, при его отказе резервный.
// Если оба недоступны, возвращается ошибка основного.
func (n *FallbackBotNotifier) SendUpdate(ctx context.Context, update *models.TopicUpdate) error {
	err := n.primary.SendUpdate(ctx, update)
	if err == nil {
		return nil
	}

	n.logger.Warn("Основной транспорт недоступен, переключаемся на резервный",
		"primaryError", err,
		"topicID", update.TopicID,
	)

	fallbackErr := n.secondary.SendUpdate(ctx, update)
	if fallbackErr != nil {
		return err
	}

	n.logger.Info("Уведомление успешно отправлено через резервный транспорт",
		"topicID", update.TopicID,
	)

	return nil
}
