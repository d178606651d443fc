package notify

import (
	"context"
	"log/slog"

	"github.com/degen-feed/degen-feed/internal/domain/models"
)

// BriefRecorder откладывает обновление для будущего ежедневного брифа.
type BriefRecorder interface {
	AddUpdate(ctx context.Context, update *models.TopicUpdate) error
}

// BriefAwareNotifier дублирует каждое обновление в накопитель брифов
// перед отправкой основным транспортом. Ошибка накопителя не блокирует
// доставку обновления.
type BriefAwareNotifier struct {
	notifier BotNotifier
	brief    BriefRecorder
	logger   *slog.Logger
}

func NewBriefAwareNotifier(notifier BotNotifier, brief BriefRecorder, logger *slog.Logger) *BriefAwareNotifier {
	return &BriefAwareNotifier{
		notifier: notifier,
		brief:    brief,
		logger:   logger,
	}
}

func (n *BriefAwareNotifier) SendUpdate(ctx context.Context, update *models.TopicUpdate) error {
	if err := n.brief.AddUpdate(ctx, update); err != nil {
		n.logger.Error("Ошибка при накоплении обновления для брифа",
			"error", err,
			"userID", update.UserID,
			"topicID", update.TopicID,
		)
	}

	return n.notifier.SendUpdate(ctx, update)
}
