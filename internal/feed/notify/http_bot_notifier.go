package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/degen-feed/degen-feed/internal/common/httputil"
	"github.com/degen-feed/degen-feed/internal/config"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/go-resty/resty/v2"
)

type HTTPBotNotifier struct {
	client  *resty.Client
	baseURL string
	logger  *slog.Logger
}

func NewHTTPBotNotifier(baseURL string, cfg *config.Config, logger *slog.Logger) *HTTPBotNotifier {
	if baseURL == "" {
		baseURL = "http://degen_feed_bot:8081"
	}

	client := httputil.CreateResilientHTTPClient(cfg, logger, "bot_service")

	return &HTTPBotNotifier{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (n *HTTPBotNotifier) SendUpdate(ctx context.Context, update *models.TopicUpdate) error {
	n.logger.Info("Отправка уведомления в бота",
		"topicID", update.TopicID,
		"userID", update.UserID,
	)

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(update).
		Post(n.baseURL + "/updates")

	if err != nil {
		n.logger.Error("Ошибка при отправке уведомления в бота",
			"error", err,
		)

		return fmt.Errorf("ошибка при отправке уведомления в бота: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("бот вернул статус: %d", resp.StatusCode())
	}

	n.logger.Info("Уведомление успешно отправлено")

	return nil
}
