package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/degen-feed/degen-feed/internal/config"
	"github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type BotNotifier interface {
	SendUpdate(ctx context.Context, update *models.TopicUpdate) error
}

type NotifierType string

const (
	HTTPNotifier  NotifierType = "HTTP"
	KafkaNotifier NotifierType = "KAFKA"
)

type NotifierFactory struct {
	config *config.Config
	logger *slog.Logger
}

func NewNotifierFactory(config *config.Config, logger *slog.Logger) *NotifierFactory {
	return &NotifierFactory{
		config: config,
		logger: logger,
	}
}

// CreateNotifier собирает транспорт уведомлений по конфигурации.
// При включенном fallback основной транспорт оборачивается резервным.
func (f *NotifierFactory) CreateNotifier() (BotNotifier, error) {
	primary, err := f.createTransport(f.config.MessageTransport)
	if err != nil {
		return nil, err
	}

	if !f.config.FallbackEnabled {
		return primary, nil
	}

	secondary, err := f.createTransport(f.config.FallbackTransport)
	if err != nil {
		return nil, err
	}

	return NewFallbackBotNotifier(primary, secondary, f.logger), nil
}

func (f *NotifierFactory) createTransport(transport string) (BotNotifier, error) {
	notifierType := NotifierType(strings.ToUpper(transport))

	f.logger.Info("Создание нотификатора",
		"type", notifierType,
	)

	switch notifierType {
	case HTTPNotifier:
		return NewHTTPBotNotifier(f.config.BotBaseURL, f.config, f.logger), nil
	case KafkaNotifier:
		brokers := strings.Split(f.config.KafkaBrokers, ",")
		return NewKafkaBotNotifier(brokers, f.config.TopicUpdatesTopic, f.config.TopicDeadLetterQueue, f.logger), nil
	default:
		return nil, &errors.ErrUnknownNotifierType{Transport: transport}
	}
}
