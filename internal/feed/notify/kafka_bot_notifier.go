package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/segmentio/kafka-go"
)

type KafkaBotNotifier struct {
	producer    *kafka.Writer
	dlqProducer *kafka.Writer
	logger      *slog.Logger
	updateTopic string
	dlqTopic    string
}

func NewKafkaBotNotifier(brokers []string, updateTopic, dlqTopic string, logger *slog.Logger) *KafkaBotNotifier {
	producer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        updateTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	dlqProducer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        dlqTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return &KafkaBotNotifier{
		producer:    producer,
		dlqProducer: dlqProducer,
		logger:      logger,
		updateTopic: updateTopic,
		dlqTopic:    dlqTopic,
	}
}

func (n *KafkaBotNotifier) SendUpdate(ctx context.Context, update *models.TopicUpdate) error {
	n.logger.Info("Отправка уведомления в Kafka",
		"topicID", update.TopicID,
		"userID", update.UserID,
		"topic", n.updateTopic,
	)

	value, err := json.Marshal(update)
	if err != nil {
		n.logger.Error("Ошибка при сериализации сообщения",
			"error", err,
		)

		return fmt.Errorf("ошибка при сериализации сообщения: %w", err)
	}

	err = n.producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", update.TopicID)),
		Value: value,
		Time:  time.Now(),
	})

	if err != nil {
		n.logger.Error("Ошибка при отправке сообщения в Kafka",
			"error", err,
		)

		return fmt.Errorf("ошибка при отправке сообщения в Kafka: %w", err)
	}

	n.logger.Info("Уведомление успешно отправлено в Kafka")

	return nil
}

func (n *KafkaBotNotifier) SendToDLQ(ctx context.Context, message []byte, errMsg string) error {
	n.logger.Info("Отправка сообщения в DLQ",
		"error", errMsg,
		"topic", n.dlqTopic,
	)

	err := n.dlqProducer.WriteMessages(ctx, kafka.Message{
		Key:   []byte("error"),
		Value: message,
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(errMsg)},
			{Key: "timestamp", Value: []byte(time.Now().Format(time.RFC3339))},
		},
		Time: time.Now(),
	})

	if err != nil {
		n.logger.Error("Ошибка при отправке сообщения в DLQ",
			"error", err,
		)

		return fmt.Errorf("ошибка при отправке сообщения в DLQ: %w", err)
	}

	return nil
}

func (n *KafkaBotNotifier) Close() error {
	if err := n.producer.Close(); err != nil {
		return err
	}

	return n.dlqProducer.Close()
}
