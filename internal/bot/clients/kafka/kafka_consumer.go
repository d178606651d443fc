package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	boterrors "github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/segmentio/kafka-go"
)

type MessageHandler interface {
	HandleUpdate(ctx context.Context, update *models.TopicUpdate) error
}

type Consumer struct {
	reader         *kafka.Reader
	dlqWriter      *kafka.Writer
	messageHandler MessageHandler
	logger         *slog.Logger
	updatesTopic   string
	dlqTopic       string
}

func NewConsumer(
	brokers []string,
	groupID string,
	updatesTopic string,
	dlqTopic string,
	messageHandler MessageHandler,
	logger *slog.Logger,
) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          updatesTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: 1 * time.Second,
		Logger:         kafka.LoggerFunc(logger.Debug),
		ErrorLogger:    kafka.LoggerFunc(logger.Error),
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        dlqTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return &Consumer{
		reader:         reader,
		dlqWriter:      dlqWriter,
		messageHandler: messageHandler,
		logger:         logger,
		updatesTopic:   updatesTopic,
		dlqTopic:       dlqTopic,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info("Запуск потребления сообщений из Kafka",
		"topic", c.updatesTopic,
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Остановка потребления сообщений из Kafka")
				return
			default:
				msg, err := c.reader.ReadMessage(ctx)
				if err != nil {
					c.logger.Error("Ошибка при чтении сообщения из Kafka",
						"error", err,
					)

					continue
				}

				c.logger.Info("Получено сообщение из Kafka",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
				)

				if err := c.processMessage(ctx, &msg); err != nil {
					c.logger.Error("Ошибка при обработке сообщения",
						"error", err,
					)
				}
			}
		}
	}()
}

func (c *Consumer) processMessage(ctx context.Context, msg *kafka.Message) error {
	var update models.TopicUpdate

	if err := json.Unmarshal(msg.Value, &update); err != nil {
		c.logger.Error("Ошибка при десериализации сообщения",
			"error", err,
		)

		if sendErr := c.sendToDLQ(ctx, msg.Value, fmt.Sprintf("Ошибка десериализации: %s", err)); sendErr != nil {
			c.logger.Error("Ошибка при отправке сообщения в DLQ",
				"error", sendErr,
			)
		}

		return fmt.Errorf("ошибка при десериализации сообщения: %w", err)
	}

	if update.UserID == 0 {
		newErr := &boterrors.ErrInvalidUpdate{Reason: "отсутствует обязательное поле userId"}
		c.logger.Error(newErr.Error())

		if sendErr := c.sendToDLQ(ctx, msg.Value, newErr.Error()); sendErr != nil {
			c.logger.Error("Ошибка при отправке сообщения в DLQ",
				"error", sendErr,
			)
		}

		return newErr
	}

	if err := c.messageHandler.HandleUpdate(ctx, &update); err != nil {
		c.logger.Error("Ошибка при обработке обновления",
			"error", err,
		)

		return fmt.Errorf("ошибка при обработке обновления: %w", err)
	}

	c.logger.Info("Сообщение успешно обработано")

	return nil
}

func (c *Consumer) sendToDLQ(ctx context.Context, message []byte, errMsg string) error {
	c.logger.Info("Отправка сообщения в DLQ",
		"error", errMsg,
		"topic", c.dlqTopic,
	)

	err := c.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte("error"),
		Value: message,
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(errMsg)},
			{Key: "timestamp", Value: []byte(time.Now().Format(time.RFC3339))},
		},
		Time: time.Now(),
	})

	if err != nil {
		c.logger.Error("Ошибка при отправке сообщения в DLQ",
			"error", err,
		)

		return fmt.Errorf("ошибка при отправке сообщения в DLQ: %w", err)
	}

	c.logger.Info("Сообщение успешно отправлено в DLQ")

	return nil
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return err
	}

	return c.dlqWriter.Close()
}
