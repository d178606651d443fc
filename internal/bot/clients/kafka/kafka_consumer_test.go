package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	kafkaClient "github.com/degen-feed/degen-feed/internal/bot/clients/kafka"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockMessageHandler struct {
	mu      sync.Mutex
	updates []*models.TopicUpdate
}

func (m *mockMessageHandler) HandleUpdate(_ context.Context, update *models.TopicUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates = append(m.updates, update)

	return nil
}

func (m *mockMessageHandler) received(topicID int64) *models.TopicUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, update := range m.updates {
		if update.TopicID == topicID {
			return update
		}
	}

	return nil
}

func createTopicsAdmin(ctx context.Context, brokers []string, topics ...string) error {
	topicConfigs := make([]segkafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		topicConfigs = append(topicConfigs, segkafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}

	client := &segkafka.Client{
		Addr:    segkafka.TCP(brokers...),
		Timeout: 30 * time.Second,
	}

	deadline := time.Now().Add(90 * time.Second)

	var lastErr error

	for time.Now().Before(deadline) {
		resp, err := client.CreateTopics(ctx, &segkafka.CreateTopicsRequest{
			Topics: topicConfigs,
		})
		if err != nil {
			lastErr = err
			time.Sleep(5 * time.Second)

			continue
		}

		allReady := true

		for topicName, topicErr := range resp.Errors {
			if topicErr != nil && !errors.Is(topicErr, segkafka.TopicAlreadyExists) {
				lastErr = fmt.Errorf("ошибка создания топика %s: %w", topicName, topicErr)
				allReady = false
			}
		}

		if allReady {
			return nil
		}

		time.Sleep(5 * time.Second)
	}

	return fmt.Errorf("не удалось создать топики %v: %w", topics, lastErr)
}

func TestKafkaIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в режиме short")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	kafkaContainer, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "Не удалось запустить контейнер Kafka")

	defer func() {
		termCtx, termCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer termCancel()

		if err := kafkaContainer.Terminate(termCtx); err != nil {
			logger.Error("Ошибка при остановке контейнера Kafka", "error", err)
		}
	}()

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "Не удалось получить адрес брокеров Kafka")
	require.NotEmpty(t, kafkaBrokers)

	updatesTopic := fmt.Sprintf("test-topic-updates-%d", time.Now().UnixNano())
	dlqTopic := fmt.Sprintf("test-dlq-%d", time.Now().UnixNano())

	createCtx, createCancel := context.WithTimeout(ctx, 95*time.Second)
	defer createCancel()

	require.NoError(t, createTopicsAdmin(createCtx, kafkaBrokers, updatesTopic, dlqTopic))

	writer := &segkafka.Writer{
		Addr:         segkafka.TCP(kafkaBrokers...),
		Topic:        updatesTopic,
		Balancer:     &segkafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: segkafka.RequireOne,
	}
	defer writer.Close()

	messageHandler := &mockMessageHandler{}

	consumer := kafkaClient.NewConsumer(
		kafkaBrokers,
		fmt.Sprintf("test-group-%d", time.Now().UnixNano()),
		updatesTopic,
		dlqTopic,
		messageHandler,
		logger,
	)
	defer consumer.Close()

	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	consumer.Start(consumerCtx)
	time.Sleep(5 * time.Second)

	update := &models.TopicUpdate{
		TopicID:         910,
		UserID:          505,
		DisplayName:     "degen",
		TwitterSummary:  "summary of recent posts",
		TelegramSummary: "channel summary",
		UpdatedAt:       time.Now().UTC().Truncate(time.Millisecond),
	}

	jsonData, err := json.Marshal(update)
	require.NoError(t, err)

	sendCtx, sendCancel := context.WithTimeout(ctx, 20*time.Second)
	defer sendCancel()

	err = writer.WriteMessages(sendCtx, segkafka.Message{
		Key:   []byte(fmt.Sprintf("topic-%d", update.TopicID)),
		Value: jsonData,
		Time:  time.Now(),
	})
	require.NoError(t, err, "Ошибка при отправке сообщения в Kafka")

	var received *models.TopicUpdate

	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		if received = messageHandler.received(update.TopicID); received != nil {
			break
		}

		time.Sleep(500 * time.Millisecond)
	}

	require.NotNil(t, received, "Сообщение не было получено обработчиком в течение отведенного времени")
	assert.Equal(t, update.UserID, received.UserID)
	assert.Equal(t, update.DisplayName, received.DisplayName)
	assert.Equal(t, update.TwitterSummary, received.TwitterSummary)
	assert.Equal(t, update.TelegramSummary, received.TelegramSummary)
	assert.Equal(t, update.UpdatedAt, received.UpdatedAt.UTC().Truncate(time.Millisecond))
}
