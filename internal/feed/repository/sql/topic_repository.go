package sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/degen-feed/degen-feed/internal/database"
	customerrors "github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

const topicColumns = `id, user_id, type, twitter_username, telegram_channel_name, display_name,
	profile_picture_url, summary_length, custom_word_count, twitter_summary, telegram_summary,
	raw_tweets, raw_telegram_messages, last_updated, topic_order, created_at`

type TopicRepository struct {
	db *database.PostgresDB
}

func NewTopicRepository(db *database.PostgresDB) *TopicRepository {
	return &TopicRepository{db: db}
}

// Save добавляет топик в конец списка пользователя. Дубликат источника
// (без учёта регистра) приводит к ErrTopicAlreadyExists.
func (r *TopicRepository) Save(ctx context.Context, topic *models.Topic) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var exists bool

	err = tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM topics
			WHERE user_id = $1
			AND (($2 <> '' AND LOWER(twitter_username) = LOWER($2))
			  OR ($3 <> '' AND LOWER(telegram_channel_name) = LOWER($3)))
		)`,
		topic.UserID, topic.Username, topic.ChannelName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка при проверке существования топика: %w", err)
	}

	if exists {
		return &customerrors.ErrTopicAlreadyExists{Source: topic.DisplayName}
	}

	var nextOrder int

	err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM topics WHERE user_id = $1", topic.UserID).Scan(&nextOrder)
	if err != nil {
		return fmt.Errorf("ошибка при подсчете топиков пользователя: %w", err)
	}

	rawTweets, rawMessages, err := marshalRawContent(topic)
	if err != nil {
		return err
	}

	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now()
	}

	topic.Order = nextOrder

	var id int64

	err = tx.QueryRow(ctx,
		`INSERT INTO topics (user_id, type, twitter_username, telegram_channel_name, display_name,
			profile_picture_url, summary_length, custom_word_count, twitter_summary, telegram_summary,
			raw_tweets, raw_telegram_messages, last_updated, topic_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		topic.UserID, topic.Type, topic.Username, topic.ChannelName, topic.DisplayName,
		topic.ProfilePicture, topic.SummaryLength, topic.CustomWordCount, topic.TwitterSummary, topic.TelegramSummary,
		rawTweets, rawMessages, topic.LastUpdated, topic.Order, topic.CreatedAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении топика: %w", err)
	}

	topic.ID = id

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

func (r *TopicRepository) FindByID(ctx context.Context, id int64) (*models.Topic, error) {
	row := r.db.Pool.QueryRow(ctx,
		"SELECT "+topicColumns+" FROM topics WHERE id = $1", id)

	topic, err := scanTopic(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrTopicNotFound{TopicID: id}
		}

		return nil, fmt.Errorf("ошибка при поиске топика по ID: %w", err)
	}

	return topic, nil
}

func (r *TopicRepository) FindByUserID(ctx context.Context, userID int64) ([]*models.Topic, error) {
	rows, err := r.db.Pool.Query(ctx,
		"SELECT "+topicColumns+" FROM topics WHERE user_id = $1 ORDER BY topic_order", userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе топиков пользователя: %w", err)
	}
	defer rows.Close()

	return collectTopics(rows)
}

func (r *TopicRepository) Update(ctx context.Context, topic *models.Topic) error {
	rawTweets, rawMessages, err := marshalRawContent(topic)
	if err != nil {
		return err
	}

	result, err := r.db.Pool.Exec(ctx,
		`UPDATE topics SET display_name = $1, profile_picture_url = $2, summary_length = $3,
			custom_word_count = $4, twitter_summary = $5, telegram_summary = $6,
			raw_tweets = $7, raw_telegram_messages = $8, last_updated = $9
		WHERE id = $10`,
		topic.DisplayName, topic.ProfilePicture, topic.SummaryLength,
		topic.CustomWordCount, topic.TwitterSummary, topic.TelegramSummary,
		rawTweets, rawMessages, topic.LastUpdated, topic.ID)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении топика: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &customerrors.ErrTopicNotFound{TopicID: topic.ID}
	}

	return nil
}

// Delete удаляет топик и перенумеровывает оставшиеся топики пользователя
// в плотную последовательность 0..n-1.
func (r *TopicRepository) Delete(ctx context.Context, id, userID int64) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	result, err := tx.Exec(ctx, "DELETE FROM topics WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении топика: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &customerrors.ErrTopicNotFound{TopicID: id}
	}

	err = renumberTopics(ctx, tx, userID)
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

func (r *TopicRepository) UpdateOrders(ctx context.Context, userID int64, orders []models.OrderUpdate) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, order := range orders {
		_, err = tx.Exec(ctx,
			"UPDATE topics SET topic_order = $1 WHERE id = $2 AND user_id = $3",
			order.Order, order.TopicID, userID)
		if err != nil {
			return fmt.Errorf("ошибка при обновлении порядка топика: %w", err)
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

func (r *TopicRepository) FindStale(ctx context.Context, olderThan time.Time, limit, offset int) ([]*models.Topic, error) {
	rows, err := r.db.Pool.Query(ctx,
		"SELECT "+topicColumns+` FROM topics
		WHERE last_updated < $1
		ORDER BY last_updated, id
		LIMIT $2 OFFSET $3`,
		olderThan, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе устаревших топиков: %w", err)
	}
	defer rows.Close()

	return collectTopics(rows)
}

func (r *TopicRepository) Count(ctx context.Context) (int, error) {
	var count int

	err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM topics").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете топиков: %w", err)
	}

	return count, nil
}

func (r *TopicRepository) CountByType(ctx context.Context) (map[models.TopicType]int, error) {
	rows, err := r.db.Pool.Query(ctx, "SELECT type, COUNT(*) FROM topics GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("ошибка при подсчете топиков по типам: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TopicType]int)

	for rows.Next() {
		var (
			topicType models.TopicType
			count     int
		)

		if err := rows.Scan(&topicType, &count); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании счетчика типов: %w", err)
		}

		counts[topicType] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов подсчета: %w", err)
	}

	return counts, nil
}

func renumberTopics(ctx context.Context, tx pgx.Tx, userID int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE topics t SET topic_order = ranked.rn
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY topic_order, id) - 1 AS rn
			FROM topics WHERE user_id = $1
		) ranked
		WHERE t.id = ranked.id`,
		userID)
	if err != nil {
		return fmt.Errorf("ошибка при перенумерации топиков: %w", err)
	}

	return nil
}

func marshalRawContent(topic *models.Topic) (rawTweets, rawMessages []byte, err error) {
	tweets := topic.Tweets
	if tweets == nil {
		tweets = []models.Tweet{}
	}

	rawTweets, err = json.Marshal(tweets)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка при сериализации твитов: %w", err)
	}

	messages := topic.TelegramMessages
	if messages == nil {
		messages = []models.TelegramMessage{}
	}

	rawMessages, err = json.Marshal(messages)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка при сериализации сообщений: %w", err)
	}

	return rawTweets, rawMessages, nil
}

func scanTopic(row pgx.Row) (*models.Topic, error) {
	topic := &models.Topic{}

	var rawTweets, rawMessages []byte

	err := row.Scan(&topic.ID, &topic.UserID, &topic.Type, &topic.Username, &topic.ChannelName,
		&topic.DisplayName, &topic.ProfilePicture, &topic.SummaryLength, &topic.CustomWordCount,
		&topic.TwitterSummary, &topic.TelegramSummary, &rawTweets, &rawMessages,
		&topic.LastUpdated, &topic.Order, &topic.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rawTweets, &topic.Tweets); err != nil {
		return nil, &customerrors.ErrSQLScan{Entity: "твиты топика", Cause: err}
	}

	if err := json.Unmarshal(rawMessages, &topic.TelegramMessages); err != nil {
		return nil, &customerrors.ErrSQLScan{Entity: "сообщения топика", Cause: err}
	}

	return topic, nil
}

func collectTopics(rows pgx.Rows) ([]*models.Topic, error) {
	topics := make([]*models.Topic, 0)

	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании топика: %w", err)
		}

		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса топиков: %w", err)
	}

	return topics, nil
}
