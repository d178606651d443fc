package orm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/degen-feed/degen-feed/internal/database"
	customerrors "github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/degen-feed/degen-feed/pkg/txs"
	"github.com/jackc/pgx/v5"
)

var topicColumns = []string{
	"id", "user_id", "type", "twitter_username", "telegram_channel_name", "display_name",
	"profile_picture_url", "summary_length", "custom_word_count", "twitter_summary", "telegram_summary",
	"raw_tweets", "raw_telegram_messages", "last_updated", "topic_order", "created_at",
}

type TopicRepository struct {
	db        *database.PostgresDB
	sq        sq.StatementBuilderType
	txManager *txs.TxManager
}

func NewTopicRepository(db *database.PostgresDB, txManager *txs.TxManager) *TopicRepository {
	return &TopicRepository{
		db:        db,
		sq:        sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		txManager: txManager,
	}
}

func (r *TopicRepository) Save(ctx context.Context, topic *models.Topic) error {
	return r.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		querier := txs.GetQuerier(ctx, r.db.Pool)

		duplicate := sq.Or{}
		if topic.Username != "" {
			duplicate = append(duplicate, sq.Expr("LOWER(twitter_username) = LOWER(?)", topic.Username))
		}

		if topic.ChannelName != "" {
			duplicate = append(duplicate, sq.Expr("LOWER(telegram_channel_name) = LOWER(?)", topic.ChannelName))
		}

		if len(duplicate) == 0 {
			return &customerrors.ErrMissingRequiredField{FieldName: "source"}
		}

		existsQuery := r.sq.Select("1").From("topics").
			Where(sq.Eq{"user_id": topic.UserID}).
			Where(duplicate).
			Limit(1)

		query, args, err := existsQuery.ToSql()
		if err != nil {
			return &customerrors.ErrBuildSQLQuery{Operation: "проверка существования топика", Cause: err}
		}

		var exists bool

		err = querier.QueryRow(ctx, "SELECT EXISTS("+query+")", args...).Scan(&exists)
		if err != nil {
			return &customerrors.ErrSQLExecution{Operation: "проверка существования топика", Cause: err}
		}

		if exists {
			return &customerrors.ErrTopicAlreadyExists{Source: topic.DisplayName}
		}

		countQuery := r.sq.Select("COUNT(*)").From("topics").Where(sq.Eq{"user_id": topic.UserID})

		query, args, err = countQuery.ToSql()
		if err != nil {
			return &customerrors.ErrBuildSQLQuery{Operation: "подсчет топиков", Cause: err}
		}

		var nextOrder int

		err = querier.QueryRow(ctx, query, args...).Scan(&nextOrder)
		if err != nil {
			return &customerrors.ErrSQLExecution{Operation: "подсчет топиков пользователя", Cause: err}
		}

		rawTweets, rawMessages, err := marshalRawContent(topic)
		if err != nil {
			return err
		}

		if topic.CreatedAt.IsZero() {
			topic.CreatedAt = time.Now()
		}

		topic.Order = nextOrder

		insertQuery := r.sq.Insert("topics").
			Columns("user_id", "type", "twitter_username", "telegram_channel_name", "display_name",
				"profile_picture_url", "summary_length", "custom_word_count", "twitter_summary", "telegram_summary",
				"raw_tweets", "raw_telegram_messages", "last_updated", "topic_order", "created_at").
			Values(topic.UserID, topic.Type, topic.Username, topic.ChannelName, topic.DisplayName,
				topic.ProfilePicture, topic.SummaryLength, topic.CustomWordCount, topic.TwitterSummary, topic.TelegramSummary,
				rawTweets, rawMessages, topic.LastUpdated, topic.Order, topic.CreatedAt).
			Suffix("RETURNING id")

		query, args, err = insertQuery.ToSql()
		if err != nil {
			return &customerrors.ErrBuildSQLQuery{Operation: "вставка топика", Cause: err}
		}

		var id int64

		err = querier.QueryRow(ctx, query, args...).Scan(&id)
		if err != nil {
			return &customerrors.ErrSQLExecution{Operation: "сохранение топика", Cause: err}
		}

		topic.ID = id

		return nil
	})
}

func (r *TopicRepository) FindByID(ctx context.Context, id int64) (*models.Topic, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select(topicColumns...).From("topics").Where(sq.Eq{"id": id})

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск топика", Cause: err}
	}

	topic, err := scanTopic(querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrTopicNotFound{TopicID: id}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "поиск топика по ID", Cause: err}
	}

	return topic, nil
}

func (r *TopicRepository) FindByUserID(ctx context.Context, userID int64) ([]*models.Topic, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select(topicColumns...).From("topics").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("topic_order")

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "запрос топиков пользователя", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "запрос топиков пользователя", Cause: err}
	}
	defer rows.Close()

	return collectTopics(rows)
}

func (r *TopicRepository) Update(ctx context.Context, topic *models.Topic) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rawTweets, rawMessages, err := marshalRawContent(topic)
	if err != nil {
		return err
	}

	updateQuery := r.sq.Update("topics").
		Set("display_name", topic.DisplayName).
		Set("profile_picture_url", topic.ProfilePicture).
		Set("summary_length", topic.SummaryLength).
		Set("custom_word_count", topic.CustomWordCount).
		Set("twitter_summary", topic.TwitterSummary).
		Set("telegram_summary", topic.TelegramSummary).
		Set("raw_tweets", rawTweets).
		Set("raw_telegram_messages", rawMessages).
		Set("last_updated", topic.LastUpdated).
		Where(sq.Eq{"id": topic.ID})

	query, args, err := updateQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "обновление топика", Cause: err}
	}

	result, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "обновление топика", Cause: err}
	}

	if result.RowsAffected() == 0 {
		return &customerrors.ErrTopicNotFound{TopicID: topic.ID}
	}

	return nil
}

func (r *TopicRepository) Delete(ctx context.Context, id, userID int64) error {
	return r.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		querier := txs.GetQuerier(ctx, r.db.Pool)

		deleteQuery := r.sq.Delete("topics").Where(sq.Eq{"id": id, "user_id": userID})

		query, args, err := deleteQuery.ToSql()
		if err != nil {
			return &customerrors.ErrBuildSQLQuery{Operation: "удаление топика", Cause: err}
		}

		result, err := querier.Exec(ctx, query, args...)
		if err != nil {
			return &customerrors.ErrSQLExecution{Operation: "удаление топика", Cause: err}
		}

		if result.RowsAffected() == 0 {
			return &customerrors.ErrTopicNotFound{TopicID: id}
		}

		_, err = querier.Exec(ctx,
			`UPDATE topics t SET topic_order = ranked.rn
			FROM (
				SELECT id, ROW_NUMBER() OVER (ORDER BY topic_order, id) - 1 AS rn
				FROM topics WHERE user_id = $1
			) ranked
			WHERE t.id = ranked.id`,
			userID)
		if err != nil {
			return &customerrors.ErrSQLExecution{Operation: "перенумерация топиков", Cause: err}
		}

		return nil
	})
}

func (r *TopicRepository) UpdateOrders(ctx context.Context, userID int64, orders []models.OrderUpdate) error {
	return r.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		querier := txs.GetQuerier(ctx, r.db.Pool)

		for _, order := range orders {
			updateQuery := r.sq.Update("topics").
				Set("topic_order", order.Order).
				Where(sq.Eq{"id": order.TopicID, "user_id": userID})

			query, args, err := updateQuery.ToSql()
			if err != nil {
				return &customerrors.ErrBuildSQLQuery{Operation: "обновление порядка топика", Cause: err}
			}

			_, err = querier.Exec(ctx, query, args...)
			if err != nil {
				return &customerrors.ErrSQLExecution{Operation: "обновление порядка топика", Cause: err}
			}
		}

		return nil
	})
}

func (r *TopicRepository) FindStale(ctx context.Context, olderThan time.Time, limit, offset int) ([]*models.Topic, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select(topicColumns...).From("topics").
		Where(sq.Lt{"last_updated": olderThan}).
		OrderBy("last_updated", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "запрос устаревших топиков", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "запрос устаревших топиков", Cause: err}
	}
	defer rows.Close()

	return collectTopics(rows)
}

func (r *TopicRepository) Count(ctx context.Context) (int, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	countQuery := r.sq.Select("COUNT(*)").From("topics")

	query, args, err := countQuery.ToSql()
	if err != nil {
		return 0, &customerrors.ErrBuildSQLQuery{Operation: "подсчет топиков", Cause: err}
	}

	var count int

	err = querier.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, &customerrors.ErrSQLExecution{Operation: "подсчет топиков", Cause: err}
	}

	return count, nil
}

func (r *TopicRepository) CountByType(ctx context.Context) (map[models.TopicType]int, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	countQuery := r.sq.Select("type", "COUNT(*)").From("topics").GroupBy("type")

	query, args, err := countQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "подсчет топиков по типам", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "подсчет топиков по типам", Cause: err}
	}
	defer rows.Close()

	counts := make(map[models.TopicType]int)

	for rows.Next() {
		var (
			topicType models.TopicType
			count     int
		)

		if err := rows.Scan(&topicType, &count); err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "счетчик типов", Cause: err}
		}

		counts[topicType] = count
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обработка результатов подсчета", Cause: err}
	}

	return counts, nil
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
			return nil, &customerrors.ErrSQLScan{Entity: "топик", Cause: err}
		}

		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обработка результатов запроса топиков", Cause: err}
	}

	return topics, nil
}
