package orm

import (
	"context"
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

var userColumns = []string{
	"id", "first_name", "last_name", "username", "dark_mode", "brief_enabled", "brief_time", "last_seen", "created_at",
}

type UserRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	now := time.Now()
	user.LastSeen = now

	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	insertQuery := r.sq.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.FirstName, user.LastName, user.Username,
			user.DarkMode, user.BriefEnabled, user.BriefTime, user.LastSeen, user.CreatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username,
			last_seen = EXCLUDED.last_seen`)

	query, args, err := insertQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "сохранение пользователя", Cause: err}
	}

	_, err = querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение пользователя", Cause: err}
	}

	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select(userColumns...).From("users").Where(sq.Eq{"id": id})

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск пользователя", Cause: err}
	}

	user := &models.User{}

	err = querier.QueryRow(ctx, query, args...).
		Scan(&user.ID, &user.FirstName, &user.LastName, &user.Username,
			&user.DarkMode, &user.BriefEnabled, &user.BriefTime, &user.LastSeen, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrUserNotFound{UserID: id}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "поиск пользователя", Cause: err}
	}

	return user, nil
}

func (r *UserRepository) UpdatePreferences(ctx context.Context, user *models.User) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	updateQuery := r.sq.Update("users").
		Set("dark_mode", user.DarkMode).
		Set("brief_enabled", user.BriefEnabled).
		Set("brief_time", user.BriefTime).
		Where(sq.Eq{"id": user.ID})

	query, args, err := updateQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "обновление настроек", Cause: err}
	}

	result, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "обновление настроек пользователя", Cause: err}
	}

	if result.RowsAffected() == 0 {
		return &customerrors.ErrUserNotFound{UserID: user.ID}
	}

	return nil
}

func (r *UserRepository) FindByBriefTime(ctx context.Context, hour, minute int) ([]*models.User, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	briefTime := fmt.Sprintf("%02d:%02d", hour, minute)

	selectQuery := r.sq.Select(userColumns...).From("users").
		Where(sq.Eq{"brief_enabled": true, "brief_time": briefTime})

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "запрос пользователей по времени брифа", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "запрос пользователей по времени брифа", Cause: err}
	}
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user := &models.User{}

		err := rows.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Username,
			&user.DarkMode, &user.BriefEnabled, &user.BriefTime, &user.LastSeen, &user.CreatedAt)
		if err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "пользователь", Cause: err}
		}

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обработка результатов запроса пользователей", Cause: err}
	}

	return users, nil
}
