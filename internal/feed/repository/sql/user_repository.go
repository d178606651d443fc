package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/degen-feed/degen-feed/internal/database"
	customerrors "github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *database.PostgresDB
}

func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert создает пользователя при первом входе и обновляет профиль
// и время последнего визита при повторных.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.LastSeen = now

	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO users (id, first_name, last_name, username, dark_mode, brief_enabled, brief_time, last_seen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username,
			last_seen = EXCLUDED.last_seen`,
		user.ID, user.FirstName, user.LastName, user.Username,
		user.DarkMode, user.BriefEnabled, user.BriefTime, user.LastSeen, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении пользователя: %w", err)
	}

	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}

	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, username, dark_mode, brief_enabled, brief_time, last_seen, created_at
		FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.FirstName, &user.LastName, &user.Username,
			&user.DarkMode, &user.BriefEnabled, &user.BriefTime, &user.LastSeen, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrUserNotFound{UserID: id}
		}

		return nil, fmt.Errorf("ошибка при поиске пользователя: %w", err)
	}

	return user, nil
}

func (r *UserRepository) UpdatePreferences(ctx context.Context, user *models.User) error {
	result, err := r.db.Pool.Exec(ctx,
		"UPDATE users SET dark_mode = $1, brief_enabled = $2, brief_time = $3 WHERE id = $4",
		user.DarkMode, user.BriefEnabled, user.BriefTime, user.ID)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении настроек пользователя: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &customerrors.ErrUserNotFound{UserID: user.ID}
	}

	return nil
}

func (r *UserRepository) FindByBriefTime(ctx context.Context, hour, minute int) ([]*models.User, error) {
	briefTime := fmt.Sprintf("%02d:%02d", hour, minute)

	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, first_name, last_name, username, dark_mode, brief_enabled, brief_time, last_seen, created_at
		FROM users WHERE brief_enabled = TRUE AND brief_time = $1`, briefTime)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе пользователей по времени брифа: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user := &models.User{}

		err := rows.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Username,
			&user.DarkMode, &user.BriefEnabled, &user.BriefTime, &user.LastSeen, &user.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании пользователя: %w", err)
		}

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса пользователей: %w", err)
	}

	return users, nil
}
