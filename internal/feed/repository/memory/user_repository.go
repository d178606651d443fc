package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type UserRepository struct {
	users map[int64]*models.User
	mu    sync.RWMutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[int64]*models.User),
	}
}

func (r *UserRepository) Upsert(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	user.LastSeen = now

	if existing, exists := r.users[user.ID]; exists {
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.Username = user.Username
		existing.LastSeen = now

		return nil
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	if user.BriefTime == "" {
		user.BriefTime = models.DefaultBriefTime
	}

	copied := *user
	r.users[user.ID] = &copied

	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, &errors.ErrUserNotFound{UserID: id}
	}

	copied := *user

	return &copied, nil
}

func (r *UserRepository) UpdatePreferences(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.users[user.ID]
	if !exists {
		return &errors.ErrUserNotFound{UserID: user.ID}
	}

	existing.DarkMode = user.DarkMode
	existing.BriefEnabled = user.BriefEnabled
	existing.BriefTime = user.BriefTime

	return nil
}

func (r *UserRepository) FindByBriefTime(_ context.Context, hour, minute int) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	briefTime := fmt.Sprintf("%02d:%02d", hour, minute)
	users := make([]*models.User, 0)

	for _, user := range r.users {
		if user.BriefEnabled && user.BriefTime == briefTime {
			copied := *user
			users = append(users, &copied)
		}
	}

	return users, nil
}
