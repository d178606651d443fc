package service

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePreferences(ctx context.Context, user *models.User) error
}

var briefTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type UserService struct {
	userRepo UserRepository
	logger   *slog.Logger
}

func NewUserService(userRepo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Authenticate регистрирует вход пользователя: создает запись при первом
// визите и обновляет профиль при повторных.
func (s *UserService) Authenticate(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, err
	}

	stored, err := s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return stored, nil
}

func (s *UserService) GetPreferences(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

type PreferencesUpdate struct {
	DarkMode     *bool
	BriefEnabled *bool
	BriefTime    *string
}

// UpdatePreferences применяет частичное обновление настроек пользователя.
func (s *UserService) UpdatePreferences(ctx context.Context, userID int64, update *PreferencesUpdate) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.DarkMode != nil {
		user.DarkMode = *update.DarkMode
	}

	if update.BriefEnabled != nil {
		user.BriefEnabled = *update.BriefEnabled
	}

	if update.BriefTime != nil {
		if !briefTimeRegex.MatchString(*update.BriefTime) {
			return nil, &errors.ErrInvalidValue{FieldName: "briefTime", Value: *update.BriefTime}
		}

		user.BriefTime = *update.BriefTime
	}

	if err := s.userRepo.UpdatePreferences(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
