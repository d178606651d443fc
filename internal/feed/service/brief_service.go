package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/degen-feed/degen-feed/internal/common/metrics"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/go-co-op/gocron"
)

// BriefCache накапливает обновления топиков до момента отправки брифа.
type BriefCache interface {
	AddUpdate(ctx context.Context, userID int64, update *models.TopicUpdate) error
	GetUpdates(ctx context.Context, userID int64) ([]*models.TopicUpdate, error)
	ClearUpdates(ctx context.Context, userID int64) error
	Close() error
}

type BriefUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByBriefTime(ctx context.Context, hour, minute int) ([]*models.User, error)
}

type BriefService struct {
	notifier   BotNotifier
	briefCache BriefCache
	userRepo   BriefUserRepository
	logger     *slog.Logger
	scheduler  *gocron.Scheduler
}

func NewBriefService(
	notifier BotNotifier,
	briefCache BriefCache,
	userRepo BriefUserRepository,
	logger *slog.Logger,
) *BriefService {
	return &BriefService{
		notifier:   notifier,
		briefCache: briefCache,
		userRepo:   userRepo,
		logger:     logger,
		scheduler:  gocron.NewScheduler(time.UTC),
	}
}

func (s *BriefService) Start(ctx context.Context) {
	s.logger.Info("Запуск планировщика брифов")

	_, err := s.scheduler.Every(1).Minute().Do(func() {
		now := time.Now()
		hour, minute := now.Hour(), now.Minute()

		if err := s.sendBriefs(ctx, hour, minute); err != nil {
			s.logger.Error("Ошибка при отправке брифов",
				"error", err,
				"time", fmt.Sprintf("%02d:%02d", hour, minute),
			)
		}
	})

	if err != nil {
		s.logger.Error("Ошибка при настройке планировщика брифов",
			"error", err,
		)

		return
	}

	s.scheduler.StartAsync()
}

func (s *BriefService) Stop() {
	s.logger.Info("Остановка планировщика брифов")
	s.scheduler.Stop()
}

// AddUpdate откладывает обновление топика в бриф, если пользователь включил брифы.
func (s *BriefService) AddUpdate(ctx context.Context, update *models.TopicUpdate) error {
	user, err := s.userRepo.FindByID(ctx, update.UserID)
	if err != nil {
		s.logger.Error("Ошибка при получении пользователя для брифа",
			"error", err,
			"userID", update.UserID,
		)

		return err
	}

	if !user.BriefEnabled {
		return nil
	}

	if err := s.briefCache.AddUpdate(ctx, update.UserID, update); err != nil {
		s.logger.Error("Ошибка при добавлении обновления в бриф",
			"error", err,
			"userID", update.UserID,
			"topicID", update.TopicID,
		)

		return err
	}

	return nil
}

// SendBriefNow собирает и отправляет бриф пользователю вне расписания.
func (s *BriefService) SendBriefNow(ctx context.Context, userID int64) (bool, error) {
	return s.sendBriefForUser(ctx, userID)
}

func (s *BriefService) sendBriefs(ctx context.Context, hour, minute int) error {
	users, err := s.userRepo.FindByBriefTime(ctx, hour, minute)
	if err != nil {
		return fmt.Errorf("ошибка при поиске пользователей с временем брифа %02d:%02d: %w", hour, minute, err)
	}

	if len(users) == 0 {
		return nil
	}

	s.logger.Info("Отправка брифов",
		"time", fmt.Sprintf("%02d:%02d", hour, minute),
		"totalUsers", len(users),
	)

	for _, user := range users {
		sent, err := s.sendBriefForUser(ctx, user.ID)
		if err != nil {
			s.logger.Error("Ошибка при отправке брифа",
				"error", err,
				"userID", user.ID,
			)

			continue
		}

		if sent {
			s.logger.Info("Бриф успешно отправлен",
				"userID", user.ID,
			)
		}
	}

	return nil
}

func (s *BriefService) sendBriefForUser(ctx context.Context, userID int64) (bool, error) {
	updates, err := s.briefCache.GetUpdates(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка при получении обновлений для брифа: %w", err)
	}

	if len(updates) == 0 {
		return false, nil
	}

	briefUpdate := &models.TopicUpdate{
		UserID:    userID,
		Message:   s.createBriefMessage(updates),
		UpdatedAt: time.Now(),
	}

	err = s.notifier.SendUpdate(ctx, briefUpdate)
	metrics.RecordBrief(err)

	if err != nil {
		return false, fmt.Errorf("ошибка при отправке брифа: %w", err)
	}

	if err := s.briefCache.ClearUpdates(ctx, userID); err != nil {
		s.logger.Error("Ошибка при очистке обновлений после отправки брифа",
			"error", err,
			"userID", userID,
		)
	}

	return true, nil
}

func (s *BriefService) createBriefMessage(updates []*models.TopicUpdate) string {
	// Последнее обновление каждого топика, порядок первого появления.
	latest := make(map[int64]*models.TopicUpdate)
	order := make([]int64, 0, len(updates))

	for _, update := range updates {
		if _, seen := latest[update.TopicID]; !seen {
			order = append(order, update.TopicID)
		}

		latest[update.TopicID] = update
	}

	var message strings.Builder

	message.WriteString(fmt.Sprintf("📋 *Daily Brief for %s*\n\n", time.Now().Format("January 2, 2006")))

	maxTopics := 10

	for i, topicID := range order {
		if i >= maxTopics {
			message.WriteString(fmt.Sprintf("\n...and %d more topics", len(order)-maxTopics))
			break
		}

		update := latest[topicID]

		message.WriteString(fmt.Sprintf("🔔 *%s*\n", update.DisplayName))

		if update.TwitterSummary != "" {
			message.WriteString(fmt.Sprintf("𝕏 %s\n", update.TwitterSummary))
		}

		if update.TelegramSummary != "" {
			message.WriteString(fmt.Sprintf("✈️ %s\n", update.TelegramSummary))
		}

		message.WriteString("\n")
	}

	return message.String()
}
