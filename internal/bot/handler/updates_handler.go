package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type topicUpdater interface {
	SendTopicUpdate(ctx context.Context, update *models.TopicUpdate) error
}

// UpdatesHandler принимает обновления топиков по HTTP, когда транспортом
// между сервисами выбран HTTP вместо Kafka.
type UpdatesHandler struct {
	topicUpdater topicUpdater
	logger       *slog.Logger
}

func NewUpdatesHandler(topicUpdater topicUpdater, logger *slog.Logger) *UpdatesHandler {
	return &UpdatesHandler{
		topicUpdater: topicUpdater,
		logger:       logger,
	}
}

func (h *UpdatesHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/updates", h.postUpdate)
	router.GET("/health", h.health)
}

type updateRequest struct {
	TopicID         int64     `json:"topicId"`
	UserID          int64     `json:"userId" binding:"required"`
	DisplayName     string    `json:"displayName"`
	TwitterSummary  string    `json:"twitterSummary"`
	TelegramSummary string    `json:"telegramSummary"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Message         string    `json:"message"`
}

func (h *UpdatesHandler) postUpdate(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := &models.TopicUpdate{
		TopicID:         req.TopicID,
		UserID:          req.UserID,
		DisplayName:     req.DisplayName,
		TwitterSummary:  req.TwitterSummary,
		TelegramSummary: req.TelegramSummary,
		UpdatedAt:       req.UpdatedAt,
		Message:         req.Message,
	}

	if err := h.topicUpdater.SendTopicUpdate(c.Request.Context(), update); err != nil {
		h.logger.Error("Ошибка при отправке обновления пользователю",
			"error", err,
			"userID", update.UserID,
			"topicID", update.TopicID,
		)

		c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось доставить обновление"})

		return
	}

	c.Status(http.StatusOK)
}

func (h *UpdatesHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
