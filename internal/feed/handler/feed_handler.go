package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	customerrors "github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/degen-feed/degen-feed/internal/feed/auth"
	"github.com/degen-feed/degen-feed/internal/feed/service"
)

const userIDContextKey = "userID"

// TopicManager описывает операции жизненного цикла топиков.
type TopicManager interface {
	Add(ctx context.Context, req *service.AddTopicRequest) (*models.Topic, error)
	Refresh(ctx context.Context, topicID, userID int64) (*models.Topic, error)
	Delete(ctx context.Context, topicID, userID int64) error
	List(ctx context.Context, userID int64) ([]*models.Topic, error)
	Reorder(ctx context.Context, userID, movedID, targetID int64, position models.ReorderPosition) ([]*models.Topic, error)
	ApplyOrders(ctx context.Context, userID int64, orders []models.OrderUpdate) error
}

type UserManager interface {
	Authenticate(ctx context.Context, user *models.User) (*models.User, error)
	GetPreferences(ctx context.Context, userID int64) (*models.User, error)
	UpdatePreferences(ctx context.Context, userID int64, update *service.PreferencesUpdate) (*models.User, error)
}

type FeedHandler struct {
	topicService TopicManager
	userService  UserManager
	validator    *auth.Validator
	logger       *slog.Logger
}

func NewFeedHandler(
	topicService TopicManager,
	userService UserManager,
	validator *auth.Validator,
	logger *slog.Logger,
) *FeedHandler {
	return &FeedHandler{
		topicService: topicService,
		userService:  userService,
		validator:    validator,
		logger:       logger,
	}
}

// RegisterRoutes монтирует маршруты API на роутер.
func (h *FeedHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)

	api := router.Group("/api")
	api.POST("/auth", h.authenticate)

	authed := api.Group("", h.AuthMiddleware())
	authed.GET("/topics", h.listTopics)
	authed.POST("/topics", h.addTopic)
	authed.POST("/topics/:id/refresh", h.refreshTopic)
	authed.DELETE("/topics/:id", h.deleteTopic)
	authed.PUT("/topics/order", h.reorderTopics)
	authed.GET("/preferences", h.getPreferences)
	authed.PUT("/preferences", h.updatePreferences)
}

// AuthMiddleware проверяет initData из заголовка Authorization и кладет
// идентификатор пользователя в контекст запроса.
func (h *FeedHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.authorizeRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
			return
		}

		c.Set(userIDContextKey, user.ID)
		c.Next()
	}
}

func (h *FeedHandler) authorizeRequest(c *gin.Context) (*models.User, error) {
	rawInitData := initDataFromRequest(c)
	if rawInitData == "" {
		return nil, &customerrors.ErrInvalidInitData{Reason: "заголовок авторизации отсутствует"}
	}

	initData, err := h.validator.Validate(rawInitData, time.Now())
	if err != nil {
		h.logger.Warn("Отклонена невалидная initData",
			"error", err,
			"ip", c.ClientIP(),
		)

		return nil, err
	}

	user, err := h.userService.Authenticate(c.Request.Context(), initData.User)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func initDataFromRequest(c *gin.Context) string {
	// Mini App передает initData как "Authorization: tma <initData>".
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 4 && authHeader[:4] == "tma " {
		return authHeader[4:]
	}

	return c.GetHeader("X-Telegram-Init-Data")
}

func (h *FeedHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *FeedHandler) authenticate(c *gin.Context) {
	user, err := h.authorizeRequest(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

type addTopicRequest struct {
	Type            string `json:"type" binding:"required"`
	Username        string `json:"username"`
	ChannelName     string `json:"channelName"`
	InviteLink      string `json:"inviteLink"`
	DisplayName     string `json:"displayName"`
	SummaryLength   string `json:"summaryLength"`
	CustomWordCount int    `json:"customWordCount"`
}

func (h *FeedHandler) addTopic(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	var req addTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topic, err := h.topicService.Add(c.Request.Context(), &service.AddTopicRequest{
		UserID:          userID,
		Type:            models.TopicType(req.Type),
		Username:        req.Username,
		ChannelName:     req.ChannelName,
		InviteLink:      req.InviteLink,
		DisplayName:     req.DisplayName,
		SummaryLength:   models.SummaryLength(req.SummaryLength),
		CustomWordCount: req.CustomWordCount,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTopicResponse(topic))
}

func (h *FeedHandler) listTopics(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	topics, err := h.topicService.List(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"topics": toTopicResponses(topics)})
}

func (h *FeedHandler) refreshTopic(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	topicID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid topic id"})
		return
	}

	topic, err := h.topicService.Refresh(c.Request.Context(), topicID, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTopicResponse(topic))
}

func (h *FeedHandler) deleteTopic(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	topicID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid topic id"})
		return
	}

	if err := h.topicService.Delete(c.Request.Context(), topicID, userID); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type reorderRequest struct {
	MovedID  int64   `json:"movedId"`
	TargetID int64   `json:"targetId"`
	Position string  `json:"position"`
	Order    []int64 `json:"order"`
}

func (h *FeedHandler) reorderTopics(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Полный порядок от клиента имеет приоритет над относительной перестановкой.
	if len(req.Order) > 0 {
		orders := make([]models.OrderUpdate, 0, len(req.Order))
		for i, topicID := range req.Order {
			orders = append(orders, models.OrderUpdate{TopicID: topicID, Order: i})
		}

		if err := h.topicService.ApplyOrders(c.Request.Context(), userID, orders); err != nil {
			h.writeError(c, err)
			return
		}

		topics, err := h.topicService.List(c.Request.Context(), userID)
		if err != nil {
			h.writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"topics": toTopicResponses(topics)})

		return
	}

	topics, err := h.topicService.Reorder(
		c.Request.Context(),
		userID,
		req.MovedID,
		req.TargetID,
		models.ReorderPosition(req.Position),
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"topics": toTopicResponses(topics)})
}

func (h *FeedHandler) getPreferences(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	user, err := h.userService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

type preferencesRequest struct {
	DarkMode     *bool   `json:"darkMode"`
	BriefEnabled *bool   `json:"briefEnabled"`
	BriefTime    *string `json:"briefTime"`
}

func (h *FeedHandler) updatePreferences(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdatePreferences(c.Request.Context(), userID, &service.PreferencesUpdate{
		DarkMode:     req.DarkMode,
		BriefEnabled: req.BriefEnabled,
		BriefTime:    req.BriefTime,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *FeedHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, &customerrors.ErrInvalidInitData{}):
		status = http.StatusUnauthorized
	case errors.Is(err, &customerrors.ErrTopicNotFound{}),
		errors.Is(err, &customerrors.ErrUserNotFound{}):
		status = http.StatusNotFound
	case errors.Is(err, &customerrors.ErrTopicAlreadyExists{}),
		errors.Is(err, &customerrors.ErrRefreshInProgress{}):
		status = http.StatusConflict
	case errors.Is(err, &customerrors.ErrMissingRequiredField{}),
		errors.Is(err, &customerrors.ErrInvalidValue{}):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, &customerrors.ErrSourceUnavailable{}),
		errors.Is(err, &customerrors.ErrChannelNotJoinable{}):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Внутренняя ошибка при обработке запроса",
			"error", err,
			"path", c.FullPath(),
		)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
