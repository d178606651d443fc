package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/degen-feed/degen-feed/internal/common/metrics"
	"github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/degen-feed/degen-feed/internal/feed/summarizer"
)

type TweetsGetter interface {
	GetUserTweets(ctx context.Context, username string) ([]models.Tweet, error)
}

type ChannelReader interface {
	CheckChannel(ctx context.Context, channelName string) (bool, error)
	GetChannelMessages(ctx context.Context, channelName string) ([]models.TelegramMessage, error)
	JoinPrivateChannel(ctx context.Context, inviteLink string) (*models.PrivateChannelInfo, error)
}

type ContentSummarizer interface {
	Summarize(ctx context.Context, req *summarizer.Request) (*summarizer.Result, error)
}

type BotNotifier interface {
	SendUpdate(ctx context.Context, update *models.TopicUpdate) error
}

type TopicRepository interface {
	Save(ctx context.Context, topic *models.Topic) error
	FindByID(ctx context.Context, id int64) (*models.Topic, error)
	FindByUserID(ctx context.Context, userID int64) ([]*models.Topic, error)
	Update(ctx context.Context, topic *models.Topic) error
	Delete(ctx context.Context, id, userID int64) error
	UpdateOrders(ctx context.Context, userID int64, orders []models.OrderUpdate) error
	CountByType(ctx context.Context) (map[models.TopicType]int, error)
}

type Transactor interface {
	WithTransaction(ctx context.Context, txFunc func(ctx context.Context) error) error
}

type TopicService struct {
	topicRepo      TopicRepository
	twitterClient  TweetsGetter
	telegramClient ChannelReader
	summarizer     ContentSummarizer
	notifier       BotNotifier
	txManager      Transactor
	staleAfter     time.Duration
	logger         *slog.Logger

	refreshingMu sync.Mutex
	refreshing   map[int64]struct{}
}

func NewTopicService(
	topicRepo TopicRepository,
	twitterClient TweetsGetter,
	telegramClient ChannelReader,
	contentSummarizer ContentSummarizer,
	notifier BotNotifier,
	txManager Transactor,
	staleAfter time.Duration,
	logger *slog.Logger,
) *TopicService {
	return &TopicService{
		topicRepo:      topicRepo,
		twitterClient:  twitterClient,
		telegramClient: telegramClient,
		summarizer:     contentSummarizer,
		notifier:       notifier,
		txManager:      txManager,
		staleAfter:     staleAfter,
		logger:         logger,
		refreshing:     make(map[int64]struct{}),
	}
}

type AddTopicRequest struct {
	UserID          int64
	Type            models.TopicType
	Username        string
	ChannelName     string
	InviteLink      string
	DisplayName     string
	SummaryLength   models.SummaryLength
	CustomWordCount int
}

type fetchedContent struct {
	tweets         []models.Tweet
	messages       []models.TelegramMessage
	profilePicture string
	authorName     string
	tweetsOK       bool
	messagesOK     bool
}

// Add создает топик: проверяет дубликаты, забирает контент источников,
// строит резюме и сохраняет топик в конец списка пользователя.
func (s *TopicService) Add(ctx context.Context, req *AddTopicRequest) (topic *models.Topic, err error) {
	defer func() { metrics.RecordTopicOperation("add", err) }()

	if err = s.validateRequest(req); err != nil {
		return nil, err
	}

	existing, err := s.topicRepo.FindByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	for _, t := range existing {
		if t.MatchesSource(req.Username, req.ChannelName) {
			return nil, &errors.ErrTopicAlreadyExists{Source: req.DisplayName}
		}
	}

	if req.Type == models.PrivateTelegramTopic && req.InviteLink != "" {
		info, joinErr := s.telegramClient.JoinPrivateChannel(ctx, req.InviteLink)
		if joinErr != nil {
			return nil, joinErr
		}

		if !info.Joined {
			return nil, &errors.ErrChannelNotJoinable{ChannelName: req.InviteLink}
		}

		if req.ChannelName == "" {
			req.ChannelName = info.Title
		}

		if req.DisplayName == "" {
			req.DisplayName = info.Title
		}
	}

	content, err := s.fetchContent(ctx, req.Type, req.Username, req.ChannelName, true)
	if err != nil {
		return nil, err
	}

	if req.DisplayName == "" {
		switch {
		case content.authorName != "":
			req.DisplayName = content.authorName
		case req.Username != "":
			req.DisplayName = req.Username
		default:
			req.DisplayName = req.ChannelName
		}
	}

	if req.SummaryLength == "" {
		req.SummaryLength = models.DetailedSummary
	}

	if req.SummaryLength == models.CustomSummary {
		req.CustomWordCount = models.ClampCustomWords(req.CustomWordCount)
	}

	summaries, err := s.summarizer.Summarize(ctx, &summarizer.Request{
		Tweets:           content.tweets,
		TelegramMessages: content.messages,
		TwitterUsername:  req.Username,
		TelegramChannel:  req.ChannelName,
		Length:           req.SummaryLength,
		CustomWordCount:  req.CustomWordCount,
	})
	if err != nil {
		return nil, err
	}

	topic = &models.Topic{
		UserID:           req.UserID,
		Type:             req.Type,
		Username:         req.Username,
		ChannelName:      req.ChannelName,
		DisplayName:      req.DisplayName,
		ProfilePicture:   content.profilePicture,
		TwitterSummary:   summaries.TwitterSummary,
		TelegramSummary:  summaries.TelegramSummary,
		Tweets:           content.tweets,
		TelegramMessages: content.messages,
		SummaryLength:    req.SummaryLength,
		CustomWordCount:  req.CustomWordCount,
		LastUpdated:      time.Now(),
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		return s.topicRepo.Save(ctx, topic)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Топик добавлен",
		"topicID", topic.ID,
		"userID", topic.UserID,
		"type", topic.Type,
	)

	return topic, nil
}

// Refresh повторно забирает контент источников и перестраивает резюме
// только по свежеполученному контенту. Параллельный refresh того же топика
// отклоняется с ErrRefreshInProgress. Отказ или пустой ответ источника не
// затирает сохраненный контент и резюме, но LastUpdated продвигается всегда.
func (s *TopicService) Refresh(ctx context.Context, topicID, userID int64) (topic *models.Topic, err error) {
	defer func() { metrics.RecordTopicOperation("refresh", err) }()

	if !s.tryLockRefresh(topicID) {
		return nil, &errors.ErrRefreshInProgress{TopicID: topicID}
	}
	defer s.unlockRefresh(topicID)

	topic, err = s.topicRepo.FindByID(ctx, topicID)
	if err != nil {
		return nil, err
	}

	if topic.UserID != userID {
		return nil, &errors.ErrTopicNotFound{TopicID: topicID}
	}

	content, err := s.fetchContent(ctx, topic.Type, topic.Username, topic.ChannelName, false)
	if err != nil {
		return nil, err
	}

	freshTweets := content.tweetsOK && len(content.tweets) > 0
	freshMessages := content.messagesOK && len(content.messages) > 0

	if freshTweets {
		topic.Tweets = content.tweets
	}

	if freshMessages {
		topic.TelegramMessages = content.messages
	}

	if content.profilePicture != "" {
		topic.ProfilePicture = content.profilePicture
	}

	if content.authorName != "" {
		topic.DisplayName = content.authorName
	}

	if freshTweets || freshMessages {
		sumReq := &summarizer.Request{
			Length:          topic.SummaryLength,
			CustomWordCount: topic.CustomWordCount,
		}

		if freshTweets {
			sumReq.Tweets = content.tweets
			sumReq.TwitterUsername = topic.Username
		}

		if freshMessages {
			sumReq.TelegramMessages = content.messages
			sumReq.TelegramChannel = topic.ChannelName
		}

		summaries, sumErr := s.summarizer.Summarize(ctx, sumReq)
		if sumErr != nil {
			return nil, sumErr
		}

		if freshTweets && summaries.TwitterSummary != "" {
			topic.TwitterSummary = summaries.TwitterSummary
		}

		if freshMessages && summaries.TelegramSummary != "" {
			topic.TelegramSummary = summaries.TelegramSummary
		}
	}

	topic.LastUpdated = time.Now()

	err = s.topicRepo.Update(ctx, topic)
	if err != nil {
		return nil, err
	}

	s.notifyUpdate(ctx, topic)

	return topic, nil
}

func (s *TopicService) Delete(ctx context.Context, topicID, userID int64) (err error) {
	defer func() { metrics.RecordTopicOperation("delete", err) }()

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		return s.topicRepo.Delete(ctx, topicID, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Топик удален",
		"topicID", topicID,
		"userID", userID,
	)

	return nil
}

// List возвращает топики пользователя в сохранённом порядке. Устаревшие
// топики обновляются в фоне, ответ их не дожидается.
func (s *TopicService) List(ctx context.Context, userID int64) ([]*models.Topic, error) {
	topics, err := s.topicRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, topic := range topics {
		if time.Since(topic.LastUpdated) <= s.staleAfter {
			continue
		}

		go func(topicID int64) {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			if _, refreshErr := s.Refresh(refreshCtx, topicID, userID); refreshErr != nil &&
				!stderrors.Is(refreshErr, &errors.ErrRefreshInProgress{}) {
				s.logger.Error("Ошибка при фоновом обновлении устаревшего топика",
					"error", refreshErr,
					"topicID", topicID,
				)
			}
		}(topic.ID)
	}

	return topics, nil
}

// Reorder переставляет топик относительно целевого и перенумеровывает
// весь список пользователя в плотную последовательность.
func (s *TopicService) Reorder(
	ctx context.Context,
	userID, movedID, targetID int64,
	position models.ReorderPosition,
) (result []*models.Topic, err error) {
	defer func() { metrics.RecordTopicOperation("reorder", err) }()

	if position != models.PositionBefore && position != models.PositionAfter {
		return nil, &errors.ErrInvalidValue{FieldName: "position", Value: string(position)}
	}

	if movedID == targetID {
		return s.topicRepo.FindByUserID(ctx, userID)
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		topics, listErr := s.topicRepo.FindByUserID(ctx, userID)
		if listErr != nil {
			return listErr
		}

		var moved *models.Topic

		remaining := make([]*models.Topic, 0, len(topics))

		for _, t := range topics {
			if t.ID == movedID {
				moved = t
				continue
			}

			remaining = append(remaining, t)
		}

		if moved == nil {
			return &errors.ErrTopicNotFound{TopicID: movedID}
		}

		targetIdx := -1

		for i, t := range remaining {
			if t.ID == targetID {
				targetIdx = i
				break
			}
		}

		if targetIdx == -1 {
			return &errors.ErrTopicNotFound{TopicID: targetID}
		}

		insertIdx := targetIdx
		if position == models.PositionAfter {
			insertIdx = targetIdx + 1
		}

		reordered := make([]*models.Topic, 0, len(topics))
		reordered = append(reordered, remaining[:insertIdx]...)
		reordered = append(reordered, moved)
		reordered = append(reordered, remaining[insertIdx:]...)

		orders := make([]models.OrderUpdate, 0, len(reordered))

		for i, t := range reordered {
			t.Order = i
			orders = append(orders, models.OrderUpdate{TopicID: t.ID, Order: i})
		}

		result = reordered

		return s.topicRepo.UpdateOrders(ctx, userID, orders)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ApplyOrders применяет присланный клиентом порядок целиком.
func (s *TopicService) ApplyOrders(ctx context.Context, userID int64, orders []models.OrderUpdate) (err error) {
	defer func() { metrics.RecordTopicOperation("reorder", err) }()

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		return s.topicRepo.UpdateOrders(ctx, userID, orders)
	})

	return err
}

func (s *TopicService) validateRequest(req *AddTopicRequest) error {
	switch req.Type {
	case models.TwitterTopic:
		if req.Username == "" {
			return &errors.ErrMissingRequiredField{FieldName: "twitterUsername"}
		}
	case models.TelegramTopic:
		if req.ChannelName == "" {
			return &errors.ErrMissingRequiredField{FieldName: "telegramChannelName"}
		}
	case models.BothTopic:
		if req.Username == "" {
			return &errors.ErrMissingRequiredField{FieldName: "twitterUsername"}
		}

		if req.ChannelName == "" {
			return &errors.ErrMissingRequiredField{FieldName: "telegramChannelName"}
		}
	case models.PrivateTelegramTopic:
		if req.ChannelName == "" && req.InviteLink == "" {
			return &errors.ErrMissingRequiredField{FieldName: "inviteLink"}
		}
	default:
		return &errors.ErrInvalidValue{FieldName: "type", Value: string(req.Type)}
	}

	return nil
}

// fetchContent забирает контент всех источников топика. В strict-режиме
// отказ единственного источника прерывает операцию, а у двухисточникового
// топика допускается отказ одного из двух.
func (s *TopicService) fetchContent(
	ctx context.Context,
	topicType models.TopicType,
	username, channelName string,
	strict bool,
) (*fetchedContent, error) {
	content := &fetchedContent{}

	var twitterErr, telegramErr error

	if topicType.HasTwitter() {
		tweets, err := s.twitterClient.GetUserTweets(ctx, username)
		if err != nil {
			twitterErr = err

			s.logger.Warn("Не удалось получить твиты",
				"username", username,
				"error", err,
			)
		} else {
			content.tweets = tweets
			content.tweetsOK = true

			for _, tw := range tweets {
				if content.profilePicture == "" && tw.Author.ProfilePicture != "" {
					content.profilePicture = tw.Author.ProfilePicture
				}

				if content.authorName == "" && tw.Author.Name != "" {
					content.authorName = tw.Author.Name
				}
			}
		}
	}

	if topicType.HasTelegram() && channelName != "" {
		if strict && (topicType == models.TelegramTopic || topicType == models.BothTopic) {
			joinable, err := s.telegramClient.CheckChannel(ctx, channelName)
			if err != nil {
				telegramErr = err
			} else if !joinable {
				return nil, &errors.ErrChannelNotJoinable{ChannelName: channelName}
			}
		}

		if telegramErr == nil {
			messages, err := s.telegramClient.GetChannelMessages(ctx, channelName)
			if err != nil {
				telegramErr = err

				s.logger.Warn("Не удалось получить сообщения канала",
					"channel", channelName,
					"error", err,
				)
			} else {
				content.messages = messages
				content.messagesOK = true
			}
		}
	}

	if strict {
		hasBoth := topicType.HasTwitter() && topicType.HasTelegram()

		if hasBoth {
			if twitterErr != nil && telegramErr != nil {
				return nil, twitterErr
			}
		} else {
			if twitterErr != nil {
				return nil, twitterErr
			}

			if telegramErr != nil {
				return nil, telegramErr
			}
		}
	}

	return content, nil
}

func (s *TopicService) notifyUpdate(ctx context.Context, topic *models.Topic) {
	if s.notifier == nil {
		return
	}

	update := &models.TopicUpdate{
		TopicID:         topic.ID,
		UserID:          topic.UserID,
		DisplayName:     topic.DisplayName,
		TwitterSummary:  topic.TwitterSummary,
		TelegramSummary: topic.TelegramSummary,
		UpdatedAt:       topic.LastUpdated,
	}

	if err := s.notifier.SendUpdate(ctx, update); err != nil {
		s.logger.Error("Не удалось отправить уведомление об обновлении",
			"topicID", topic.ID,
			"error", err,
		)
	}
}

func (s *TopicService) tryLockRefresh(topicID int64) bool {
	s.refreshingMu.Lock()
	defer s.refreshingMu.Unlock()

	if _, busy := s.refreshing[topicID]; busy {
		return false
	}

	s.refreshing[topicID] = struct{}{}

	return true
}

func (s *TopicService) unlockRefresh(topicID int64) {
	s.refreshingMu.Lock()
	defer s.refreshingMu.Unlock()

	delete(s.refreshing, topicID)
}

// UpdateTopicMetrics обновляет гейдж количества топиков по типам.
func (s *TopicService) UpdateTopicMetrics(ctx context.Context) {
	counts, err := s.topicRepo.CountByType(ctx)
	if err != nil {
		s.logger.Error("Ошибка при подсчете топиков для метрик",
			"error", err,
		)

		return
	}

	for topicType, count := range counts {
		metrics.TopicsInDB.WithLabelValues(string(topicType)).Set(float64(count))
	}
}
