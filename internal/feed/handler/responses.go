package handler

import (
	"time"

	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type userResponse struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName,omitempty"`
	Username     string `json:"username,omitempty"`
	DarkMode     bool   `json:"darkMode"`
	BriefEnabled bool   `json:"briefEnabled"`
	BriefTime    string `json:"briefTime"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Username:     user.Username,
		DarkMode:     user.DarkMode,
		BriefEnabled: user.BriefEnabled,
		BriefTime:    user.BriefTime,
	}
}

type topicResponse struct {
	ID               int64                    `json:"id"`
	Type             string                   `json:"type"`
	Username         string                   `json:"username,omitempty"`
	ChannelName      string                   `json:"channelName,omitempty"`
	DisplayName      string                   `json:"displayName"`
	ProfilePicture   string                   `json:"profilePicture,omitempty"`
	TwitterSummary   string                   `json:"twitterSummary,omitempty"`
	TelegramSummary  string                   `json:"telegramSummary,omitempty"`
	Tweets           []models.Tweet           `json:"tweets"`
	TelegramMessages []models.TelegramMessage `json:"telegramMessages"`
	SummaryLength    string                   `json:"summaryLength"`
	CustomWordCount  int                      `json:"customWordCount,omitempty"`
	LastUpdated      time.Time                `json:"lastUpdated"`
	Order            int                      `json:"order"`
}

func toTopicResponse(topic *models.Topic) topicResponse {
	tweets := topic.Tweets
	if tweets == nil {
		tweets = []models.Tweet{}
	}

	messages := topic.TelegramMessages
	if messages == nil {
		messages = []models.TelegramMessage{}
	}

	return topicResponse{
		ID:               topic.ID,
		Type:             string(topic.Type),
		Username:         topic.Username,
		ChannelName:      topic.ChannelName,
		DisplayName:      topic.DisplayName,
		ProfilePicture:   topic.ProfilePicture,
		TwitterSummary:   topic.TwitterSummary,
		TelegramSummary:  topic.TelegramSummary,
		Tweets:           tweets,
		TelegramMessages: messages,
		SummaryLength:    string(topic.SummaryLength),
		CustomWordCount:  topic.CustomWordCount,
		LastUpdated:      topic.LastUpdated,
		Order:            topic.Order,
	}
}

func toTopicResponses(topics []*models.Topic) []topicResponse {
	responses := make([]topicResponse, 0, len(topics))
	for _, topic := range topics {
		responses = append(responses, toTopicResponse(topic))
	}

	return responses
}
