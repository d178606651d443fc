package models

import (
	"strings"
	"time"
)

type TopicType string

const (
	TwitterTopic         TopicType = "twitter"
	TelegramTopic        TopicType = "telegram"
	BothTopic            TopicType = "both"
	PrivateTelegramTopic TopicType = "private_telegram"
)

// HasTwitter сообщает, включает ли тип топика источник X/Twitter.
func (t TopicType) HasTwitter() bool {
	return t == TwitterTopic || t == BothTopic
}

// HasTelegram сообщает, включает ли тип топика Telegram-канал.
func (t TopicType) HasTelegram() bool {
	return t == TelegramTopic || t == BothTopic || t == PrivateTelegramTopic
}

type SummaryLength string

const (
	ConciseSummary       SummaryLength = "concise"
	DetailedSummary      SummaryLength = "detailed"
	ComprehensiveSummary SummaryLength = "comprehensive"
	CustomSummary        SummaryLength = "custom"
)

const (
	// MinCustomWords и MaxCustomWords ограничивают пользовательскую длину сводки.
	MinCustomWords = 50
	MaxCustomWords = 1000
)

// ClampCustomWords приводит пользовательскую длину сводки к допустимому диапазону.
func ClampCustomWords(words int) int {
	if words < MinCustomWords {
		return MinCustomWords
	}

	if words > MaxCustomWords {
		return MaxCustomWords
	}

	return words
}

// Topic представляет отслеживаемый источник сигналов пользователя.
// Порядок топиков пользователя значим и хранится в поле Order (плотная
// последовательность 0..n-1).
type Topic struct {
	ID               int64
	UserID           int64
	Type             TopicType
	Username         string
	ChannelName      string
	DisplayName      string
	ProfilePicture   string
	TwitterSummary   string
	TelegramSummary  string
	Tweets           []Tweet
	TelegramMessages []TelegramMessage
	SummaryLength    SummaryLength
	CustomWordCount  int
	LastUpdated      time.Time
	Order            int
	CreatedAt        time.Time
}

// MatchesSource проверяет совпадение идентификаторов источника без учёта регистра.
func (t *Topic) MatchesSource(username, channelName string) bool {
	if username != "" && t.Username != "" && strings.EqualFold(t.Username, username) {
		return true
	}

	if channelName != "" && t.ChannelName != "" && strings.EqualFold(t.ChannelName, channelName) {
		return true
	}

	return false
}

// IsStale сообщает, что с момента последнего обновления прошло больше cacheDuration.
func (t *Topic) IsStale(now time.Time, cacheDuration time.Duration) bool {
	return now.Sub(t.LastUpdated) > cacheDuration
}
