package models

import (
	"time"
)

// TopicUpdate описывает событие об обновлённой сводке топика, передаётся боту
// для уведомлений и ежедневных брифов.
type TopicUpdate struct {
	TopicID         int64     `json:"topicId"`
	UserID          int64     `json:"userId"`
	DisplayName     string    `json:"displayName"`
	TwitterSummary  string    `json:"twitterSummary,omitempty"`
	TelegramSummary string    `json:"telegramSummary,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// Message содержит готовый текст, который бот отправляет как есть.
	// Заполняется для составных сообщений вроде ежедневного брифа.
	Message string `json:"message,omitempty"`
}

// ReorderPosition задаёт положение перетаскиваемого топика относительно целевого.
type ReorderPosition string

const (
	PositionBefore ReorderPosition = "before"
	PositionAfter  ReorderPosition = "after"
)

// OrderUpdate содержит пару id/порядок для батчевого обновления порядка топиков.
type OrderUpdate struct {
	TopicID int64 `json:"id"`
	Order   int   `json:"order"`
}
