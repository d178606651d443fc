package models

import (
	"time"
)

// TweetAuthor описывает автора поста в X.
type TweetAuthor struct {
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
}

// Tweet хранит снимок недавнего поста из X. Хранится только внутри топика
// для детального просмотра, отдельно не персистится.
type Tweet struct {
	Text         string      `json:"text"`
	CreatedAt    time.Time   `json:"createdAt"`
	LikeCount    int         `json:"likeCount"`
	RetweetCount int         `json:"retweetCount"`
	Author       TweetAuthor `json:"author"`
}

// Engagement возвращает суммарную вовлечённость поста для ранжирования.
func (t *Tweet) Engagement() int {
	return t.LikeCount + t.RetweetCount
}

type MessageSender struct {
	Name string `json:"name"`
}

// TelegramMessage хранит снимок сообщения из Telegram-канала.
type TelegramMessage struct {
	Text   string        `json:"text"`
	Date   time.Time     `json:"date"`
	Views  int           `json:"views,omitempty"`
	Sender MessageSender `json:"sender"`
}

// PrivateChannelInfo описывает результат присоединения к приватному каналу по инвайт-ссылке.
type PrivateChannelInfo struct {
	ChannelID int64
	Title     string
	Joined    bool
}
