package models

import (
	"time"
)

// DefaultBriefTime задает время доставки ежедневного брифа по умолчанию.
const DefaultBriefTime = "09:00"

// User представляет пользователя Telegram Mini App. ID совпадает с Telegram user id.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	LastSeen  time.Time
	CreatedAt time.Time

	// Настройки приложения.
	DarkMode     bool
	BriefEnabled bool
	BriefTime    string // HH:MM, время доставки ежедневного брифа
}

// InitData содержит разобранную и проверенную строку initData из Telegram WebApp.
type InitData struct {
	User     *User
	AuthDate time.Time
	Hash     string
}
