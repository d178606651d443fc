package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/degen-feed/degen-feed/internal/common/httputil"
	"github.com/degen-feed/degen-feed/internal/config"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/go-resty/resty/v2"
)

type TelegramChannelClient struct {
	client       *resty.Client
	baseURL      string
	recentWindow time.Duration
	logger       *slog.Logger
}

type ChannelReader interface {
	CheckChannel(ctx context.Context, channelName string) (bool, error)
	GetChannelMessages(ctx context.Context, channelName string) ([]models.TelegramMessage, error)
	JoinPrivateChannel(ctx context.Context, inviteLink string) (*models.PrivateChannelInfo, error)
}

func NewTelegramChannelClient(baseURL string, cfg *config.Config, logger *slog.Logger) ChannelReader {
	if baseURL == "" {
		baseURL = "https://tele-extract.fly.dev"
	}

	client := httputil.CreateResilientHTTPClient(cfg, logger, "telegram_extract")

	return &TelegramChannelClient{
		client:       client,
		baseURL:      baseURL,
		recentWindow: cfg.RecentContentWindow,
		logger:       logger,
	}
}

type checkChannelResponse struct {
	ValidAndJoinable bool   `json:"valid_and_joinable"`
	Message          string `json:"message"`
}

// CheckChannel проверяет, что канал существует и в него можно вступить.
// Используется и при валидации формы, и как предусловие добавления топика.
func (c *TelegramChannelClient) CheckChannel(ctx context.Context, channelName string) (bool, error) {
	url := fmt.Sprintf("%s/check/%s", c.baseURL, channelName)

	var result checkChannelResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(url)

	if err != nil {
		return false, err
	}

	if !resp.IsSuccess() {
		return false, fmt.Errorf("Telegram API вернул статус: %d", resp.StatusCode())
	}

	return result.ValidAndJoinable, nil
}

type telegramMessageResponse struct {
	Text   string `json:"text"`
	Date   string `json:"date"`
	Views  int    `json:"views"`
	Sender struct {
		Name string `json:"name"`
	} `json:"sender"`
}

// GetChannelMessages возвращает сообщения канала за последние 24 часа.
// Экстрактор может вернуть либо массив сообщений, либо объект
// {"message": "No activity..."}, второе трактуется как пустой результат.
func (c *TelegramChannelClient) GetChannelMessages(ctx context.Context, channelName string) ([]models.TelegramMessage, error) {
	url := fmt.Sprintf("%s/scrape/%s", c.baseURL, channelName)

	resp, err := c.client.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("Telegram API вернул статус: %d", resp.StatusCode())
	}

	body := resp.Body()

	var rawMessages []telegramMessageResponse
	if err := json.Unmarshal(body, &rawMessages); err != nil {
		var alt struct {
			Message string `json:"message"`
		}

		if altErr := json.Unmarshal(body, &alt); altErr == nil && strings.Contains(alt.Message, "No activity") {
			return []models.TelegramMessage{}, nil
		}

		return nil, fmt.Errorf("ошибка при разборе ответа экстрактора: %w", err)
	}

	now := time.Now()
	messages := make([]models.TelegramMessage, 0, len(rawMessages))

	for _, raw := range rawMessages {
		msg := models.TelegramMessage{
			Text:   raw.Text,
			Date:   parseMessageTime(raw.Date),
			Views:  raw.Views,
			Sender: models.MessageSender{Name: raw.Sender.Name},
		}

		if now.Sub(msg.Date) <= c.recentWindow {
			messages = append(messages, msg)
		}
	}

	return messages, nil
}

type joinChannelResponse struct {
	ChannelID int64  `json:"channel_id"`
	Title     string `json:"title"`
	Joined    bool   `json:"joined"`
	Message   string `json:"message"`
}

// JoinPrivateChannel вступает в приватный канал по инвайт-ссылке и
// возвращает его метаданные. Отдельный путь от пары check/scrape.
func (c *TelegramChannelClient) JoinPrivateChannel(ctx context.Context, inviteLink string) (*models.PrivateChannelInfo, error) {
	url := fmt.Sprintf("%s/join", c.baseURL)

	var result joinChannelResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"invite_link": inviteLink}).
		SetResult(&result).
		Post(url)

	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("Telegram API вернул статус: %d", resp.StatusCode())
	}

	return &models.PrivateChannelInfo{
		ChannelID: result.ChannelID,
		Title:     result.Title,
		Joined:    result.Joined,
	}, nil
}

func parseMessageTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}
