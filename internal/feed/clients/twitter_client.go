package clients

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/degen-feed/degen-feed/internal/common/httputil"
	"github.com/degen-feed/degen-feed/internal/config"
	"github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/go-resty/resty/v2"
)

type TwitterClient struct {
	client  *resty.Client
	apiKey  string
	baseURL string
	logger  *slog.Logger
}

type TweetsGetter interface {
	GetUserTweets(ctx context.Context, username string) ([]models.Tweet, error)
}

func NewTwitterClient(apiKey, baseURL string, cfg *config.Config, logger *slog.Logger) TweetsGetter {
	if baseURL == "" {
		baseURL = "https://api.twitterapi.io"
	}

	client := httputil.CreateResilientHTTPClient(cfg, logger, "twitter")

	return &TwitterClient{
		client:  client,
		apiKey:  apiKey,
		baseURL: baseURL,
		logger:  logger,
	}
}

type tweetAuthorResponse struct {
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
}

type tweetResponse struct {
	Text         string              `json:"text"`
	CreatedAt    string              `json:"createdAt"`
	LikeCount    int                 `json:"likeCount"`
	RetweetCount int                 `json:"retweetCount"`
	Author       tweetAuthorResponse `json:"author"`
}

type userTweetsResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Tweets  []tweetResponse `json:"tweets"`
}

// GetUserTweets возвращает недавние посты пользователя X, упорядоченные как в API.
// Любой статус кроме "success" и пустой список считаются недоступностью источника.
func (c *TwitterClient) GetUserTweets(ctx context.Context, username string) ([]models.Tweet, error) {
	url := fmt.Sprintf("%s/twitter/user/last_tweets", c.baseURL)

	request := c.client.R().
		SetContext(ctx).
		SetQueryParam("userName", username)

	if c.apiKey != "" {
		request.SetHeader("X-API-Key", c.apiKey)
	}

	var result userTweetsResponse

	resp, err := request.
		SetResult(&result).
		Get(url)

	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("Twitter API вернул статус: %d", resp.StatusCode())
	}

	if result.Status != "success" || len(result.Tweets) == 0 {
		return nil, &errors.ErrSourceUnavailable{Platform: "twitter", Source: username}
	}

	tweets := make([]models.Tweet, 0, len(result.Tweets))

	for _, tw := range result.Tweets {
		tweets = append(tweets, models.Tweet{
			Text:         tw.Text,
			CreatedAt:    parseTweetTime(tw.CreatedAt),
			LikeCount:    tw.LikeCount,
			RetweetCount: tw.RetweetCount,
			Author: models.TweetAuthor{
				Name:           tw.Author.Name,
				ProfilePicture: tw.Author.ProfilePicture,
			},
		})
	}

	return tweets, nil
}

// parseTweetTime разбирает дату поста: API отдаёт RFC3339 либо Ruby-формат.
func parseTweetTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, time.RubyDate} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}
