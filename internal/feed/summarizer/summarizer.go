package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/degen-feed/degen-feed/internal/common/metrics"
	"github.com/degen-feed/degen-feed/internal/config"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	openai "github.com/sashabaranov/go-openai"
)

const (
	twitterFallback  = "Unable to generate X summary at this time."
	telegramFallback = "Unable to generate Telegram summary at this time."
)

// Request описывает контент одного топика, по которому нужны резюме.
type Request struct {
	Tweets           []models.Tweet
	TelegramMessages []models.TelegramMessage
	TwitterUsername  string
	TelegramChannel  string
	Length           models.SummaryLength
	CustomWordCount  int
}

// Result содержит резюме по каждой платформе независимо.
// Пустая строка означает, что для платформы не было контента.
type Result struct {
	TwitterSummary  string
	TelegramSummary string
}

type ContentSummarizer interface {
	Summarize(ctx context.Context, req *Request) (*Result, error)
}

type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Summarizer struct {
	client       CompletionClient
	model        string
	recentWindow time.Duration
	logger       *slog.Logger
}

func NewSummarizer(cfg *config.Config, logger *slog.Logger) *Summarizer {
	aiConfig := openai.DefaultConfig(cfg.AIAPIKey)
	aiConfig.BaseURL = cfg.AIBaseURL
	aiConfig.HTTPClient = &http.Client{Timeout: cfg.AIRequestTimeout}

	return &Summarizer{
		client:       openai.NewClientWithConfig(aiConfig),
		model:        cfg.AIModel,
		recentWindow: cfg.RecentContentWindow,
		logger:       logger,
	}
}

// NewSummarizerWithClient подменяет клиента модели, используется в тестах.
func NewSummarizerWithClient(client CompletionClient, model string, recentWindow time.Duration, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		client:       client,
		model:        model,
		recentWindow: recentWindow,
		logger:       logger,
	}
}

// Summarize строит резюме по каждой платформе независимо: сбой одной
// не влияет на другую, вместо ошибки подставляется заглушка.
func (s *Summarizer) Summarize(ctx context.Context, req *Request) (*Result, error) {
	now := time.Now()
	result := &Result{}

	if len(req.Tweets) > 0 && req.TwitterUsername != "" {
		summary, err := s.summarizeTweets(ctx, now, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			s.logger.Error("Ошибка при генерации резюме твитов",
				"error", err,
				"username", req.TwitterUsername)

			summary = twitterFallback
		}

		result.TwitterSummary = summary
	}

	if len(req.TelegramMessages) > 0 && req.TelegramChannel != "" {
		summary, err := s.summarizeMessages(ctx, now, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			s.logger.Error("Ошибка при генерации резюме канала",
				"error", err,
				"channel", req.TelegramChannel)

			summary = telegramFallback
		}

		result.TelegramSummary = summary
	}

	return result, nil
}

func (s *Summarizer) summarizeTweets(ctx context.Context, now time.Time, req *Request) (string, error) {
	recent := make([]models.Tweet, 0, len(req.Tweets))
	older := make([]models.Tweet, 0, len(req.Tweets))

	for _, tw := range req.Tweets {
		if now.Sub(tw.CreatedAt) <= s.recentWindow {
			recent = append(recent, tw)
		} else {
			older = append(older, tw)
		}
	}

	var prompt, system string

	if len(recent) == 0 {
		words := wordBand(req.Length, req.CustomWordCount, false)
		prompt, system = buildTwitterNoRecentPrompt(now, req.TwitterUsername, words, older)
	} else {
		words := wordBand(req.Length, req.CustomWordCount, true)
		prompt, system = buildTwitterPrompt(now, req.TwitterUsername, words, topTweetsByEngagement(recent))
	}

	return s.callModel(ctx, "twitter", req.TwitterUsername, system, prompt)
}

func (s *Summarizer) summarizeMessages(ctx context.Context, now time.Time, req *Request) (string, error) {
	recent := make([]models.TelegramMessage, 0, len(req.TelegramMessages))

	for _, msg := range req.TelegramMessages {
		if now.Sub(msg.Date) <= s.recentWindow {
			recent = append(recent, msg)
		}
	}

	if len(recent) == 0 {
		return fmt.Sprintf("%s has no recent messages in the current period.", req.TelegramChannel), nil
	}

	words := wordBand(req.Length, req.CustomWordCount, true)
	prompt, system := buildTelegramPrompt(now, req.TelegramChannel, words, topMessages(recent))

	return s.callModel(ctx, "telegram", req.TelegramChannel, system, prompt)
}

func (s *Summarizer) callModel(ctx context.Context, platform, subject, system, prompt string) (string, error) {
	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   4000,
		Temperature: 0.7,
		Stop:        []string{"<think>", "</think>"},
	})

	metrics.RecordSummary(platform, time.Since(start), err)

	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("модель вернула пустой ответ")
	}

	content := StripSubjectQuote(CleanContent(resp.Choices[0].Message.Content), subject)
	if content == "" {
		return "", fmt.Errorf("модель вернула пустой ответ")
	}

	return content, nil
}
