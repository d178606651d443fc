package clients_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/degen-feed/degen-feed/internal/config"
	"github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/feed/clients"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientTestConfig() *config.Config {
	return &config.Config{
		ExternalRequestTimeout:     5 * time.Second,
		RetryCount:                 3,
		RetryBackoff:               100 * time.Millisecond,
		RetryableStatusCodes:       []int{500, 502, 503, 504},
		CBSlidingWindowSize:        100,
		CBMinimumRequiredCalls:     10,
		CBFailureRateThreshold:     90,
		CBPermittedCallsInHalfOpen: 3,
		CBWaitDurationInOpenState:  10 * time.Second,
		RecentContentWindow:        24 * time.Hour,
	}
}

func TestTwitterClient_RetryBehavior(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requestCount++
		if requestCount <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)

			response := `{"status": "success", "tweets": [{"text": "gm", "createdAt": "2026-08-30T10:00:00Z", "likeCount": 12, "retweetCount": 3, "author": {"name": "Degen", "profilePicture": "https://example.com/p.png"}}]}`
			if _, err := w.Write([]byte(response)); err != nil {
				t.Errorf("Failed to write response: %v", err)
			}
		}
	}))
	defer server.Close()

	client := clients.NewTwitterClient("", server.URL, clientTestConfig(), logger)

	ctx := context.Background()

	tweets, err := client.GetUserTweets(ctx, "degen")

	require.NoError(t, err)
	assert.Equal(t, 3, requestCount)

	require.Len(t, tweets, 1)
	assert.Equal(t, "gm", tweets[0].Text)
	assert.Equal(t, 12, tweets[0].LikeCount)
	assert.Equal(t, "Degen", tweets[0].Author.Name)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), tweets[0].CreatedAt)
}

func TestTwitterClient_NonRetryableStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requestCount++

		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := clients.NewTwitterClient("", server.URL, clientTestConfig(), logger)

	ctx := context.Background()

	_, err := client.GetUserTweets(ctx, "degen")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	assert.Equal(t, 1, requestCount)
}

func TestTwitterClient_NoTweets(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte(`{"status": "success", "tweets": []}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := clients.NewTwitterClient("", server.URL, clientTestConfig(), logger)

	_, err := client.GetUserTweets(context.Background(), "ghost")

	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.ErrSourceUnavailable{})
}

func TestTwitterClient_ErrorStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte(`{"status": "error", "message": "user not found"}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := clients.NewTwitterClient("", server.URL, clientTestConfig(), logger)

	_, err := client.GetUserTweets(context.Background(), "ghost")

	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.ErrSourceUnavailable{})
}
