package clients_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/degen-feed/degen-feed/internal/feed/clients"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramChannelClient_CheckChannel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check/durov", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte(`{"valid_and_joinable": true, "message": "ok"}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := clients.NewTelegramChannelClient(server.URL, clientTestConfig(), logger)

	ok, err := client.CheckChannel(context.Background(), "durov")

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTelegramChannelClient_CheckChannelNotJoinable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte(`{"valid_and_joinable": false, "message": "channel is private"}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := clients.NewTelegramChannelClient(server.URL, clientTestConfig(), logger)

	ok, err := client.CheckChannel(context.Background(), "secret_channel")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTelegramChannelClient_GetChannelMessages(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	recent := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	old := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scrape/durov", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := fmt.Sprintf(
			`[{"text": "fresh post", "date": %q, "views": 100, "sender": {"name": "Durov"}},
			  {"text": "stale post", "date": %q, "views": 5000, "sender": {"name": "Durov"}}]`,
			recent, old)
		if _, err := w.Write([]byte(response)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := clients.NewTelegramChannelClient(server.URL, clientTestConfig(), logger)

	messages, err := client.GetChannelMessages(context.Background(), "durov")

	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.Equal(t, "fresh post", messages[0].Text)
	assert.Equal(t, 100, messages[0].Views)
	assert.Equal(t, "Durov", messages[0].Sender.Name)
}

func TestTelegramChannelClient_NoActivity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte(`{"message": "No activity in the last 24 hours"}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := clients.NewTelegramChannelClient(server.URL, clientTestConfig(), logger)

	messages, err := client.GetChannelMessages(context.Background(), "quiet_channel")

	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestTelegramChannelClient_JoinPrivateChannel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/join", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte(`{"channel_id": 123456, "title": "Alpha Calls", "joined": true}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := clients.NewTelegramChannelClient(server.URL, clientTestConfig(), logger)

	info, err := client.JoinPrivateChannel(context.Background(), "https://t.me/+abcdef")

	require.NoError(t, err)
	assert.Equal(t, int64(123456), info.ChannelID)
	assert.Equal(t, "Alpha Calls", info.Title)
	assert.True(t, info.Joined)
}
