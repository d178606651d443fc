package clients_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/degen-feed/degen-feed/internal/bot/clients"
	"github.com/degen-feed/degen-feed/internal/domain/models"
)

func TestFormatUpdateMessage(t *testing.T) {
	update := &models.TopicUpdate{
		TopicID:         1,
		UserID:          7,
		DisplayName:     "degen",
		TwitterSummary:  "talking about the new memecoin meta",
		TelegramSummary: "channel is quiet today",
	}

	message := clients.FormatUpdateMessage(update)

	assert.Contains(t, message, "*degen updated*")
	assert.Contains(t, message, "talking about the new memecoin meta")
	assert.Contains(t, message, "channel is quiet today")
}

func TestFormatUpdateMessage_PrebuiltMessage(t *testing.T) {
	update := &models.TopicUpdate{
		UserID:  7,
		Message: "📋 *Daily Brief for September 1, 2026*",
	}

	assert.Equal(t, update.Message, clients.FormatUpdateMessage(update))
}

func TestFormatUpdateMessage_TwitterOnly(t *testing.T) {
	update := &models.TopicUpdate{
		DisplayName:    "degen",
		TwitterSummary: "only twitter content",
	}

	message := clients.FormatUpdateMessage(update)

	assert.Contains(t, message, "only twitter content")
	assert.NotContains(t, message, "✈️")
}
