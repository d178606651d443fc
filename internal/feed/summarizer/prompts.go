package summarizer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/degen-feed/degen-feed/internal/domain/models"
)

const promptDateLayout = "Monday, January 2, 2006 03:04 PM MST"

// wordBand возвращает целевой объём резюме в словах для запроса к модели.
// Без свежего контента всегда короткая сводка.
func wordBand(length models.SummaryLength, customWords int, hasRecent bool) string {
	if !hasRecent {
		return "20"
	}

	switch length {
	case models.ConciseSummary:
		return "20-30"
	case models.DetailedSummary:
		return "50-75"
	case models.ComprehensiveSummary:
		return "100-150"
	case models.CustomSummary:
		return strconv.Itoa(models.ClampCustomWords(customWords))
	default:
		return "50-75"
	}
}

func timeAgo(now, ts time.Time) string {
	hours := int(now.Sub(ts).Hours())
	if hours <= 0 {
		return "just now"
	}

	return fmt.Sprintf("%dh ago", hours)
}

// topTweetsByEngagement сортирует по лайкам+ретвитам и оставляет не более пяти.
func topTweetsByEngagement(tweets []models.Tweet) []models.Tweet {
	sorted := make([]models.Tweet, len(tweets))
	copy(sorted, tweets)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Engagement() > sorted[j].Engagement()
	})

	if len(sorted) > 5 {
		sorted = sorted[:5]
	}

	return sorted
}

// topMessages сортирует по просмотрам, а при их отсутствии по свежести,
// и оставляет не более пяти.
func topMessages(messages []models.TelegramMessage) []models.TelegramMessage {
	sorted := make([]models.TelegramMessage, len(messages))
	copy(sorted, messages)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Views > 0 && sorted[j].Views > 0 {
			return sorted[i].Views > sorted[j].Views
		}

		return sorted[i].Date.After(sorted[j].Date)
	})

	if len(sorted) > 5 {
		sorted = sorted[:5]
	}

	return sorted
}

func buildTwitterPrompt(now time.Time, username, words string, tweets []models.Tweet) (prompt, system string) {
	lines := make([]string, 0, len(tweets))
	for _, tw := range tweets {
		lines = append(lines, fmt.Sprintf("%q (%d likes, %d retweets, %s)",
			tw.Text, tw.LikeCount, tw.RetweetCount, timeAgo(now, tw.CreatedAt)))
	}

	prompt = fmt.Sprintf(`Current date and time: %s

Write a detailed, conversational summary of what @%s has been posting about on X recently. Include specific names, companies, topics, numbers, and key details mentioned. Be natural and engaging, like you're telling a friend what's happening. Write %s words. Start with "%s" and then describe their content.

Recent posts (top 5 by engagement):
%s`, now.Format(promptDateLayout), username, words, username, strings.Join(lines, "\n\n"))

	system = fmt.Sprintf(`You are a social media observer who writes detailed, conversational summaries. Write %s words that capture the key details, names, companies, topics, and numbers mentioned. ALWAYS start with the person's name "%s" followed by their content description. Be specific and include important context. Write as flowing, natural paragraphs.`, words, username)

	return prompt, system
}

func buildTwitterNoRecentPrompt(now time.Time, username, words string, older []models.Tweet) (prompt, system string) {
	if len(older) > 5 {
		older = older[:5]
	}

	lines := make([]string, 0, len(older))
	for _, tw := range older {
		lines = append(lines, fmt.Sprintf("%q (%s)", tw.Text, tw.CreatedAt.Format("1/2/2006")))
	}

	prompt = fmt.Sprintf(`Current date and time: %s

@%s has not posted any tweets recently. Write a brief %s word summary about what their last tweets were about. Be conversational and natural. Start with "%s" and then describe their content.

Their previous tweets:
%s`, now.Format(promptDateLayout), username, words, username, strings.Join(lines, "\n\n"))

	system = fmt.Sprintf(`You are a social media observer. Write exactly %s words in a conversational tone about what someone's last tweets were about. ALWAYS start with the person's name "%s" followed by their content description. Be natural and specific.`, words, username)

	return prompt, system
}

func buildTelegramPrompt(now time.Time, channelName, words string, messages []models.TelegramMessage) (prompt, system string) {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%q (by %s, %s)", msg.Text, msg.Sender.Name, timeAgo(now, msg.Date)))
	}

	prompt = fmt.Sprintf(`Current date and time: %s

Write a detailed, conversational summary of what has been discussed in the %s Telegram channel recently. Include specific topics, key points, and important details mentioned. Be natural and engaging, like you're telling a friend what's happening. Write %s words. Start with "%s" and then describe the content.

Recent messages (top 5 by engagement):
%s`, now.Format(promptDateLayout), channelName, words, channelName, strings.Join(lines, "\n\n"))

	system = fmt.Sprintf(`You are a social media observer who writes detailed, conversational summaries. Write %s words that capture the key topics, discussions, and important details mentioned. ALWAYS start with the channel name "%s" followed by the content description. Be specific and include important context. Write as flowing, natural paragraphs.`, words, channelName)

	return prompt, system
}
