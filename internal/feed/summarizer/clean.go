package summarizer

import (
	"regexp"
	"strings"
)

var (
	thinkBlockRegex  = regexp.MustCompile(`(?is)<think>.*?</think>`)
	boldThinkRegex   = regexp.MustCompile(`(?is)\*\*Think.*?\*\*`)
	leadInRegex      = regexp.MustCompile(`(?im)^(?:Think|Thinking|Let me|Hmm)[^:\n]*:`)
	basedOnRegex     = regexp.MustCompile(`(?im)^Based on[^,\n]*,`)
	boilerplateRegex = regexp.MustCompile(`(?im)^Here(?:'s| is)[^:\n]*:\s*`)
	numberedRegex    = regexp.MustCompile(`(?m)^\d+\.\s*`)
	bulletRegex      = regexp.MustCompile(`(?m)^[*-]\s*`)
)

// CleanContent убирает из ответа модели служебные рассуждения,
// вводные обороты и markdown-разметку, оставляя обычный текст.
// Жирное и заголовки вырезаются до маркеров списков, иначе ведущая
// звездочка жирного текста принимается за маркер.
func CleanContent(content string) string {
	content = thinkBlockRegex.ReplaceAllString(content, "")
	content = boldThinkRegex.ReplaceAllString(content, "")
	content = leadInRegex.ReplaceAllString(content, "")
	content = basedOnRegex.ReplaceAllString(content, "")
	content = boilerplateRegex.ReplaceAllString(content, "")

	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "##", "")
	content = numberedRegex.ReplaceAllString(content, "")
	content = bulletRegex.ReplaceAllString(content, "")

	return strings.TrimSpace(content)
}

// StripSubjectQuote убирает избыточное вступление, когда текст начинается
// с имени или хэндла субъекта в кавычках. Сам текст резюме и так начинается
// с имени по инструкции промпта.
func StripSubjectQuote(content, subject string) string {
	if subject == "" {
		return content
	}

	pattern := regexp.MustCompile(`(?i)^["'` + "`" + `“”]@?` + regexp.QuoteMeta(subject) + `["'` + "`" + `“”][:,.]?\s*`)

	return pattern.ReplaceAllString(content, "")
}
