package notify

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram's hard per-message limit.
const telegramMessageLimit = 4096

// Telegram sends reports as HTML-formatted bot messages.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram authenticates the bot against the Telegram API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Send converts the markdown body to Telegram HTML and delivers it,
// splitting into multiple messages when it exceeds the API limit.
func (t *Telegram) Send(ctx context.Context, subject, markdownBody string) error {
	text := "<b>" + html.EscapeString(subject) + "</b>\n\n" + markdownToTelegramHTML(markdownBody)

	for _, chunk := range splitMessage(text, telegramMessageLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.api.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

var boldRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// markdownToTelegramHTML maps the subset of markdown the renderer
// emits (bold, headings, blockquotes) onto Telegram's HTML tags.
func markdownToTelegramHTML(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "# "):
			lines[i] = "<b>" + html.EscapeString(strings.TrimPrefix(line, "# ")) + "</b>"
		case strings.HasPrefix(line, "## "):
			lines[i] = "<b>" + html.EscapeString(strings.TrimPrefix(line, "## ")) + "</b>"
		case strings.HasPrefix(strings.TrimSpace(line), "> "):
			trimmed := strings.TrimPrefix(strings.TrimSpace(line), "> ")
			lines[i] = "<i>" + html.EscapeString(trimmed) + "</i>"
		default:
			escaped := html.EscapeString(line)
			lines[i] = boldRe.ReplaceAllString(escaped, "<b>$1</b>")
		}
	}
	return strings.Join(lines, "\n")
}

// splitMessage cuts text into chunks of at most limit bytes,
// preferring line boundaries so HTML tags are not torn apart.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		// A single oversized line is cut hard.
		for len(line) > limit {
			if b.Len() > 0 {
				chunks = append(chunks, b.String())
				b.Reset()
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if b.Len()+len(line)+1 > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
