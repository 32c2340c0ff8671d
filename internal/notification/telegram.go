package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Characters Telegram's MarkdownV2 dialect requires escaping.
const mdSpecials = "_*[]()~`>#+-=|{}.!"

// TelegramNotifier delivers alerts as MarkdownV2 messages via the Bot API.
type TelegramNotifier struct {
	chatID   string
	endpoint string
	client   *http.Client
}

// NewTelegramNotifier creates a Telegram notifier for the given bot token
// and target chat/group/channel ID.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		chatID:   chatID,
		endpoint: fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", botToken),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	body, _ := json.Marshal(map[string]any{
		"chat_id":    t.chatID,
		"text":       renderTelegram(alert),
		"parse_mode": "MarkdownV2",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}
	var reply struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err == nil && !reply.OK {
		return fmt.Errorf("telegram: rejected: %s", reply.Description)
	}

	log.Printf("[telegram] sent alert: %s", alert.Title)
	return nil
}

// renderTelegram lays the alert out as a MarkdownV2 message with a
// symbol/strategy footer.
func renderTelegram(alert Alert) string {
	var b strings.Builder
	b.WriteString(levelBadge(alert.Level))
	b.WriteByte(' ')
	b.WriteByte('*')
	b.WriteString(mdEscape(alert.Title))
	b.WriteString("*\n\n")
	b.WriteString(mdEscape(alert.Message))

	if alert.Symbol != "" {
		b.WriteString("\n\n")
		b.WriteString(mdEscape(alert.Symbol))
		if alert.Strategy != "" {
			b.WriteString(mdEscape(" / " + alert.Strategy))
		}
	}
	return b.String()
}

func levelBadge(level AlertLevel) string {
	switch level {
	case AlertWarning:
		return "⚠️"
	case AlertCritical:
		return "🚨"
	default:
		return "ℹ️"
	}
}

// mdEscape backslash-escapes every MarkdownV2 special character.
func mdEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 && strings.ContainsRune(mdSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
