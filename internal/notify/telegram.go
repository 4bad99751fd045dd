package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"
)

// telegramAPIBase is overridable so tests can point the sender at a local
// server.
var telegramAPIBase = "https://api.telegram.org"

// TelegramSender delivers alerts via the Telegram Bot API using HTML parse
// mode. Opportunities are rendered as a bold headline over one line per
// leg; other alerts as a bold title over the plain body.
type TelegramSender struct {
	token  string
	chatID string
	client *http.Client
}

// NewTelegramSender creates a TelegramSender for the given bot token and
// chat ID.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one alert to the configured Telegram chat using the
// sendMessage API.
func (t *TelegramSender) Send(ctx context.Context, alert Alert) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, t.token)

	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       t.render(alert),
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// render produces the HTML message text. Dynamic strings are escaped since
// venue names come from external feeds.
func (t *TelegramSender) render(alert Alert) string {
	opp := alert.Opportunity
	if opp == nil {
		return fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(alert.Title), html.EscapeString(alert.Body))
	}

	return fmt.Sprintf(
		"<b>%s</b>\nBuy:  %s @ $%g\nSell: %s @ $%g\nNet profit: <b>$%.2f</b>\nConfidence: %s",
		html.EscapeString(alert.Title),
		html.EscapeString(opp.BuySource), opp.BuyPrice,
		html.EscapeString(opp.SellSource), opp.SellPrice,
		opp.NetProfit,
		string(opp.Confidence),
	)
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}
