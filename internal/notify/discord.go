package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Embed colors per confidence tier.
const (
	colorHigh   = 0x2ecc71 // green
	colorMedium = 0xe67e22 // orange
	colorLow    = 0x95a5a6 // grey
)

// DiscordSender delivers alerts via a Discord webhook. Opportunities are
// rendered as an embed with one field per leg; other alerts post as a bold
// title over the plain body.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL. It uses a
// default HTTP client with a 10-second timeout.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title  string         `json:"title"`
	Color  int            `json:"color"`
	Fields []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Send posts one alert to the Discord webhook.
func (d *DiscordSender) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(d.render(alert))
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// render builds the webhook payload: an embed for opportunities, markdown
// content for everything else.
func (d *DiscordSender) render(alert Alert) discordPayload {
	opp := alert.Opportunity
	if opp == nil {
		return discordPayload{
			Content: fmt.Sprintf("**%s**\n%s", alert.Title, alert.Body),
		}
	}

	color := colorLow
	switch opp.Confidence {
	case domain.ConfidenceHigh:
		color = colorHigh
	case domain.ConfidenceMedium:
		color = colorMedium
	}

	return discordPayload{
		Embeds: []discordEmbed{{
			Title: alert.Title,
			Color: color,
			Fields: []discordField{
				{Name: "Buy", Value: fmt.Sprintf("%s @ $%g", opp.BuySource, opp.BuyPrice), Inline: true},
				{Name: "Sell", Value: fmt.Sprintf("%s @ $%g", opp.SellSource, opp.SellPrice), Inline: true},
				{Name: "Net profit", Value: fmt.Sprintf("$%.2f", opp.NetProfit), Inline: true},
				{Name: "Confidence", Value: string(opp.Confidence), Inline: true},
			},
		}},
	}
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}
