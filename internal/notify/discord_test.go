package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

func captureWebhook(t *testing.T, status int) (*httptest.Server, *discordPayload) {
	t.Helper()
	var got discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestDiscordSend_OpportunityRendersAsEmbed(t *testing.T) {
	srv, got := captureWebhook(t, http.StatusNoContent)
	s := NewDiscordSender(srv.URL)

	err := s.Send(context.Background(), Alert{
		Event: EventArbDetected,
		Title: "Arbitrage: ETH 2.00%",
		Body:  "plain fallback",
		Opportunity: &domain.Opportunity{
			Asset:      "ETH",
			BuySource:  "binance",
			SellSource: "coinbase",
			BuyPrice:   3000,
			SellPrice:  3060,
			NetProfit:  190,
			Confidence: domain.ConfidenceHigh,
		},
	})
	require.NoError(t, err)

	assert.Empty(t, got.Content)
	require.Len(t, got.Embeds, 1)
	embed := got.Embeds[0]
	assert.Equal(t, "Arbitrage: ETH 2.00%", embed.Title)
	assert.Equal(t, colorHigh, embed.Color)
	require.Len(t, embed.Fields, 4)
	assert.Equal(t, "binance @ $3000", embed.Fields[0].Value)
	assert.Equal(t, "coinbase @ $3060", embed.Fields[1].Value)
	assert.Equal(t, "$190.00", embed.Fields[2].Value)
	assert.Equal(t, "high", embed.Fields[3].Value)
}

func TestDiscordSend_LowConfidenceEmbedColor(t *testing.T) {
	srv, got := captureWebhook(t, http.StatusNoContent)
	s := NewDiscordSender(srv.URL)

	err := s.Send(context.Background(), Alert{
		Title:       "Arbitrage: DOGE 6.00%",
		Opportunity: &domain.Opportunity{Confidence: domain.ConfidenceLow},
	})
	require.NoError(t, err)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, colorLow, got.Embeds[0].Color)
}

func TestDiscordSend_PlainAlertPostsContent(t *testing.T) {
	srv, got := captureWebhook(t, http.StatusNoContent)
	s := NewDiscordSender(srv.URL)

	err := s.Send(context.Background(), Alert{
		Event: EventMonitorStarted,
		Title: "Monitor started",
		Body:  "Watching 16 assets every 1m0s.",
	})
	require.NoError(t, err)

	assert.Empty(t, got.Embeds)
	assert.Equal(t, "**Monitor started**\nWatching 16 assets every 1m0s.", got.Content)
}

func TestDiscordSend_NonSuccessStatusIsError(t *testing.T) {
	srv, _ := captureWebhook(t, http.StatusBadRequest)
	s := NewDiscordSender(srv.URL)

	err := s.Send(context.Background(), Alert{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
