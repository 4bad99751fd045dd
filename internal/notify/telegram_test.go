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

func captureTelegram(t *testing.T) (*map[string]string, *string) {
	t.Helper()
	got := map[string]string{}
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(srv.Close)

	orig := telegramAPIBase
	telegramAPIBase = srv.URL
	t.Cleanup(func() { telegramAPIBase = orig })

	return &got, &path
}

func TestTelegramSend_OpportunityRendersAsHTMLBlock(t *testing.T) {
	got, path := captureTelegram(t)
	s := NewTelegramSender("token123", "chat456")

	err := s.Send(context.Background(), Alert{
		Event: EventArbDetected,
		Title: "Arbitrage: ETH 2.00%",
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

	assert.Equal(t, "/bottoken123/sendMessage", *path)
	assert.Equal(t, "chat456", (*got)["chat_id"])
	assert.Equal(t, "HTML", (*got)["parse_mode"])
	text := (*got)["text"]
	assert.Contains(t, text, "<b>Arbitrage: ETH 2.00%</b>")
	assert.Contains(t, text, "binance @ $3000")
	assert.Contains(t, text, "coinbase @ $3060")
	assert.Contains(t, text, "<b>$190.00</b>")
	assert.Contains(t, text, "Confidence: high")
}

func TestTelegramSend_EscapesExternalStrings(t *testing.T) {
	got, _ := captureTelegram(t)
	s := NewTelegramSender("token", "chat")

	err := s.Send(context.Background(), Alert{
		Title: "Arbitrage: X<Y 1.00%",
		Opportunity: &domain.Opportunity{
			BuySource:  "dex<img>",
			SellSource: "ok",
			Confidence: domain.ConfidenceLow,
		},
	})
	require.NoError(t, err)

	text := (*got)["text"]
	assert.Contains(t, text, "X&lt;Y")
	assert.Contains(t, text, "dex&lt;img&gt;")
	assert.NotContains(t, text, "<img>")
}

func TestTelegramSend_PlainAlertIsBoldTitleOverBody(t *testing.T) {
	got, _ := captureTelegram(t)
	s := NewTelegramSender("token", "chat")

	err := s.Send(context.Background(), Alert{
		Event: EventMonitorStopped,
		Title: "Monitor stopped",
		Body:  "Periodic collection halted.",
	})
	require.NoError(t, err)
	assert.Equal(t, "<b>Monitor stopped</b>\nPeriodic collection halted.", (*got)["text"])
}

func TestTelegramSend_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	orig := telegramAPIBase
	telegramAPIBase = srv.URL
	t.Cleanup(func() { telegramAPIBase = orig })

	s := NewTelegramSender("bad", "chat")
	err := s.Send(context.Background(), Alert{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
