// Package binance implements a quote source fed by the Binance spot
// mini-ticker websocket stream. The feed maintains an in-memory table of
// the latest ticker per asset; Fetch is a snapshot read of that table, so
// collection cycles never block on the exchange.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// SourceName is the venue label stamped on every quote this feed emits.
const SourceName = "binance"

const (
	writeWait      = 10 * time.Second
	readWait       = 3 * time.Minute
	reconnectDelay = 2 * time.Second
	dialTimeout    = 15 * time.Second
)

// Feed is a long-running websocket consumer of Binance mini-ticker events
// for the configured assets, quoted against USDT.
type Feed struct {
	wsURL  string
	assets []string
	maxAge time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	quotes map[string]domain.Quote // keyed by base asset symbol

	closeOnce sync.Once
	done      chan struct{}
}

// NewFeed creates a feed for the given assets. maxAge bounds how stale a
// table entry may be before Fetch stops returning it; during an outage the
// feed degrades to contributing nothing instead of serving dead prices.
func NewFeed(wsURL string, assets []string, maxAge time.Duration, logger *slog.Logger) *Feed {
	return &Feed{
		wsURL:  wsURL,
		assets: assets,
		maxAge: maxAge,
		logger: logger.With(slog.String("component", "binance_feed")),
		quotes: make(map[string]domain.Quote, len(assets)),
		done:   make(chan struct{}),
	}
}

var _ domain.SourceAdapter = (*Feed)(nil)

// Name implements domain.SourceAdapter.
func (f *Feed) Name() string { return SourceName }

// Fetch implements domain.SourceAdapter by reading the in-memory ticker
// table. Entries older than maxAge are dropped.
func (f *Feed) Fetch(_ context.Context, assets []string) ([]domain.Quote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	cutoff := time.Now().Add(-f.maxAge)
	quotes := make([]domain.Quote, 0, len(assets))
	for _, asset := range assets {
		q, ok := f.quotes[domain.NormalizeAsset(asset)]
		if !ok || q.ObservedAt.Before(cutoff) {
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// Run connects, subscribes to a mini-ticker stream per asset, and consumes
// events until ctx is cancelled or Close is called. Reconnects with a fixed
// delay on disconnect.
func (f *Feed) Run(ctx context.Context) error {
	if len(f.assets) == 0 {
		f.logger.Info("no assets to subscribe, exiting")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-f.done:
			return nil
		default:
		}
		f.logger.Warn("binance ws disconnected, reconnecting",
			slog.String("error", fmt.Sprintf("%v: %v", domain.ErrWSDisconnect, err)))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

// Close stops the feed. Safe to call more than once.
func (f *Feed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

// runConnection holds one websocket session: dial, subscribe, read until
// failure.
func (f *Feed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("binance: connect: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPingHandler(func(payload string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.PongMessage, []byte(payload))
	})

	if err := f.subscribe(conn); err != nil {
		return err
	}
	f.logger.Info("binance ws subscribed", slog.Int("assets", len(f.assets)))

	// Close the connection when ctx or the feed shuts down so ReadMessage
	// unblocks.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		case <-stop:
			return
		}
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("binance: read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(readWait))
		f.handleMessage(message)
	}
}

// subscribe sends one SUBSCRIBE command covering every asset's USDT
// mini-ticker stream.
func (f *Feed) subscribe(conn *websocket.Conn) error {
	streams := make([]string, 0, len(f.assets))
	for _, asset := range f.assets {
		streams = append(streams, strings.ToLower(domain.NormalizeAsset(asset))+"usdt@miniTicker")
	}
	cmd := struct {
		Method string   `json:"method"`
		Params []string `json:"params"`
		ID     int      `json:"id"`
	}{Method: "SUBSCRIBE", Params: streams, ID: 1}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("binance: subscribe: %w", err)
	}
	return nil
}

// miniTickerEvent is the 24hr mini-ticker payload. Prices and volumes
// arrive as strings.
type miniTickerEvent struct {
	EventType   string `json:"e"`
	Symbol      string `json:"s"`
	ClosePrice  string `json:"c"`
	QuoteVolume string `json:"q"`
}

// handleMessage updates the ticker table from one event. Non-ticker frames
// (subscription acks, unknown events) are dropped silently.
func (f *Feed) handleMessage(raw []byte) {
	var ev miniTickerEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return
	}
	if ev.EventType != "24hrMiniTicker" {
		return
	}

	base, ok := strings.CutSuffix(ev.Symbol, "USDT")
	if !ok {
		return
	}
	price, err := strconv.ParseFloat(ev.ClosePrice, 64)
	if err != nil {
		return
	}
	volume, err := strconv.ParseFloat(ev.QuoteVolume, 64)
	if err != nil {
		volume = 0
	}

	quote := domain.Quote{
		Source:     SourceName,
		AssetPair:  base + "/USDT",
		Price:      price,
		Volume24h:  volume,
		ObservedAt: time.Now(),
	}
	if !quote.Valid() {
		return
	}

	f.mu.Lock()
	f.quotes[base] = quote
	f.mu.Unlock()
}
