package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/filter"
)

type fakeCollector struct {
	mu     sync.Mutex
	quotes []domain.Quote
	calls  int
	block  bool
}

func (f *fakeCollector) Collect(ctx context.Context, assets []string) []domain.Quote {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil
	}
	return f.quotes
}

func (f *fakeCollector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDetector struct {
	opps []domain.Opportunity
}

func (f *fakeDetector) Detect(quotes []domain.Quote) []domain.Opportunity {
	if len(quotes) == 0 {
		return nil
	}
	return f.opps
}

type fakeScorer struct{}

func (fakeScorer) Confidence(domain.Opportunity) domain.Confidence {
	return domain.ConfidenceMedium
}

type passThroughValidator struct{}

func (passThroughValidator) Apply(opps []domain.Opportunity) ([]domain.Opportunity, filter.Stats) {
	return opps, filter.Stats{Total: len(opps), Accepted: len(opps)}
}

type recordingBus struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
}

func (b *recordingBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, channel)
	b.payloads = append(b.payloads, payload)
	return nil
}

type recordingCache struct {
	mu     sync.Mutex
	latest []byte
}

func (c *recordingCache) SetLatest(_ context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = payload
	return nil
}

func (c *recordingCache) GetLatest(context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return nil, domain.ErrNotFound
	}
	return c.latest, nil
}

func testOpps() []domain.Opportunity {
	return []domain.Opportunity{
		{Asset: "ETH", BuySource: "binance", SellSource: "coinbase", NetProfit: 50},
		{Asset: "BTC", BuySource: "kraken", SellSource: "binance", NetProfit: 120},
	}
}

func newMonitor(c *fakeCollector, opts Options) *Monitor {
	return New(c, &fakeDetector{opps: testOpps()}, fakeScorer{}, passThroughValidator{},
		[]string{"ETH", "BTC"}, 50*time.Millisecond, opts, slog.Default())
}

func TestCollectNow_PublishesRankedSnapshot(t *testing.T) {
	c := &fakeCollector{quotes: []domain.Quote{{Source: "binance", AssetPair: "ETH/USDT", Price: 1, ObservedAt: time.Now()}}}
	m := newMonitor(c, Options{})

	snap, err := m.CollectNow(context.Background())

	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Opportunities, 2)
	assert.Equal(t, "BTC", snap.Opportunities[0].Asset, "ranked by net profit descending")
	assert.Equal(t, 1, snap.Stats.QuotesCollected)
	assert.Equal(t, 2, snap.Stats.Candidates)
	assert.Equal(t, 2, snap.Stats.Accepted)
	assert.False(t, snap.UpdatedAt.IsZero())
	assert.Same(t, snap, m.Latest())
}

func TestCollectNow_ScorerAssignsConfidence(t *testing.T) {
	c := &fakeCollector{quotes: []domain.Quote{{Source: "x", AssetPair: "ETH/USDT", Price: 1, ObservedAt: time.Now()}}}
	m := newMonitor(c, Options{})

	snap, err := m.CollectNow(context.Background())

	require.NoError(t, err)
	for _, opp := range snap.Opportunities {
		assert.Equal(t, domain.ConfidenceMedium, opp.Confidence)
	}
}

func TestStart_RunsImmediatelyAndRejectsSecondStart(t *testing.T) {
	c := &fakeCollector{quotes: []domain.Quote{{Source: "x", AssetPair: "ETH/USDT", Price: 1, ObservedAt: time.Now()}}}
	m := newMonitor(c, Options{})

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.ErrorIs(t, m.Start(context.Background()), domain.ErrMonitorRunning)
	assert.True(t, m.Running())

	require.Eventually(t, func() bool { return m.Latest() != nil }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return c.callCount() >= 2 }, time.Second, 5*time.Millisecond,
		"periodic ticks keep cycling")
}

func TestStop_WhenNotRunning(t *testing.T) {
	m := newMonitor(&fakeCollector{}, Options{})
	assert.ErrorIs(t, m.Stop(), domain.ErrMonitorStopped)
}

func TestStop_DiscardsInFlightCycle(t *testing.T) {
	c := &fakeCollector{block: true}
	m := newMonitor(c, Options{})

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool { return c.callCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.False(t, m.Running())

	// The blocked cycle unblocks on cancellation; its result must never be
	// published.
	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, m.Latest())
}

func TestStartStopStartCycle(t *testing.T) {
	c := &fakeCollector{quotes: []domain.Quote{{Source: "x", AssetPair: "ETH/USDT", Price: 1, ObservedAt: time.Now()}}}
	m := newMonitor(c, Options{})

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()
	assert.True(t, m.Running())
}

func TestPublish_BusCacheAndFreshRouteTracking(t *testing.T) {
	c := &fakeCollector{quotes: []domain.Quote{{Source: "x", AssetPair: "ETH/USDT", Price: 1, ObservedAt: time.Now()}}}
	bus := &recordingBus{}
	cache := &recordingCache{}
	m := newMonitor(c, Options{Bus: bus, Cache: cache})

	_, err := m.CollectNow(context.Background())
	require.NoError(t, err)

	require.Len(t, bus.payloads, 2, "both routes are new on the first cycle")
	assert.Equal(t, "arb_detected", bus.channels[0])

	var published domain.Opportunity
	require.NoError(t, json.Unmarshal(bus.payloads[0], &published))
	assert.Equal(t, "BTC", published.Asset, "published in ranked order")

	payload, err := cache.GetLatest(context.Background())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(payload, &snap))
	assert.Len(t, snap.Opportunities, 2)

	// The identical second cycle re-caches the snapshot but emits no
	// duplicate route signals.
	_, err = m.CollectNow(context.Background())
	require.NoError(t, err)
	assert.Len(t, bus.payloads, 2)
}

func TestCollectNow_EmptyQuoteSetYieldsEmptySnapshot(t *testing.T) {
	m := newMonitor(&fakeCollector{}, Options{})

	snap, err := m.CollectNow(context.Background())

	require.NoError(t, err)
	assert.Empty(t, snap.Opportunities)
	assert.Zero(t, snap.Stats.Candidates)
}
