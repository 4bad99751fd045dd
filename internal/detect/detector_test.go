package detect

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

func testProfiles() *domain.ProfileTable {
	return domain.NewProfileTable(
		domain.DefaultProfiles(),
		map[domain.AssetClass]domain.ClassPolicy{
			domain.ClassStablecoin: {MinProfitPct: 0.1, MaxProfitPct: 5, ScoreBonus: 20},
			domain.ClassMajor:      {MinProfitPct: 0.5, MaxProfitPct: 25, ScoreBonus: 15},
		},
		domain.ClassPolicy{MinProfitPct: 5, MaxProfitPct: 50},
	)
}

func newDetector(t *testing.T, cfg Config) *Detector {
	t.Helper()
	return New(testProfiles(), cfg, slog.Default())
}

func quote(source, pair string, price, vol float64) domain.Quote {
	return domain.Quote{
		Source:     source,
		AssetPair:  pair,
		Price:      price,
		Volume24h:  vol,
		ObservedAt: time.Now().UTC(),
	}
}

func TestDetect_CrossVenueSpread(t *testing.T) {
	d := newDetector(t, Config{TradeAmountUSD: 10_000, EstimatedCostUSD: 10})

	opps := d.Detect([]domain.Quote{
		quote("venuea", "ETH/USD", 3000, 200_000),
		quote("venueb", "ETH/USD", 3060, 200_000),
	})

	require.Len(t, opps, 1)
	opp := opps[0]
	assert.Equal(t, "ETH", opp.Asset)
	assert.Equal(t, "venuea", opp.BuySource)
	assert.Equal(t, "venueb", opp.SellSource)
	assert.InDelta(t, 2.0, opp.GrossProfitPct, 1e-9)
	assert.InDelta(t, 60.0, opp.PriceDifference, 1e-9)
	assert.InDelta(t, 10_000*0.02-10, opp.NetProfit, 1e-9)
	assert.NotEmpty(t, opp.ID)
}

func TestDetect_SingleSourceProducesNothing(t *testing.T) {
	d := newDetector(t, Config{TradeAmountUSD: 10_000, EstimatedCostUSD: 10})

	opps := d.Detect([]domain.Quote{
		quote("venuea", "ETH/USD", 3000, 200_000),
		quote("venuea", "ETH/USD", 3100, 200_000),
		quote("venuea", "ETH/USD", 3200, 200_000),
	})

	assert.Empty(t, opps)
}

func TestDetect_SellSkipsBuyVenue(t *testing.T) {
	d := newDetector(t, Config{TradeAmountUSD: 10_000, EstimatedCostUSD: 1})

	// Cheapest and most expensive quotes share a venue; the sell side must
	// fall back to the best price from a different venue.
	opps := d.Detect([]domain.Quote{
		quote("venuex", "ETH/USD", 3000, 50_000),
		quote("venuey", "ETH/USD", 3090, 50_000),
		quote("venuex", "ETH/USD", 3200, 50_000),
	})

	require.Len(t, opps, 1)
	assert.Equal(t, "venuex", opps[0].BuySource)
	assert.Equal(t, "venuey", opps[0].SellSource)
	assert.InDelta(t, 3.0, opps[0].GrossProfitPct, 1e-9)
}

func TestDetect_MinimumProfitGate(t *testing.T) {
	d := newDetector(t, Config{TradeAmountUSD: 10_000, EstimatedCostUSD: 0.01})

	// ETH is a major: 0.5% minimum. 0.2% spread must not produce a candidate.
	opps := d.Detect([]domain.Quote{
		quote("venuea", "ETH/USD", 3000, 200_000),
		quote("venueb", "ETH/USD", 3006, 200_000),
	})
	assert.Empty(t, opps)

	// The same 0.2% spread on a stablecoin (0.1% minimum) does qualify.
	opps = d.Detect([]domain.Quote{
		quote("venuea", "USDC/USD", 1.000, 200_000),
		quote("venueb", "USDC/USD", 1.002, 200_000),
	})
	assert.Len(t, opps, 1)
}

func TestDetect_NetProfitGate(t *testing.T) {
	// Cost exceeds the dollar edge: 2% of 100 USD is 2 USD < 10 USD cost.
	d := newDetector(t, Config{TradeAmountUSD: 100, EstimatedCostUSD: 10})

	opps := d.Detect([]domain.Quote{
		quote("venuea", "ETH/USD", 3000, 200_000),
		quote("venueb", "ETH/USD", 3060, 200_000),
	})

	assert.Empty(t, opps)
}

func TestDetect_InvalidQuotesDiscarded(t *testing.T) {
	d := newDetector(t, Config{TradeAmountUSD: 10_000, EstimatedCostUSD: 10})

	opps := d.Detect([]domain.Quote{
		quote("venuea", "ETH/USD", 0, 200_000),  // zero price
		quote("venueb", "ETH/USD", -5, 200_000), // negative price
		quote("venuec", "ETH/USD", 3060, 200_000),
	})

	// Only one usable quote remains, so no opportunity.
	assert.Empty(t, opps)
}

func TestDetect_EmptyInput(t *testing.T) {
	d := newDetector(t, Config{TradeAmountUSD: 10_000, EstimatedCostUSD: 10})
	assert.Empty(t, d.Detect(nil))
}

func TestDetect_OnePerAssetDeterministicOrder(t *testing.T) {
	d := newDetector(t, Config{TradeAmountUSD: 10_000, EstimatedCostUSD: 1})

	quotes := []domain.Quote{
		quote("venuea", "ETH/USD", 3000, 100_000),
		quote("venueb", "ETH/USD", 3060, 100_000),
		quote("venuea", "BTC/USD", 60_000, 100_000),
		quote("venueb", "BTC/USD", 61_000, 100_000),
	}

	first := d.Detect(quotes)
	second := d.Detect(quotes)
	require.Len(t, first, 2)
	assert.Equal(t, "BTC", first[0].Asset)
	assert.Equal(t, "ETH", first[1].Asset)
	assert.Equal(t, first[0].Asset, second[0].Asset)
	assert.Equal(t, first[1].Asset, second[1].Asset)
}
