package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *ProfileTable {
	return NewProfileTable(
		DefaultProfiles(),
		map[AssetClass]ClassPolicy{
			ClassStablecoin: {MinProfitPct: 0.1, MaxProfitPct: 5, ScoreBonus: 20},
			ClassMajor:      {MinProfitPct: 0.5, MaxProfitPct: 25, ScoreBonus: 15},
		},
		ClassPolicy{MinProfitPct: 5, MaxProfitPct: 50, ScoreBonus: 0},
	)
}

func TestProfileTable_LookupCaseInsensitive(t *testing.T) {
	table := testTable()

	for _, sym := range []string{"eth", "ETH", " Eth "} {
		p, ok := table.Lookup(sym)
		require.True(t, ok, "symbol %q", sym)
		assert.Equal(t, "ETH", p.Symbol)
		assert.Equal(t, ClassMajor, p.Class)
	}
}

func TestProfileTable_UnknownSymbolFallsBack(t *testing.T) {
	table := testTable()

	p, ok := table.Lookup("NOTACOIN")
	assert.False(t, ok)
	assert.Equal(t, ClassUnknown, p.Class)
	assert.Zero(t, p.MinPrice)
	assert.Zero(t, p.MaxPrice)

	pol := table.Policy(p.Class)
	assert.Equal(t, 5.0, pol.MinProfitPct)
	assert.Equal(t, 50.0, pol.MaxProfitPct)
}

func TestQuote_Valid(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		vol   float64
		want  bool
	}{
		{"positive price", 3000, 100, true},
		{"zero price", 0, 100, false},
		{"negative price", -1, 100, false},
		{"nan price", math.NaN(), 100, false},
		{"inf price", math.Inf(1), 100, false},
		{"negative volume", 3000, -1, false},
		{"zero volume", 3000, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Quote{Source: "x", AssetPair: "ETH/USD", Price: tt.price, Volume24h: tt.vol}
			assert.Equal(t, tt.want, q.Valid())
		})
	}
}

func TestQuote_BaseAsset(t *testing.T) {
	assert.Equal(t, "ETH", Quote{AssetPair: "eth/usd"}.BaseAsset())
	assert.Equal(t, "BTC", Quote{AssetPair: "BTC"}.BaseAsset())
}
