package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

func TestQuoteFields_RoundTrip(t *testing.T) {
	observed := time.Date(2026, 8, 24, 12, 30, 15, 123_456_789, time.UTC)
	in := domain.Quote{
		Source:     "uniswap",
		AssetPair:  "ETH/USDC",
		Price:      3001.57,
		Volume24h:  1_200_000.25,
		ObservedAt: observed,
	}

	fields := encodeQuote(in)
	assert.Equal(t, "ETH/USDC", fields["pair"])
	assert.Equal(t, "3001.57", fields["price"])

	out, err := decodeQuote("uniswap", quoteKey("uniswap", "ETH"), fields)
	require.NoError(t, err)

	assert.Equal(t, in.Source, out.Source)
	assert.Equal(t, in.AssetPair, out.AssetPair)
	assert.Equal(t, in.Price, out.Price)
	assert.Equal(t, in.Volume24h, out.Volume24h)
	assert.True(t, out.ObservedAt.Equal(observed), "timestamp survives at nanosecond precision")
	assert.True(t, out.Valid())
}

func TestQuoteFields_TinyPriceSurvivesWithoutExponent(t *testing.T) {
	in := domain.Quote{
		Source:     "uniswap",
		AssetPair:  "SHIB/WETH",
		Price:      0.0000123,
		Volume24h:  50_000,
		ObservedAt: time.Now(),
	}

	out, err := decodeQuote("uniswap", "k", encodeQuote(in))
	require.NoError(t, err)
	assert.Equal(t, in.Price, out.Price)
}

func TestDecodeQuote_RejectsCorruptFields(t *testing.T) {
	good := encodeQuote(domain.Quote{
		Source: "binance", AssetPair: "ETH/USDT", Price: 3000, Volume24h: 1, ObservedAt: time.Now(),
	})

	for _, field := range []string{"price", "volume", "ts"} {
		bad := map[string]string{}
		for k, v := range good {
			bad[k] = v
		}
		bad[field] = "garbage"

		_, err := decodeQuote("binance", "k", bad)
		require.Error(t, err, field)
		assert.Contains(t, err.Error(), field)
	}
}

func TestQuoteKey_NormalizesAsset(t *testing.T) {
	assert.Equal(t, "arbwatch:quote:binance:ETH", quoteKey("binance", " eth "))
}
