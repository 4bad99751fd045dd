// Package domain holds the pure data types and interfaces shared by the
// arbitrage pipeline: quotes, opportunities, asset classification, and the
// boundaries to venues, caches, and the signal bus.
package domain

import (
	"math"
	"strings"
	"time"
)

// Quote is one observed price for one asset at one venue at one instant.
// Quotes are created fresh each collection cycle and never mutated.
type Quote struct {
	Source     string    `json:"source"`
	AssetPair  string    `json:"asset_pair"` // e.g. "ETH/USD"
	Price      float64   `json:"price"`      // USD
	Volume24h  float64   `json:"volume_24h"` // USD
	ObservedAt time.Time `json:"observed_at"`
}

// BaseAsset returns the normalized base-asset component of the pair
// ("ETH/USD" -> "ETH"). A pair without a separator is treated as a bare
// symbol.
func (q Quote) BaseAsset() string {
	base, _, _ := strings.Cut(q.AssetPair, "/")
	return NormalizeAsset(base)
}

// Valid reports whether the quote may enter the pipeline: the price must be
// a finite, strictly positive number and the volume non-negative.
func (q Quote) Valid() bool {
	if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) || q.Price <= 0 {
		return false
	}
	return q.Volume24h >= 0
}

// NormalizeAsset upper-cases and trims an asset symbol so lookups and
// grouping are case-insensitive.
func NormalizeAsset(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
