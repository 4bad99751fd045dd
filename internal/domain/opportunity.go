package domain

import "time"

// Confidence is the coarse quality tier assigned by the scorer and
// potentially overridden by the anomaly filter.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Opportunity is a cross-venue price gap derived from exactly two quotes:
// the cheapest and the most expensive quote for an asset within one cycle.
// Opportunities are recomputed wholesale every cycle and never persisted.
type Opportunity struct {
	ID              string     `json:"id"`
	Asset           string     `json:"asset"` // normalized upper-case symbol
	BuySource       string     `json:"buy_source"`
	SellSource      string     `json:"sell_source"`
	BuyPrice        float64    `json:"buy_price"`
	SellPrice       float64    `json:"sell_price"`
	PriceDifference float64    `json:"price_difference"`
	GrossProfitPct  float64    `json:"gross_profit_pct"`
	EstimatedCost   float64    `json:"estimated_cost"` // flat USD estimate
	NetProfit       float64    `json:"net_profit"`     // USD for the configured trade size
	BuyVolume24h    float64    `json:"buy_volume_24h"`
	SellVolume24h   float64    `json:"sell_volume_24h"`
	Confidence      Confidence `json:"confidence"`
	ObservedAt      time.Time  `json:"observed_at"`
}

// Recommendation is the anomaly filter's verdict for a candidate.
type Recommendation string

const (
	RecommendationAccept  Recommendation = "accept"
	RecommendationCaution Recommendation = "caution"
	RecommendationReject  Recommendation = "reject"
)

// ValidationResult is the outcome of re-validating one candidate. It is a
// first-class value, not an error: rejected candidates always carry the
// reason for the first failing check.
type ValidationResult struct {
	Valid          bool           `json:"valid"`
	Reason         string         `json:"reason"`
	Score          float64        `json:"score"` // 0-100
	Recommendation Recommendation `json:"recommendation"`
}
