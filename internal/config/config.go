// Package config defines the top-level configuration for the arbitrage
// monitor and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBWATCH_* environment
// variables. Every tunable of the pipeline lives here; there is no other
// source of policy.
type Config struct {
	// Watchlist is the set of asset symbols collected each cycle.
	Watchlist []string `toml:"watchlist"`
	LogLevel  string   `toml:"log_level"`

	Trade      TradeConfig            `toml:"trade"`
	Monitor    MonitorConfig          `toml:"monitor"`
	Aggregator AggregatorConfig       `toml:"aggregator"`
	Cost       CostConfig             `toml:"cost"`
	Scoring    ScoringConfig          `toml:"scoring"`
	Filter     FilterConfig           `toml:"filter"`
	Classes    map[string]ClassConfig `toml:"classes"`
	Venues     VenuesConfig           `toml:"venues"`
	Redis      RedisConfig            `toml:"redis"`
	Server     ServerConfig           `toml:"server"`
	Notify     NotifyConfig           `toml:"notify"`
}

// TradeConfig holds the assumed trade sizing used by the profitability model.
type TradeConfig struct {
	// AmountUSD is the notional used to turn a profit percentage into a
	// dollar figure. No order of this size is ever placed.
	AmountUSD float64 `toml:"amount_usd"`
}

// MonitorConfig holds the periodic collection cycle parameters.
type MonitorConfig struct {
	Interval duration `toml:"interval"`
}

// AggregatorConfig holds quote collection parameters.
type AggregatorConfig struct {
	// BatchSize bounds how many per-asset requests a multi-request venue
	// adapter runs concurrently within one batch.
	BatchSize int `toml:"batch_size"`
	// BatchDelay is the pause between consecutive request batches at such
	// a venue.
	BatchDelay duration `toml:"batch_delay"`
	// AdapterTimeout bounds one adapter's whole contribution to a cycle.
	AdapterTimeout duration `toml:"adapter_timeout"`
	// MinLiquidityUSD rejects pairs quoting less 24h liquidity than this.
	MinLiquidityUSD float64 `toml:"min_liquidity_usd"`
	// MaxPairsPerAsset caps how many pairs one venue may contribute per
	// asset; the highest-liquidity pairs win.
	MaxPairsPerAsset int `toml:"max_pairs_per_asset"`
}

// CostConfig holds the flat execution-cost model. These are deliberately
// coarse assumptions, not live telemetry.
type CostConfig struct {
	GasPriceGwei float64 `toml:"gas_price_gwei"`
	GasLimit     float64 `toml:"gas_limit"`
	EthPriceUSD  float64 `toml:"eth_price_usd"`
}

// EstimatedCostUSD returns the flat per-trade execution cost in USD.
func (c CostConfig) EstimatedCostUSD() float64 {
	return c.GasPriceGwei * 1e-9 * c.GasLimit * c.EthPriceUSD
}

// ScoringConfig holds the confidence scorer's point bands and cut points.
type ScoringConfig struct {
	// Profit bands, in gross percent: meeting a band earns its points
	// (3 for strong, 2 for solid, 1 for thin, 0 otherwise).
	StrongProfitPct float64 `toml:"strong_profit_pct"`
	SolidProfitPct  float64 `toml:"solid_profit_pct"`
	ThinProfitPct   float64 `toml:"thin_profit_pct"`
	// Volume bands, in USD of 24h volume required on both sides.
	HighVolumeUSD float64 `toml:"high_volume_usd"`
	MidVolumeUSD  float64 `toml:"mid_volume_usd"`
	// ReputableVenues earn the reputation point when both sides match.
	ReputableVenues []string `toml:"reputable_venues"`
	// Cut points on the additive point scale.
	HighPoints   int `toml:"high_points"`
	MediumPoints int `toml:"medium_points"`
}

// FilterConfig holds the anomaly filter's tunables.
type FilterConfig struct {
	// Enabled toggles the whole filter stage. When false, candidates are
	// published with their scorer-assigned confidence.
	Enabled bool `toml:"enabled"`
	// Blacklist names venues whose quotes are never trusted.
	Blacklist []string `toml:"blacklist"`
	// PegTolerancePct bounds how far a stablecoin price may sit from 1.00.
	PegTolerancePct float64 `toml:"peg_tolerance_pct"`
	// AcceptScore and CautionScore are the 0-100 recommendation cut points.
	AcceptScore  float64 `toml:"accept_score"`
	CautionScore float64 `toml:"caution_score"`
	// Reputation maps venue name to a 0-15 reliability score; venues not
	// listed score UnknownReputation.
	Reputation        map[string]float64 `toml:"reputation"`
	UnknownReputation float64            `toml:"unknown_reputation"`
}

// ClassConfig holds one asset class's thresholds. The "default" entry is
// the fallback for unclassified assets.
type ClassConfig struct {
	MinProfitPct float64 `toml:"min_profit_pct"`
	MaxProfitPct float64 `toml:"max_profit_pct"`
	ScoreBonus   float64 `toml:"score_bonus"`
}

// VenuesConfig enables and points the built-in source adapters.
type VenuesConfig struct {
	CoinGecko   CoinGeckoConfig   `toml:"coingecko"`
	DexScreener DexScreenerConfig `toml:"dexscreener"`
	Binance     BinanceConfig     `toml:"binance"`
}

// CoinGeckoConfig holds the CoinGecko REST adapter parameters.
type CoinGeckoConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// DexScreenerConfig holds the DexScreener REST adapter parameters.
type DexScreenerConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	// RequestsPerSec paces the per-asset fan-out inside a batch.
	RequestsPerSec float64 `toml:"requests_per_sec"`
}

// BinanceConfig holds the Binance websocket feed parameters.
type BinanceConfig struct {
	Enabled bool   `toml:"enabled"`
	WsURL   string `toml:"ws_url"`
	// MaxQuoteAge drops feed quotes older than this at snapshot time.
	MaxQuoteAge duration `toml:"max_quote_age"`
}

// RedisConfig holds Redis connection parameters. Redis is optional: when
// disabled the snapshot is only reachable through the in-process accessor.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "60s", "5m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "60s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the built-in policy numbers.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Watchlist: []string{
			"BTC", "ETH", "SOL", "BNB", "AVAX",
			"MATIC", "ARB", "OP",
			"UNI", "AAVE", "CRV",
			"LINK", "GRT",
			"USDT", "USDC", "DAI",
		},
		LogLevel: "info",
		Trade: TradeConfig{
			AmountUSD: 10_000,
		},
		Monitor: MonitorConfig{
			Interval: duration{60 * time.Second},
		},
		Aggregator: AggregatorConfig{
			BatchSize:        5,
			BatchDelay:       duration{time.Second},
			AdapterTimeout:   duration{15 * time.Second},
			MinLiquidityUSD:  10_000,
			MaxPairsPerAsset: 3,
		},
		Cost: CostConfig{
			GasPriceGwei: 20,
			GasLimit:     200_000,
			EthPriceUSD:  2_500,
		},
		Scoring: ScoringConfig{
			StrongProfitPct: 2.0,
			SolidProfitPct:  1.0,
			ThinProfitPct:   0.5,
			HighVolumeUSD:   100_000,
			MidVolumeUSD:    10_000,
			ReputableVenues: []string{"binance", "coinbase", "kraken", "okx", "coingecko", "uniswap"},
			HighPoints:      4,
			MediumPoints:    2,
		},
		Filter: FilterConfig{
			Enabled:         true,
			Blacklist:       []string{"hotbit", "bitforex", "yobit", "fcoin"},
			PegTolerancePct: 5.0,
			AcceptScore:     70,
			CautionScore:    40,
			Reputation: map[string]float64{
				"binance":     15,
				"coinbase":    15,
				"kraken":      14,
				"okx":         12,
				"bybit":       12,
				"uniswap":     12,
				"coingecko":   12,
				"kucoin":      10,
				"gate":        10,
				"sushiswap":   9,
				"pancakeswap": 9,
			},
			UnknownReputation: 5,
		},
		Classes: map[string]ClassConfig{
			"stablecoin":     {MinProfitPct: 0.1, MaxProfitPct: 5, ScoreBonus: 20},
			"major":          {MinProfitPct: 0.5, MaxProfitPct: 25, ScoreBonus: 15},
			"defi":           {MinProfitPct: 1.0, MaxProfitPct: 50, ScoreBonus: 10},
			"layer1":         {MinProfitPct: 1.5, MaxProfitPct: 100, ScoreBonus: 8},
			"layer2":         {MinProfitPct: 2.0, MaxProfitPct: 100, ScoreBonus: 8},
			"infrastructure": {MinProfitPct: 3.0, MaxProfitPct: 150, ScoreBonus: 5},
			"altcoin":        {MinProfitPct: 5.0, MaxProfitPct: 50, ScoreBonus: 0},
			"default":        {MinProfitPct: 5.0, MaxProfitPct: 50, ScoreBonus: 0},
		},
		Venues: VenuesConfig{
			CoinGecko: CoinGeckoConfig{
				Enabled: true,
				BaseURL: "https://api.coingecko.com/api/v3",
			},
			DexScreener: DexScreenerConfig{
				Enabled:        true,
				BaseURL:        "https://api.dexscreener.com/latest/dex",
				RequestsPerSec: 4,
			},
			Binance: BinanceConfig{
				Enabled:     false,
				WsURL:       "wss://stream.binance.com:9443/ws",
				MaxQuoteAge: duration{2 * time.Minute},
			},
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"arb_detected", "monitor_started", "monitor_stopped"},
		},
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if len(c.Watchlist) == 0 {
		errs = append(errs, "watchlist must not be empty")
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Trade.AmountUSD <= 0 {
		errs = append(errs, "trade: amount_usd must be > 0")
	}

	if c.Monitor.Interval.Duration <= 0 {
		errs = append(errs, "monitor: interval must be > 0")
	}

	if c.Aggregator.BatchSize < 1 {
		errs = append(errs, "aggregator: batch_size must be >= 1")
	}
	if c.Aggregator.BatchDelay.Duration < 0 {
		errs = append(errs, "aggregator: batch_delay must not be negative")
	}
	if c.Aggregator.AdapterTimeout.Duration <= 0 {
		errs = append(errs, "aggregator: adapter_timeout must be > 0")
	}
	if c.Aggregator.MinLiquidityUSD < 0 {
		errs = append(errs, "aggregator: min_liquidity_usd must not be negative")
	}
	if c.Aggregator.MaxPairsPerAsset < 1 {
		errs = append(errs, "aggregator: max_pairs_per_asset must be >= 1")
	}

	if c.Cost.GasPriceGwei < 0 || c.Cost.GasLimit < 0 || c.Cost.EthPriceUSD < 0 {
		errs = append(errs, "cost: gas_price_gwei, gas_limit, and eth_price_usd must not be negative")
	}

	if c.Scoring.HighPoints <= c.Scoring.MediumPoints {
		errs = append(errs, "scoring: high_points must exceed medium_points")
	}
	if c.Scoring.StrongProfitPct < c.Scoring.SolidProfitPct || c.Scoring.SolidProfitPct < c.Scoring.ThinProfitPct {
		errs = append(errs, "scoring: profit bands must be ordered strong >= solid >= thin")
	}
	if c.Scoring.HighVolumeUSD < c.Scoring.MidVolumeUSD {
		errs = append(errs, "scoring: high_volume_usd must be >= mid_volume_usd")
	}

	if c.Filter.PegTolerancePct <= 0 {
		errs = append(errs, "filter: peg_tolerance_pct must be > 0")
	}
	if c.Filter.AcceptScore <= c.Filter.CautionScore {
		errs = append(errs, "filter: accept_score must exceed caution_score")
	}

	for name, cls := range c.Classes {
		if cls.MinProfitPct < 0 {
			errs = append(errs, fmt.Sprintf("classes.%s: min_profit_pct must not be negative", name))
		}
		if cls.MaxProfitPct <= cls.MinProfitPct {
			errs = append(errs, fmt.Sprintf("classes.%s: max_profit_pct must exceed min_profit_pct", name))
		}
	}
	if _, ok := c.Classes["default"]; !ok {
		errs = append(errs, "classes: a \"default\" entry is required for unclassified assets")
	}

	if c.Venues.CoinGecko.Enabled && c.Venues.CoinGecko.BaseURL == "" {
		errs = append(errs, "venues.coingecko: base_url must not be empty when enabled")
	}
	if c.Venues.DexScreener.Enabled {
		if c.Venues.DexScreener.BaseURL == "" {
			errs = append(errs, "venues.dexscreener: base_url must not be empty when enabled")
		}
		if c.Venues.DexScreener.RequestsPerSec <= 0 {
			errs = append(errs, "venues.dexscreener: requests_per_sec must be > 0 when enabled")
		}
	}
	if c.Venues.Binance.Enabled && c.Venues.Binance.WsURL == "" {
		errs = append(errs, "venues.binance: ws_url must not be empty when enabled")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ProfileTable builds the domain profile table from the configured class
// policies and the built-in symbol table.
func (c *Config) ProfileTable() *domain.ProfileTable {
	policies := make(map[domain.AssetClass]domain.ClassPolicy, len(c.Classes))
	fallback := domain.ClassPolicy{MinProfitPct: 5, MaxProfitPct: 50}
	for name, cls := range c.Classes {
		pol := domain.ClassPolicy{
			MinProfitPct: cls.MinProfitPct,
			MaxProfitPct: cls.MaxProfitPct,
			ScoreBonus:   cls.ScoreBonus,
		}
		if name == "default" {
			fallback = pol
			continue
		}
		policies[domain.AssetClass(name)] = pol
	}
	return domain.NewProfileTable(domain.DefaultProfiles(), policies, fallback)
}
