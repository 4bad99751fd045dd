package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBWATCH_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets and per-deploy tunables without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Top-level ──
	setStringSlice(&cfg.Watchlist, "ARBWATCH_WATCHLIST")
	setStr(&cfg.LogLevel, "ARBWATCH_LOG_LEVEL")

	// ── Trade / monitor ──
	setFloat64(&cfg.Trade.AmountUSD, "ARBWATCH_TRADE_AMOUNT_USD")
	setDuration(&cfg.Monitor.Interval, "ARBWATCH_MONITOR_INTERVAL")

	// ── Aggregator ──
	setInt(&cfg.Aggregator.BatchSize, "ARBWATCH_AGGREGATOR_BATCH_SIZE")
	setDuration(&cfg.Aggregator.BatchDelay, "ARBWATCH_AGGREGATOR_BATCH_DELAY")
	setDuration(&cfg.Aggregator.AdapterTimeout, "ARBWATCH_AGGREGATOR_ADAPTER_TIMEOUT")
	setFloat64(&cfg.Aggregator.MinLiquidityUSD, "ARBWATCH_AGGREGATOR_MIN_LIQUIDITY_USD")
	setInt(&cfg.Aggregator.MaxPairsPerAsset, "ARBWATCH_AGGREGATOR_MAX_PAIRS_PER_ASSET")

	// ── Cost model ──
	setFloat64(&cfg.Cost.GasPriceGwei, "ARBWATCH_COST_GAS_PRICE_GWEI")
	setFloat64(&cfg.Cost.GasLimit, "ARBWATCH_COST_GAS_LIMIT")
	setFloat64(&cfg.Cost.EthPriceUSD, "ARBWATCH_COST_ETH_PRICE_USD")

	// ── Filter ──
	setBool(&cfg.Filter.Enabled, "ARBWATCH_FILTER_ENABLED")
	setStringSlice(&cfg.Filter.Blacklist, "ARBWATCH_FILTER_BLACKLIST")
	setFloat64(&cfg.Filter.PegTolerancePct, "ARBWATCH_FILTER_PEG_TOLERANCE_PCT")
	setFloat64(&cfg.Filter.AcceptScore, "ARBWATCH_FILTER_ACCEPT_SCORE")
	setFloat64(&cfg.Filter.CautionScore, "ARBWATCH_FILTER_CAUTION_SCORE")

	// ── Venues ──
	setBool(&cfg.Venues.CoinGecko.Enabled, "ARBWATCH_VENUES_COINGECKO_ENABLED")
	setStr(&cfg.Venues.CoinGecko.BaseURL, "ARBWATCH_VENUES_COINGECKO_BASE_URL")
	setBool(&cfg.Venues.DexScreener.Enabled, "ARBWATCH_VENUES_DEXSCREENER_ENABLED")
	setStr(&cfg.Venues.DexScreener.BaseURL, "ARBWATCH_VENUES_DEXSCREENER_BASE_URL")
	setFloat64(&cfg.Venues.DexScreener.RequestsPerSec, "ARBWATCH_VENUES_DEXSCREENER_REQUESTS_PER_SEC")
	setBool(&cfg.Venues.Binance.Enabled, "ARBWATCH_VENUES_BINANCE_ENABLED")
	setStr(&cfg.Venues.Binance.WsURL, "ARBWATCH_VENUES_BINANCE_WS_URL")
	setDuration(&cfg.Venues.Binance.MaxQuoteAge, "ARBWATCH_VENUES_BINANCE_MAX_QUOTE_AGE")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ARBWATCH_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARBWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBWATCH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBWATCH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBWATCH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBWATCH_REDIS_TLS_ENABLED")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARBWATCH_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBWATCH_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBWATCH_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBWATCH_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBWATCH_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBWATCH_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBWATCH_NOTIFY_EVENTS")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
