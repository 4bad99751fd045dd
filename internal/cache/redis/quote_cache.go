package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// quoteTTL bounds how long a raw quote stays inspectable after the feed
// that produced it goes quiet.
const quoteTTL = 15 * time.Minute

// QuoteCache implements domain.QuoteCache using one Redis hash per
// (venue, asset) with fields "pair", "price", "volume", and "ts" (Unix
// nanoseconds).
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.rdb}
}

func quoteKey(source, asset string) string {
	return "arbwatch:quote:" + source + ":" + domain.NormalizeAsset(asset)
}

// encodeQuote renders a quote as the hash field set stored in Redis.
func encodeQuote(q domain.Quote) map[string]string {
	return map[string]string{
		"pair":   q.AssetPair,
		"price":  strconv.FormatFloat(q.Price, 'f', -1, 64),
		"volume": strconv.FormatFloat(q.Volume24h, 'f', -1, 64),
		"ts":     strconv.FormatInt(q.ObservedAt.UnixNano(), 10),
	}
}

// decodeQuote rebuilds a quote from its hash fields. source is the venue
// the key was read under; key only labels parse errors.
func decodeQuote(source, key string, vals map[string]string) (domain.Quote, error) {
	price, err := strconv.ParseFloat(vals["price"], 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse quote price %s: %w", key, err)
	}
	volume, err := strconv.ParseFloat(vals["volume"], 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse quote volume %s: %w", key, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse quote ts %s: %w", key, err)
	}

	return domain.Quote{
		Source:     source,
		AssetPair:  vals["pair"],
		Price:      price,
		Volume24h:  volume,
		ObservedAt: time.Unix(0, tsNano),
	}, nil
}

// SetQuote stores the latest quote for the venue and base asset.
func (qc *QuoteCache) SetQuote(ctx context.Context, q domain.Quote) error {
	key := quoteKey(q.Source, q.BaseAsset())
	pipe := qc.rdb.Pipeline()
	pipe.HSet(ctx, key, encodeQuote(q))
	pipe.Expire(ctx, key, quoteTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", key, err)
	}
	return nil
}

// GetQuote retrieves the latest quote for the venue and base asset. It
// returns domain.ErrNotFound when no quote is stored.
func (qc *QuoteCache) GetQuote(ctx context.Context, source, asset string) (domain.Quote, error) {
	key := quoteKey(source, asset)
	vals, err := qc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s: %w", key, err)
	}
	if len(vals) == 0 {
		return domain.Quote{}, domain.ErrNotFound
	}
	return decodeQuote(source, key, vals)
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
