// Package aggregate collects quotes from every configured source adapter
// within one cycle's time budget. Adapter failures are isolated: a venue
// that errors, times out, or trips its breaker contributes zero quotes and
// the cycle carries on.
package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Config holds collection parameters. Request batching lives inside the
// adapters that fan out per asset; the aggregator itself runs every adapter
// concurrently.
type Config struct {
	// AdapterTimeout bounds a single adapter's contribution to the cycle.
	AdapterTimeout time.Duration
	// MinLiquidityUSD drops pairs quoting less 24h volume than this.
	MinLiquidityUSD float64
	// MaxPairsPerAsset caps pairs kept per asset per venue, highest
	// liquidity first.
	MaxPairsPerAsset int
}

// Aggregator fans out to source adapters and merges their quotes.
type Aggregator struct {
	adapters []domain.SourceAdapter
	breakers map[string]*gobreaker.CircuitBreaker
	quotes   domain.QuoteCache // optional mirror, may be nil
	cfg      Config
	logger   *slog.Logger
}

// New creates an Aggregator over the given adapters. quotes may be nil, in
// which case raw quotes are not mirrored anywhere.
func New(adapters []domain.SourceAdapter, quotes domain.QuoteCache, cfg Config, logger *slog.Logger) *Aggregator {
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(adapters))
	for _, a := range adapters {
		st := gobreaker.Settings{Name: a.Name()}
		st.Interval = 60 * time.Second
		st.Timeout = 60 * time.Second
		st.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		}
		breakers[a.Name()] = gobreaker.NewCircuitBreaker(st)
	}
	return &Aggregator{
		adapters: adapters,
		breakers: breakers,
		quotes:   quotes,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "aggregator")),
	}
}

// Collect fetches quotes for the given assets from every adapter
// concurrently. It never returns an error: total collection failure yields
// an empty set and downstream stages produce zero opportunities from it.
func (a *Aggregator) Collect(ctx context.Context, assets []string) []domain.Quote {
	var (
		mu     sync.Mutex
		merged []domain.Quote
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, adapter := range a.adapters {
		adapter := adapter
		g.Go(func() error {
			quotes := a.fetchOne(gctx, adapter, assets)
			if len(quotes) == 0 {
				return nil
			}
			mu.Lock()
			merged = append(merged, quotes...)
			mu.Unlock()
			return nil
		})
	}
	// Goroutines only ever return nil; failures are logged in place.
	_ = g.Wait()

	return a.finish(ctx, merged)
}

// fetchOne runs a single adapter behind its circuit breaker and timeout.
// Any failure is swallowed after logging.
func (a *Aggregator) fetchOne(ctx context.Context, adapter domain.SourceAdapter, assets []string) []domain.Quote {
	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.AdapterTimeout)
	defer cancel()

	result, err := a.breakers[adapter.Name()].Execute(func() (any, error) {
		return adapter.Fetch(fetchCtx, assets)
	})
	if err != nil {
		a.logger.Warn("source adapter failed",
			slog.String("source", adapter.Name()),
			slog.String("error", err.Error()),
		)
		return nil
	}

	quotes, _ := result.([]domain.Quote)
	valid := quotes[:0:0]
	for _, q := range quotes {
		if !q.Valid() {
			a.logger.Debug("discarding invalid quote at ingestion",
				slog.String("source", q.Source),
				slog.String("pair", q.AssetPair),
				slog.Float64("price", q.Price),
			)
			continue
		}
		valid = append(valid, q)
	}
	a.logger.Debug("source adapter done",
		slog.String("source", adapter.Name()),
		slog.Int("quotes", len(valid)),
	)
	return valid
}

// finish applies per-venue liquidity filtering and the per-asset pair cap,
// then mirrors the surviving quotes into the optional quote cache.
func (a *Aggregator) finish(ctx context.Context, merged []domain.Quote) []domain.Quote {
	out := a.filterVenuePairs(merged)

	if a.quotes != nil {
		for _, q := range out {
			if err := a.quotes.SetQuote(ctx, q); err != nil {
				a.logger.Debug("quote cache write failed", slog.String("error", err.Error()))
				break
			}
		}
	}
	return out
}

// filterVenuePairs drops pairs below the liquidity minimum and keeps at
// most MaxPairsPerAsset pairs per (venue, asset), highest liquidity first.
func (a *Aggregator) filterVenuePairs(quotes []domain.Quote) []domain.Quote {
	type key struct {
		source string
		asset  string
	}
	groups := make(map[key][]domain.Quote)
	var keys []key
	for _, q := range quotes {
		if q.Volume24h < a.cfg.MinLiquidityUSD {
			continue
		}
		k := key{source: q.Source, asset: q.BaseAsset()}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], q)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].source != keys[j].source {
			return keys[i].source < keys[j].source
		}
		return keys[i].asset < keys[j].asset
	})

	var out []domain.Quote
	for _, k := range keys {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Volume24h > group[j].Volume24h
		})
		if len(group) > a.cfg.MaxPairsPerAsset {
			group = group[:a.cfg.MaxPairsPerAsset]
		}
		out = append(out, group...)
	}
	return out
}
