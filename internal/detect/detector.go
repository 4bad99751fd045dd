// Package detect derives candidate arbitrage opportunities from a cycle's
// quote set: cheapest vs. most expensive venue per asset, gated on the
// class-specific minimum edge and the modeled execution cost.
package detect

import (
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Config holds the detector's profitability model parameters.
type Config struct {
	// TradeAmountUSD scales a profit percentage into a dollar net profit.
	TradeAmountUSD float64
	// EstimatedCostUSD is the flat per-trade execution cost, computed once
	// per cycle from the configured gas assumptions.
	EstimatedCostUSD float64
}

// Detector turns a quote set into candidate opportunities. It is a pure,
// synchronous transformation; all I/O happens upstream in the aggregator.
type Detector struct {
	profiles *domain.ProfileTable
	cfg      Config
	logger   *slog.Logger
}

// New creates a Detector.
func New(profiles *domain.ProfileTable, cfg Config, logger *slog.Logger) *Detector {
	return &Detector{
		profiles: profiles,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "detector")),
	}
}

// Detect groups quotes by base asset and derives at most one candidate per
// asset: buy at the cheapest venue, sell at the most expensive venue that
// is not the buy venue. Candidates below the class minimum edge or without
// strictly positive net profit are dropped. Output order is deterministic
// (assets ascending) but carries no meaning; ranking happens after
// filtering. A malformed group never aborts the remaining assets.
func (d *Detector) Detect(quotes []domain.Quote) []domain.Opportunity {
	groups := make(map[string][]domain.Quote)
	for _, q := range quotes {
		if !q.Valid() {
			d.logger.Debug("discarding invalid quote",
				slog.String("source", q.Source),
				slog.String("pair", q.AssetPair),
				slog.Float64("price", q.Price),
			)
			continue
		}
		asset := q.BaseAsset()
		if asset == "" {
			continue
		}
		groups[asset] = append(groups[asset], q)
	}

	assets := make([]string, 0, len(groups))
	for asset := range groups {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	var out []domain.Opportunity
	for _, asset := range assets {
		opp, ok := d.deriveSafe(asset, groups[asset])
		if ok {
			out = append(out, opp)
		}
	}
	return out
}

// deriveSafe isolates one asset group so an unexpected panic cannot take
// down the whole cycle's results.
func (d *Detector) deriveSafe(asset string, group []domain.Quote) (opp domain.Opportunity, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("opportunity derivation panicked",
				slog.String("asset", asset),
				slog.Any("panic", r),
			)
			ok = false
		}
	}()
	return d.derive(asset, group)
}

func (d *Detector) derive(asset string, group []domain.Quote) (domain.Opportunity, bool) {
	if len(group) < 2 {
		return domain.Opportunity{}, false
	}

	sorted := make([]domain.Quote, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})

	buy := sorted[0]

	// Most expensive quote from a venue other than the buy venue. If every
	// quote shares the buy venue there is no cross-venue gap to act on.
	var sell domain.Quote
	found := false
	for i := len(sorted) - 1; i > 0; i-- {
		if sorted[i].Source != buy.Source {
			sell = sorted[i]
			found = true
			break
		}
	}
	if !found {
		d.logger.Debug("single-venue asset skipped", slog.String("asset", asset))
		return domain.Opportunity{}, false
	}

	grossPct := (sell.Price - buy.Price) / buy.Price * 100

	profile, _ := d.profiles.Lookup(asset)
	policy := d.profiles.Policy(profile.Class)
	if grossPct < policy.MinProfitPct {
		return domain.Opportunity{}, false
	}

	netProfit := d.cfg.TradeAmountUSD*grossPct/100 - d.cfg.EstimatedCostUSD
	if netProfit <= 0 {
		d.logger.Debug("candidate not profitable after cost",
			slog.String("asset", asset),
			slog.Float64("gross_pct", grossPct),
			slog.Float64("net_profit", netProfit),
		)
		return domain.Opportunity{}, false
	}

	observed := buy.ObservedAt
	if sell.ObservedAt.After(observed) {
		observed = sell.ObservedAt
	}

	return domain.Opportunity{
		ID:              uuid.NewString(),
		Asset:           asset,
		BuySource:       buy.Source,
		SellSource:      sell.Source,
		BuyPrice:        buy.Price,
		SellPrice:       sell.Price,
		PriceDifference: sell.Price - buy.Price,
		GrossProfitPct:  grossPct,
		EstimatedCost:   d.cfg.EstimatedCostUSD,
		NetProfit:       netProfit,
		BuyVolume24h:    buy.Volume24h,
		SellVolume24h:   sell.Volume24h,
		ObservedAt:      observed,
	}, true
}
