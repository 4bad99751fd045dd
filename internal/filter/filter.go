// Package filter re-validates candidate opportunities against asset-class
// price bands, profit-rate ceilings, venue blacklists, and stablecoin peg
// bounds, then scores survivors 0-100 and maps the score to an
// accept/caution/reject recommendation.
package filter

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Config holds the filter's tunables. All numbers are policy; defaults live
// in the config package.
type Config struct {
	Enabled           bool
	Blacklist         []string
	PegTolerancePct   float64
	AcceptScore       float64
	CautionScore      float64
	Reputation        map[string]float64
	UnknownReputation float64
}

// Stats summarizes one batch of validations.
type Stats struct {
	Total         int     `json:"total"`
	Accepted      int     `json:"accepted"`
	Cautioned     int     `json:"cautioned"`
	Rejected      int     `json:"rejected"`
	EfficiencyPct float64 `json:"efficiency_pct"` // rejected / total * 100
}

// Filter is the anomaly-rejection stage. Validation is pure and idempotent:
// the same candidate always yields the same result.
type Filter struct {
	cfg       Config
	profiles  *domain.ProfileTable
	blacklist map[string]bool
	logger    *slog.Logger
}

// New creates a Filter.
func New(cfg Config, profiles *domain.ProfileTable, logger *slog.Logger) *Filter {
	blacklist := make(map[string]bool, len(cfg.Blacklist))
	for _, v := range cfg.Blacklist {
		blacklist[normalizeSource(v)] = true
	}
	return &Filter{
		cfg:       cfg,
		profiles:  profiles,
		blacklist: blacklist,
		logger:    logger.With(slog.String("component", "anomaly_filter")),
	}
}

// Enabled reports whether the filter stage is active.
func (f *Filter) Enabled() bool { return f.cfg.Enabled }

// Validate runs the fixed check sequence against one candidate. The checks
// short-circuit: the first failure names the rejection reason and no later
// check runs. Checks 1-5 are hard gates; surviving candidates are scored
// and the score mapped to a recommendation.
func (f *Filter) Validate(opp domain.Opportunity) domain.ValidationResult {
	// 1. Numeric sanity.
	if !finitePositive(opp.BuyPrice) || !finitePositive(opp.SellPrice) {
		return reject(fmt.Sprintf("non-finite or non-positive price (buy=%v sell=%v)", opp.BuyPrice, opp.SellPrice))
	}

	profile, classified := f.profiles.Lookup(opp.Asset)
	policy := f.profiles.Policy(profile.Class)

	// 2. Price band. Unclassified assets skip the band check entirely.
	if classified {
		if opp.BuyPrice < profile.MinPrice || opp.BuyPrice > profile.MaxPrice {
			return reject(fmt.Sprintf("buy price %g outside [%g, %g] for %s %s",
				opp.BuyPrice, profile.MinPrice, profile.MaxPrice, profile.Class, opp.Asset))
		}
		if opp.SellPrice < profile.MinPrice || opp.SellPrice > profile.MaxPrice {
			return reject(fmt.Sprintf("sell price %g outside [%g, %g] for %s %s",
				opp.SellPrice, profile.MinPrice, profile.MaxPrice, profile.Class, opp.Asset))
		}
	}

	// 3. Profit-rate ceiling. A spread beyond the class ceiling is bad
	// data, not free money.
	if opp.GrossProfitPct > policy.MaxProfitPct {
		return reject(fmt.Sprintf("profit %.2f%% exceeds %s ceiling %.2f%%",
			opp.GrossProfitPct, profile.Class, policy.MaxProfitPct))
	}

	// 4. Source reliability. The detector never emits duplicate-venue
	// candidates, but the filter re-checks.
	buySource := normalizeSource(opp.BuySource)
	sellSource := normalizeSource(opp.SellSource)
	if f.blacklist[buySource] {
		return reject(fmt.Sprintf("buy venue %q is blacklisted", opp.BuySource))
	}
	if f.blacklist[sellSource] {
		return reject(fmt.Sprintf("sell venue %q is blacklisted", opp.SellSource))
	}
	if buySource == sellSource {
		return reject(fmt.Sprintf("buy and sell venue are identical (%q)", opp.BuySource))
	}

	// 5. Stablecoin peg deviation.
	if profile.Class == domain.ClassStablecoin {
		if dev := pegDeviationPct(opp.BuyPrice); dev > f.cfg.PegTolerancePct {
			return reject(fmt.Sprintf("buy price %g deviates %.2f%% from peg (tolerance %.2f%%)",
				opp.BuyPrice, dev, f.cfg.PegTolerancePct))
		}
		if dev := pegDeviationPct(opp.SellPrice); dev > f.cfg.PegTolerancePct {
			return reject(fmt.Sprintf("sell price %g deviates %.2f%% from peg (tolerance %.2f%%)",
				opp.SellPrice, dev, f.cfg.PegTolerancePct))
		}
	}

	// 6. Score: profit sweet spot (0-50) + venue reliability (0-30) +
	// class bonus (0-20).
	score := f.sweetSpotScore(opp.GrossProfitPct, policy) +
		f.reputationScore(buySource) +
		f.reputationScore(sellSource) +
		policy.ScoreBonus
	if score > 100 {
		score = 100
	}

	// 7. Recommendation mapping.
	switch {
	case score >= f.cfg.AcceptScore:
		return domain.ValidationResult{
			Valid:          true,
			Reason:         "passed all checks",
			Score:          score,
			Recommendation: domain.RecommendationAccept,
		}
	case score >= f.cfg.CautionScore:
		return domain.ValidationResult{
			Reason:         fmt.Sprintf("score %.1f below accept threshold %.1f, flagged for review", score, f.cfg.AcceptScore),
			Score:          score,
			Recommendation: domain.RecommendationCaution,
		}
	default:
		return domain.ValidationResult{
			Reason:         fmt.Sprintf("score %.1f below caution threshold %.1f", score, f.cfg.CautionScore),
			Score:          score,
			Recommendation: domain.RecommendationReject,
		}
	}
}

// Apply validates a batch and returns only accepted candidates, with their
// confidence overridden by the recommendation (accept -> high). When the
// filter is disabled the batch passes through untouched with its
// scorer-assigned confidence.
func (f *Filter) Apply(opps []domain.Opportunity) ([]domain.Opportunity, Stats) {
	stats := Stats{Total: len(opps)}
	if !f.cfg.Enabled {
		stats.Accepted = len(opps)
		return opps, stats
	}

	accepted := make([]domain.Opportunity, 0, len(opps))
	for _, opp := range opps {
		res := f.Validate(opp)
		switch res.Recommendation {
		case domain.RecommendationAccept:
			stats.Accepted++
			opp.Confidence = domain.ConfidenceHigh
			accepted = append(accepted, opp)
		case domain.RecommendationCaution:
			stats.Cautioned++
			f.logger.Info("candidate flagged for review",
				slog.String("asset", opp.Asset),
				slog.Float64("score", res.Score),
				slog.String("reason", res.Reason),
			)
		default:
			stats.Rejected++
			f.logger.Info("candidate rejected",
				slog.String("asset", opp.Asset),
				slog.String("buy_source", opp.BuySource),
				slog.String("sell_source", opp.SellSource),
				slog.String("reason", res.Reason),
			)
		}
	}

	if stats.Total > 0 {
		stats.EfficiencyPct = float64(stats.Rejected) / float64(stats.Total) * 100
	}
	f.logger.Info("filter batch complete",
		slog.Int("total", stats.Total),
		slog.Int("accepted", stats.Accepted),
		slog.Int("cautioned", stats.Cautioned),
		slog.Int("rejected", stats.Rejected),
		slog.Float64("efficiency_pct", stats.EfficiencyPct),
	)
	return accepted, stats
}

// sweetSpotScore rewards a class-appropriate profit rate. The lower-middle
// of the believable range [min, max] scores best; both edges are suspicious
// (too thin to survive costs, too rich to be real data).
func (f *Filter) sweetSpotScore(grossPct float64, policy domain.ClassPolicy) float64 {
	span := policy.MaxProfitPct - policy.MinProfitPct
	if span <= 0 {
		return 25
	}
	pos := (grossPct - policy.MinProfitPct) / span
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	const ideal = 0.25
	score := 50 * (1 - math.Abs(pos-ideal)/0.75)
	if score < 0 {
		score = 0
	}
	return score
}

// reputationScore looks one venue up in the reliability table (0-15 per
// side). Blacklisted venues never reach this point.
func (f *Filter) reputationScore(source string) float64 {
	if rep, ok := f.cfg.Reputation[source]; ok {
		return rep
	}
	return f.cfg.UnknownReputation
}

func reject(reason string) domain.ValidationResult {
	return domain.ValidationResult{
		Reason:         reason,
		Score:          0,
		Recommendation: domain.RecommendationReject,
	}
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func pegDeviationPct(price float64) float64 {
	return math.Abs(price-1.0) * 100
}

func normalizeSource(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}
