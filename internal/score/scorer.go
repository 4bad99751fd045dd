// Package score assigns a coarse confidence tier to candidate
// opportunities from an additive point system: profit magnitude, two-sided
// 24h volume, and venue reputation.
package score

import (
	"log/slog"
	"strings"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Config holds the scorer's point bands and cut points. The cut points are
// policy, not law: any change must keep the three-tier output and the three
// additive factors.
type Config struct {
	StrongProfitPct float64
	SolidProfitPct  float64
	ThinProfitPct   float64
	HighVolumeUSD   float64
	MidVolumeUSD    float64
	ReputableVenues []string
	HighPoints      int
	MediumPoints    int
}

// Scorer maps a candidate to low/medium/high confidence.
type Scorer struct {
	cfg       Config
	reputable map[string]bool
	logger    *slog.Logger
}

// New creates a Scorer.
func New(cfg Config, logger *slog.Logger) *Scorer {
	reputable := make(map[string]bool, len(cfg.ReputableVenues))
	for _, v := range cfg.ReputableVenues {
		reputable[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return &Scorer{
		cfg:       cfg,
		reputable: reputable,
		logger:    logger.With(slog.String("component", "scorer")),
	}
}

// Confidence scores one candidate. Points:
//
//	profit magnitude  0-3 (thin/solid/strong gross percentage bands)
//	two-sided volume  0-2 (both sides above the mid or high band)
//	venue reputation  0-1 (both venues on the allow-list)
//
// A high score here is not a validity claim; implausibly large profit is
// handled separately by the anomaly filter.
func (s *Scorer) Confidence(opp domain.Opportunity) domain.Confidence {
	points := s.profitPoints(opp.GrossProfitPct) +
		s.volumePoints(opp.BuyVolume24h, opp.SellVolume24h) +
		s.reputationPoints(opp.BuySource, opp.SellSource)

	switch {
	case points >= s.cfg.HighPoints:
		return domain.ConfidenceHigh
	case points >= s.cfg.MediumPoints:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

func (s *Scorer) profitPoints(grossPct float64) int {
	switch {
	case grossPct >= s.cfg.StrongProfitPct:
		return 3
	case grossPct >= s.cfg.SolidProfitPct:
		return 2
	case grossPct >= s.cfg.ThinProfitPct:
		return 1
	default:
		return 0
	}
}

func (s *Scorer) volumePoints(buyVol, sellVol float64) int {
	lower := buyVol
	if sellVol < lower {
		lower = sellVol
	}
	switch {
	case lower > s.cfg.HighVolumeUSD:
		return 2
	case lower > s.cfg.MidVolumeUSD:
		return 1
	default:
		return 0
	}
}

func (s *Scorer) reputationPoints(buySource, sellSource string) int {
	if s.reputable[strings.ToLower(buySource)] && s.reputable[strings.ToLower(sellSource)] {
		return 1
	}
	return 0
}
