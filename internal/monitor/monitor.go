// Package monitor owns the periodic detection cycle. Each cycle collects
// quotes, derives candidates, scores and filters them, ranks the survivors,
// and swaps the published snapshot atomically. Consumers only ever see a
// whole snapshot from a completed cycle.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/filter"
	"github.com/alanyoungcy/arbwatch/internal/notify"
	"github.com/alanyoungcy/arbwatch/internal/rank"
)

// arbChannel is the signal-bus channel carrying accepted opportunities.
const arbChannel = "arb_detected"

// Collector produces the cycle's raw quote set. Collection failures are
// absorbed inside the collector; an empty set is a valid result.
type Collector interface {
	Collect(ctx context.Context, assets []string) []domain.Quote
}

// Detector derives candidate opportunities from one quote set.
type Detector interface {
	Detect(quotes []domain.Quote) []domain.Opportunity
}

// Scorer assigns a confidence tier to one candidate.
type Scorer interface {
	Confidence(opp domain.Opportunity) domain.Confidence
}

// Validator re-validates a candidate batch and reports batch statistics.
type Validator interface {
	Apply(opps []domain.Opportunity) ([]domain.Opportunity, filter.Stats)
}

// CycleStats summarizes one completed cycle.
type CycleStats struct {
	QuotesCollected int     `json:"quotes_collected"`
	Candidates      int     `json:"candidates"`
	Accepted        int     `json:"accepted"`
	Cautioned       int     `json:"cautioned"`
	Rejected        int     `json:"rejected"`
	EfficiencyPct   float64 `json:"efficiency_pct"`
	DurationMS      int64   `json:"duration_ms"`
}

// Snapshot is the published result of one cycle: the ranked accepted
// opportunities plus the cycle's statistics. Snapshots are immutable once
// published.
type Snapshot struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Stats         CycleStats           `json:"stats"`
}

// Monitor runs the cycle on a fixed interval and publishes snapshots.
// The signal bus, opportunity cache, and notifier are optional
// collaborators; a nil value disables that output.
type Monitor struct {
	collector Collector
	detector  Detector
	scorer    Scorer
	validator Validator

	assets   []string
	interval time.Duration

	bus      domain.SignalBus
	cache    domain.OpportunityCache
	notifier *notify.Notifier
	logger   *slog.Logger

	snapshot atomic.Pointer[Snapshot]

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool

	// seen holds the venue-route keys of the previous cycle's accepted
	// opportunities, so only newly appearing routes trigger alerts.
	seenMu sync.Mutex
	seen   map[string]bool
}

// Options carries the optional collaborators.
type Options struct {
	Bus      domain.SignalBus
	Cache    domain.OpportunityCache
	Notifier *notify.Notifier
}

// New creates a Monitor over the four pipeline stages.
func New(collector Collector, detector Detector, scorer Scorer, validator Validator,
	assets []string, interval time.Duration, opts Options, logger *slog.Logger) *Monitor {
	return &Monitor{
		collector: collector,
		detector:  detector,
		scorer:    scorer,
		validator: validator,
		assets:    assets,
		interval:  interval,
		bus:       opts.Bus,
		cache:     opts.Cache,
		notifier:  opts.Notifier,
		logger:    logger.With(slog.String("component", "monitor")),
		seen:      make(map[string]bool),
	}
}

// Start launches the periodic loop: one cycle immediately, then one per
// interval. It returns domain.ErrMonitorRunning when already started.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return domain.ErrMonitorRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	go m.loop(loopCtx)

	m.logger.Info("monitor started",
		slog.Duration("interval", m.interval),
		slog.Int("assets", len(m.assets)),
	)
	m.notifyLifecycle(notify.EventMonitorStarted, "Monitor started",
		fmt.Sprintf("Watching %d assets every %s.", len(m.assets), m.interval))
	return nil
}

// Stop cancels the loop without waiting for an in-flight cycle; that
// cycle's result is discarded rather than published. It returns
// domain.ErrMonitorStopped when the monitor is not running.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return domain.ErrMonitorStopped
	}
	m.cancel()
	m.cancel = nil
	m.running = false
	m.logger.Info("monitor stopped")
	m.notifyLifecycle(notify.EventMonitorStopped, "Monitor stopped", "Periodic collection halted.")
	return nil
}

// notifyLifecycle delivers a start/stop event off the caller's goroutine so
// slow channels never block Start or Stop.
func (m *Monitor) notifyLifecycle(event, title, message string) {
	if m.notifier == nil {
		return
	}
	go func() {
		if err := m.notifier.Notify(context.Background(), event, title, message); err != nil {
			m.logger.Warn("lifecycle notification failed",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Running reports whether the periodic loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Latest returns the most recently published snapshot, or nil before the
// first cycle completes.
func (m *Monitor) Latest() *Snapshot {
	return m.snapshot.Load()
}

// CollectNow runs one synchronous cycle and publishes its snapshot. It
// works whether or not the periodic loop is running.
func (m *Monitor) CollectNow(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("monitor: collect now: %w", err)
	}
	snap := m.runCycle(ctx)
	m.publish(ctx, snap)
	return snap, nil
}

func (m *Monitor) loop(ctx context.Context) {
	// Run immediately, then on ticks.
	m.cycleAndPublish(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cycleAndPublish(ctx)
		}
	}
}

// cycleAndPublish runs one cycle and publishes unless the loop was
// cancelled while the cycle ran.
func (m *Monitor) cycleAndPublish(ctx context.Context) {
	snap := m.runCycle(ctx)
	if ctx.Err() != nil {
		m.logger.Debug("discarding cycle result after stop")
		return
	}
	m.publish(ctx, snap)
}

// runCycle executes collect, detect, score, filter, and rank once.
func (m *Monitor) runCycle(ctx context.Context) *Snapshot {
	started := time.Now()

	quotes := m.collector.Collect(ctx, m.assets)
	candidates := m.detector.Detect(quotes)
	for i := range candidates {
		candidates[i].Confidence = m.scorer.Confidence(candidates[i])
	}
	accepted, stats := m.validator.Apply(candidates)
	rank.ByNetProfit(accepted)

	snap := &Snapshot{
		Opportunities: accepted,
		UpdatedAt:     time.Now(),
		Stats: CycleStats{
			QuotesCollected: len(quotes),
			Candidates:      len(candidates),
			Accepted:        stats.Accepted,
			Cautioned:       stats.Cautioned,
			Rejected:        stats.Rejected,
			EfficiencyPct:   stats.EfficiencyPct,
			DurationMS:      time.Since(started).Milliseconds(),
		},
	}

	m.logger.Info("cycle complete",
		slog.Int("quotes", snap.Stats.QuotesCollected),
		slog.Int("candidates", snap.Stats.Candidates),
		slog.Int("accepted", snap.Stats.Accepted),
		slog.Int64("duration_ms", snap.Stats.DurationMS),
	)
	return snap
}

// publish swaps the in-process snapshot and pushes to the optional
// outputs. Output failures are logged and otherwise ignored; the snapshot
// swap itself cannot fail.
func (m *Monitor) publish(ctx context.Context, snap *Snapshot) {
	m.snapshot.Store(snap)

	fresh := m.markSeen(snap.Opportunities)

	if m.bus != nil {
		for _, opp := range fresh {
			payload, err := json.Marshal(opp)
			if err != nil {
				continue
			}
			if err := m.bus.Publish(ctx, arbChannel, payload); err != nil {
				m.logger.Warn("signal bus publish failed", slog.String("error", err.Error()))
				break
			}
		}
	}

	if m.cache != nil {
		payload, err := json.Marshal(snap)
		if err == nil {
			if err := m.cache.SetLatest(ctx, payload); err != nil {
				m.logger.Warn("snapshot cache write failed", slog.String("error", err.Error()))
			}
		}
	}

	if m.notifier != nil {
		for _, opp := range fresh {
			if err := m.notifier.OpportunityAlert(ctx, opp); err != nil {
				m.logger.Warn("opportunity alert failed", slog.String("error", err.Error()))
			}
		}
	}
}

// markSeen returns the opportunities whose venue route did not appear in
// the previous cycle, and records the current cycle's routes.
func (m *Monitor) markSeen(opps []domain.Opportunity) []domain.Opportunity {
	m.seenMu.Lock()
	defer m.seenMu.Unlock()

	current := make(map[string]bool, len(opps))
	var fresh []domain.Opportunity
	for _, opp := range opps {
		key := opp.Asset + "|" + opp.BuySource + "|" + opp.SellSource
		current[key] = true
		if !m.seen[key] {
			fresh = append(fresh, opp)
		}
	}
	m.seen = current
	return fresh
}
