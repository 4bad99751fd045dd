// Package notify fans alerts out to the configured channels (Telegram,
// Discord). Alerts are filtered by event type so operators receive only
// what they subscribed to; delivery failures never feed back into the
// detection pipeline. Each channel renders alerts in its own native format,
// so an opportunity arrives as a Discord embed or a Telegram HTML block
// rather than flat text.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Event types emitted by the monitor.
const (
	EventArbDetected    = "arb_detected"
	EventMonitorStarted = "monitor_started"
	EventMonitorStopped = "monitor_stopped"
)

// Alert is one notification to deliver. Title and Body are the plain-text
// rendering every channel can fall back to; when Opportunity is set the
// channel may render it in a richer, channel-specific format instead.
type Alert struct {
	Event       string
	Title       string
	Body        string
	Opportunity *domain.Opportunity
}

// Sender is the interface each notification channel implements.
type Sender interface {
	// Send renders and delivers one alert.
	Send(ctx context.Context, alert Alert) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches alerts to one or more Senders. It maintains a set of
// allowed event types; alerts whose event type is not in the set are
// silently dropped.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders.
// Only events whose type appears in the events slice are forwarded; an
// empty list allows everything.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a plain-text alert to all senders if the event type is allowed.
func (n *Notifier) Notify(ctx context.Context, event, title, body string) error {
	return n.send(ctx, Alert{Event: event, Title: title, Body: body})
}

// OpportunityAlert sends one accepted opportunity as an arb_detected event.
// Channels that understand opportunities render it themselves; the plain
// title and body serve the rest.
func (n *Notifier) OpportunityAlert(ctx context.Context, opp domain.Opportunity) error {
	return n.send(ctx, Alert{
		Event: EventArbDetected,
		Title: fmt.Sprintf("Arbitrage: %s %.2f%%", opp.Asset, opp.GrossProfitPct),
		Body: fmt.Sprintf(
			"Buy %s at %g on %s, sell at %g on %s.\nNet profit: $%.2f (confidence %s)",
			opp.Asset, opp.BuyPrice, opp.BuySource,
			opp.SellPrice, opp.SellSource,
			opp.NetProfit, opp.Confidence,
		),
		Opportunity: &opp,
	})
}

// send applies the event filter, then fans the alert out. Errors from
// individual senders are collected into one combined error; a single sender
// failure does not prevent delivery to the remaining senders.
func (n *Notifier) send(ctx context.Context, alert Alert) error {
	if len(n.events) > 0 && !n.events[alert.Event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", alert.Event),
		)
		return nil
	}
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, alert); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", alert.Title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
