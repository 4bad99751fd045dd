package domain

import "context"

// SourceAdapter fetches quotes for the requested assets from one price
// venue. Implementations must tolerate partial failure: a venue that cannot
// quote some of the assets returns whatever it has. A non-nil error means
// the venue contributed nothing this cycle; the aggregator logs it and
// moves on, it never aborts the cycle.
type SourceAdapter interface {
	// Name identifies the venue ("coingecko", "dexscreener", ...).
	Name() string
	// Fetch returns zero or more quotes for the given normalized symbols.
	Fetch(ctx context.Context, assets []string) ([]Quote, error)
}
