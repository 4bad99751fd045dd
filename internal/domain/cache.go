package domain

import "context"

// SignalBus publishes raw payloads to named channels for out-of-process
// consumers. The pipeline treats publish failures as non-fatal.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// OpportunityCache mirrors the latest published snapshot for consumers that
// cannot reach the in-process accessor. It holds exactly one value: the
// serialized snapshot of the last completed cycle. Nothing historical is
// retained.
type OpportunityCache interface {
	SetLatest(ctx context.Context, payload []byte) error
	GetLatest(ctx context.Context) ([]byte, error)
}

// QuoteCache exposes the most recent quote per venue and asset so external
// tooling can inspect raw feed data between cycles.
type QuoteCache interface {
	SetQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, source, asset string) (Quote, error)
}
