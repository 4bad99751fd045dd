// Package static implements a fixed-table quote source. It backs tests and
// dry runs where deterministic prices matter more than live data.
package static

import (
	"context"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Source serves a fixed set of quotes.
type Source struct {
	name   string
	quotes []domain.Quote
}

// New creates a static source with the given venue name and quote table.
func New(name string, quotes []domain.Quote) *Source {
	return &Source{name: name, quotes: quotes}
}

var _ domain.SourceAdapter = (*Source)(nil)

// Name implements domain.SourceAdapter.
func (s *Source) Name() string { return s.name }

// Fetch returns the table entries whose base asset is in the requested
// set, with ObservedAt refreshed so staleness checks downstream pass.
func (s *Source) Fetch(_ context.Context, assets []string) ([]domain.Quote, error) {
	wanted := make(map[string]bool, len(assets))
	for _, a := range assets {
		wanted[domain.NormalizeAsset(a)] = true
	}

	now := time.Now()
	out := make([]domain.Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		if !wanted[q.BaseAsset()] {
			continue
		}
		q.ObservedAt = now
		out = append(out, q)
	}
	return out, nil
}
