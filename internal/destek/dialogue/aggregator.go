package dialogue

import (
	"context"
	"fmt"

	"github.com/altinsoy/destek/internal/destek/config"
	"github.com/altinsoy/destek/internal/destek/extract"
)

// RecentUserReader is the slice of the store the aggregator needs.
type RecentUserReader interface {
	RecentUserMessages(ctx context.Context, sessionID string, n int) ([]string, error)
}

// Aggregator recovers cancellation details the current message lacks by
// re-scanning recent user turns with the entity extractor.
type Aggregator struct {
	store     RecentUserReader
	extractor *extract.Extractor
	patterns  config.Patterns
	depth     int
}

// NewAggregator builds an Aggregator scanning up to depth recent user turns.
func NewAggregator(store RecentUserReader, extractor *extract.Extractor, patterns config.Patterns, depth int) *Aggregator {
	if depth <= 0 {
		depth = 10
	}
	return &Aggregator{store: store, extractor: extractor, patterns: patterns, depth: depth}
}

// ResolveFromHistory scans the session's recent user turns, newest first, and
// accumulates the first order number and the first acceptable reason seen.
// The two fields are filled independently, so they may come from different
// turns. The scan stops early once both are found. Either field may remain
// empty.
//
// A candidate reason is rejected when it is purely numeric or contains a
// greeting/cancellation-trigger word: those are false positives of the
// extractor's short-message fallback, not genuine reasons.
func (a *Aggregator) ResolveFromHistory(ctx context.Context, sessionID string) (extract.Entities, error) {
	msgs, err := a.store.RecentUserMessages(ctx, sessionID, a.depth)
	if err != nil {
		return extract.Entities{}, fmt.Errorf("aggregate session context: %w", err)
	}

	var found extract.Entities
	for _, content := range msgs {
		ents := a.extractor.Extract(content)

		if ents.OrderNumber != "" && found.OrderNumber == "" {
			found.OrderNumber = ents.OrderNumber
		}
		if ents.Reason != "" && found.Reason == "" &&
			!a.extractor.PurelyNumeric(ents.Reason) &&
			!config.ContainsAny(ents.Reason, a.patterns.RejectWords) {
			found.Reason = ents.Reason
		}

		if found.OrderNumber != "" && found.Reason != "" {
			break
		}
	}
	return found, nil
}
