// Package dialogue implements the dialogue-state and intent-resolution core:
// per turn, decide whether to execute the cancellation action, ask a
// clarifying follow-up, or defer to the retrieval-augmented responder. The
// only state is the persisted turn history; no dialogue-state field is ever
// stored.
package dialogue

import (
	"context"
	"fmt"

	"github.com/altinsoy/destek/internal/destek/config"
)

// LastAssistantReader is the slice of the store the classifier needs.
type LastAssistantReader interface {
	LastAssistantMessage(ctx context.Context, sessionID string) (string, bool, error)
}

// IsAwaitingDetails is the pure decision function over a single assistant
// message. It returns false when the message carries a success marker (the
// flow already completed), and true only when the message names at least one
// of the missing details (order number or reason) AND mentions the
// cancellation process. A clarification prompt asking for just the reason
// still satisfies both clauses, which keeps a half-filled flow alive.
func IsAwaitingDetails(assistantText string, p config.Patterns) bool {
	if config.ContainsAny(assistantText, p.SuccessMarkers) {
		return false
	}
	hasOrder := config.ContainsAny(assistantText, p.OrderRequestPhrases)
	hasReason := config.ContainsAny(assistantText, p.ReasonRequestPhrases)
	hasProcess := config.ContainsAny(assistantText, p.ProcessPhrases)
	return (hasOrder || hasReason) && hasProcess
}

// Classifier recomputes the awaiting-details state from the most recent
// assistant turn of a session.
type Classifier struct {
	store    LastAssistantReader
	patterns config.Patterns
}

// NewClassifier builds a Classifier over the given store and pattern table.
func NewClassifier(store LastAssistantReader, patterns config.Patterns) *Classifier {
	return &Classifier{store: store, patterns: patterns}
}

// AwaitingDetails reports whether the conversation is mid-cancellation-flow.
// A session with no assistant turn yet is never awaiting details.
func (c *Classifier) AwaitingDetails(ctx context.Context, sessionID string) (bool, error) {
	text, ok, err := c.store.LastAssistantMessage(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("classify dialogue state: %w", err)
	}
	if !ok {
		return false, nil
	}
	return IsAwaitingDetails(text, c.patterns), nil
}
