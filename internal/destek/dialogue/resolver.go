package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/altinsoy/destek/internal/destek/config"
	"github.com/altinsoy/destek/internal/destek/extract"
	"github.com/altinsoy/destek/internal/destek/observability"
	"github.com/altinsoy/destek/internal/destek/orders"
	"github.com/altinsoy/destek/internal/destek/store"
)

// HistoryStore is everything the resolver needs from the persistence layer.
// *store.Store satisfies it; tests inject fakes.
type HistoryStore interface {
	AppendMessage(ctx context.Context, sessionID, role, content string) error
	AppendAction(ctx context.Context, sessionID, actionName string, args map[string]string, result string) error
	SessionHistory(ctx context.Context, sessionID string) ([]store.Message, error)
	LastAssistantReader
	RecentUserReader
}

// CancelInvoker executes the cancellation action. *orders.Invoker satisfies it.
type CancelInvoker interface {
	Cancel(ctx context.Context, orderNumber, reason string) (string, orders.Audit)
}

// Responder produces the retrieval-augmented fallback answer. It owns the
// degraded-mode apology messages: retrieval problems come back as a normal
// answer with no sources, never as an error. An error return means text
// generation itself failed and the request should fail.
type Responder interface {
	Respond(ctx context.Context, message string, history []store.Message) (answer string, sources []string, err error)
}

// Result is the outcome of one resolved turn.
type Result struct {
	Answer    string
	Sources   []string
	ToolCalls []orders.Audit
}

// Resolver is the per-turn orchestrator. All collaborators are injected at
// construction time; the resolver itself holds no mutable state and is safe
// for concurrent use across sessions.
type Resolver struct {
	store      HistoryStore
	extractor  *extract.Extractor
	aggregator *Aggregator
	classifier *Classifier
	invoker    CancelInvoker
	responder  Responder
	replies    config.Replies
}

// NewResolver wires the dialogue core together.
func NewResolver(
	st HistoryStore,
	extractor *extract.Extractor,
	aggregator *Aggregator,
	classifier *Classifier,
	invoker CancelInvoker,
	responder Responder,
	replies config.Replies,
) *Resolver {
	return &Resolver{
		store:      st,
		extractor:  extractor,
		aggregator: aggregator,
		classifier: classifier,
		invoker:    invoker,
		responder:  responder,
		replies:    replies,
	}
}

// Handle resolves one inbound message: persist it, then execute the
// cancellation, ask for what is still missing, or fall back to the
// retrieval-augmented responder.
//
// The execute branch requires the reason to come from the current message;
// a reason recovered from older history may belong to an earlier, unrelated
// exchange and must not trigger execution. The order number, by contrast,
// may be backfilled from history (the user typically supplied it one turn
// earlier when prompted).
func (r *Resolver) Handle(ctx context.Context, sessionID, message string) (*Result, error) {
	log := observability.WithTrace(ctx)

	if err := r.store.AppendMessage(ctx, sessionID, store.RoleUser, message); err != nil {
		return nil, err
	}

	current := r.extractor.Extract(message)

	combined := current
	if combined.OrderNumber == "" || combined.Reason == "" {
		fromHistory, err := r.aggregator.ResolveFromHistory(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if combined.OrderNumber == "" {
			combined.OrderNumber = fromHistory.OrderNumber
		}
		if combined.Reason == "" {
			combined.Reason = fromHistory.Reason
		}
	}

	finalOrder := current.OrderNumber
	if finalOrder == "" {
		finalOrder = combined.OrderNumber
	}

	awaiting, err := r.classifier.AwaitingDetails(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	log.Debug("turn resolved",
		"session_id", sessionID,
		"awaiting_details", awaiting,
		"order_number", finalOrder,
		"current_reason", current.Reason != "",
	)

	// Execution always needs a fresh reason from the current message; a
	// reason dug out of older history must not re-trigger a cancellation.
	// With that given, either the current message also carries the order
	// number (self-contained request, no prior prompt needed), or we are
	// mid-flow and the order number may be backfilled from history.
	if current.Reason != "" && !r.extractor.PurelyNumeric(current.Reason) {
		if current.OrderNumber != "" || (awaiting && finalOrder != "") {
			return r.execute(ctx, sessionID, finalOrder, current.Reason)
		}
	}

	if awaiting {
		var missing []string
		if finalOrder == "" {
			missing = append(missing, r.replies.MissingOrder)
		}
		if current.Reason == "" {
			missing = append(missing, r.replies.MissingReason)
		}
		if len(missing) > 0 {
			return r.clarify(ctx, sessionID, missing)
		}
	}

	return r.fallback(ctx, sessionID, message)
}

// execute runs the cancellation, records the audit trail, and persists the
// normalized result as the assistant turn.
func (r *Resolver) execute(ctx context.Context, sessionID, orderNumber, reason string) (*Result, error) {
	result, audit := r.invoker.Cancel(ctx, orderNumber, reason)

	args := map[string]string{"order_number": orderNumber, "reason": reason}
	if err := r.store.AppendAction(ctx, sessionID, orders.ActionName, args, result); err != nil {
		return nil, err
	}
	if err := r.store.AppendMessage(ctx, sessionID, store.RoleAssistant, result); err != nil {
		return nil, err
	}
	return &Result{
		Answer:    result,
		Sources:   []string{},
		ToolCalls: []orders.Audit{audit},
	}, nil
}

// clarify asks for exactly the missing piece(s), joined per the reply table.
func (r *Resolver) clarify(ctx context.Context, sessionID string, missing []string) (*Result, error) {
	answer := fmt.Sprintf(r.replies.Clarify, strings.Join(missing, r.replies.MissingSeparator))
	if err := r.store.AppendMessage(ctx, sessionID, store.RoleAssistant, answer); err != nil {
		return nil, err
	}
	return &Result{
		Answer:    answer,
		Sources:   []string{},
		ToolCalls: []orders.Audit{},
	}, nil
}

// fallback defers to the retrieval-augmented responder with the full session
// history as prompt context.
func (r *Resolver) fallback(ctx context.Context, sessionID, message string) (*Result, error) {
	history, err := r.store.SessionHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answer, sources, err := r.responder.Respond(ctx, message, history)
	if err != nil {
		return nil, err
	}
	if err := r.store.AppendMessage(ctx, sessionID, store.RoleAssistant, answer); err != nil {
		return nil, err
	}
	if sources == nil {
		sources = []string{}
	}
	return &Result{
		Answer:    answer,
		Sources:   sources,
		ToolCalls: []orders.Audit{},
	}, nil
}
