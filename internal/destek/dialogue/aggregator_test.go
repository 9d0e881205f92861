package dialogue_test

import (
	"context"
	"testing"

	"github.com/altinsoy/destek/internal/destek/config"
	"github.com/altinsoy/destek/internal/destek/dialogue"
	"github.com/altinsoy/destek/internal/destek/extract"
)

// recentUserFake serves canned user messages, newest first, and records how
// many were requested.
type recentUserFake struct {
	messages []string
	askedN   int
}

func (f *recentUserFake) RecentUserMessages(ctx context.Context, sessionID string, n int) ([]string, error) {
	f.askedN = n
	if len(f.messages) > n {
		return f.messages[:n], nil
	}
	return f.messages, nil
}

func newAggregator(t *testing.T, st *recentUserFake, depth int) *dialogue.Aggregator {
	t.Helper()
	tables := config.DefaultTables()
	e, err := extract.New(tables.Patterns)
	if err != nil {
		t.Fatalf("build extractor: %v", err)
	}
	return dialogue.NewAggregator(st, e, tables.Patterns, depth)
}

func TestAggregator_OrderAndReasonFromDifferentTurns(t *testing.T) {
	st := &recentUserFake{messages: []string{
		"fikrim değişti", // newest
		"12345",
		"Merhaba, siparişimi iptal etmek istiyorum",
	}}
	a := newAggregator(t, st, 10)

	got, err := a.ResolveFromHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OrderNumber != "12345" {
		t.Errorf("order: got %q, want %q", got.OrderNumber, "12345")
	}
	if got.Reason != "fikrim değişti" {
		t.Errorf("reason: got %q, want %q", got.Reason, "fikrim değişti")
	}
	if st.askedN != 10 {
		t.Errorf("scan depth: got %d, want 10", st.askedN)
	}
}

func TestAggregator_NumericReasonRejected(t *testing.T) {
	// "12345" extracts an order number and no reason; a turn that is only
	// digits must never be accepted as a reason.
	st := &recentUserFake{messages: []string{"12345"}}
	a := newAggregator(t, st, 10)

	got, err := a.ResolveFromHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OrderNumber != "12345" {
		t.Errorf("order: got %q, want %q", got.OrderNumber, "12345")
	}
	if got.Reason != "" {
		t.Errorf("reason: got %q, want empty", got.Reason)
	}
}

func TestAggregator_GreetingRejectedAsReason(t *testing.T) {
	// Short greetings slip through the extractor's whole-message fallback;
	// the aggregator's reject list filters them out.
	st := &recentUserFake{messages: []string{"merhaba", "selam", "hello"}}
	a := newAggregator(t, st, 10)

	got, err := a.ResolveFromHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Reason != "" {
		t.Errorf("reason: got %q, want empty", got.Reason)
	}
}

func TestAggregator_FirstMatchWinsNewestFirst(t *testing.T) {
	st := &recentUserFake{messages: []string{
		"ORD-2 hasarlı", // newest: both present, scan stops here
		"ORD-1 bozuk",
	}}
	a := newAggregator(t, st, 10)

	got, err := a.ResolveFromHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OrderNumber != "ORD-2" {
		t.Errorf("order: got %q, want %q", got.OrderNumber, "ORD-2")
	}
	if got.Reason != "hasarlı" {
		t.Errorf("reason: got %q, want %q", got.Reason, "hasarlı")
	}
}

func TestAggregator_EmptyHistory(t *testing.T) {
	a := newAggregator(t, &recentUserFake{}, 10)
	got, err := a.ResolveFromHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OrderNumber != "" || got.Reason != "" {
		t.Errorf("expected empty entities, got %+v", got)
	}
}
