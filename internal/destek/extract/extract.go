// Package extract derives cancellation entities (order number, reason) from
// free-text chat messages. The extractor is a pure function over its pattern
// tables; it keeps no state and touches no I/O.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/altinsoy/destek/internal/destek/config"
)

// Entities is the per-message extraction result. Empty string means absent.
type Entities struct {
	OrderNumber string
	Reason      string
}

// Extractor extracts order numbers and cancellation reasons according to a
// compiled pattern table. Safe for concurrent use.
type Extractor struct {
	orderRe        *regexp.Regexp
	reasonMarkerRe *regexp.Regexp
	reasonKeywords *regexp.Regexp
	orderWords     []string
	maxShortWords  int
	numericRe      *regexp.Regexp
}

// New compiles the given pattern table into an Extractor.
func New(p config.Patterns) (*Extractor, error) {
	orderRe, err := regexp.Compile(p.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("compile order number pattern: %w", err)
	}
	markerRe, err := regexp.Compile(p.ReasonMarker)
	if err != nil {
		return nil, fmt.Errorf("compile reason marker pattern: %w", err)
	}
	if markerRe.NumSubexp() < 1 {
		return nil, fmt.Errorf("reason marker pattern must capture the reason text")
	}

	quoted := make([]string, 0, len(p.ReasonKeywords))
	for _, kw := range p.ReasonKeywords {
		if kw != "" {
			quoted = append(quoted, regexp.QuoteMeta(kw))
		}
	}
	var keywordsRe *regexp.Regexp
	if len(quoted) > 0 {
		keywordsRe, err = regexp.Compile("(?i)(" + strings.Join(quoted, "|") + ")")
		if err != nil {
			return nil, fmt.Errorf("compile reason keywords: %w", err)
		}
	}

	maxWords := p.ShortReasonMaxWords
	if maxWords <= 0 {
		maxWords = 3
	}

	return &Extractor{
		orderRe:        orderRe,
		reasonMarkerRe: markerRe,
		reasonKeywords: keywordsRe,
		orderWords:     p.OrderWords,
		maxShortWords:  maxWords,
		numericRe:      regexp.MustCompile(`^\d+$`),
	}, nil
}

// Extract returns the order number and reason found in text. Either field may
// be empty.
//
// The order number is the first match of the order pattern; no checksum or
// existence validation is applied.
//
// The reason is resolved in priority order: explicit reason-marker text, a
// known reason keyword, then the whole trimmed message when it is short, not
// purely numeric, and free of order-related words. The last rule lets a bare
// reply like "hasarlı" or "fikrim değişti" count as a reason, while the
// numeric guard keeps bare order numbers from being misread as reasons.
func (e *Extractor) Extract(text string) Entities {
	var out Entities

	if m := e.orderRe.FindString(text); m != "" {
		out.OrderNumber = m
	}

	if m := e.reasonMarkerRe.FindStringSubmatch(text); m != nil {
		out.Reason = strings.TrimSpace(m[1])
		return out
	}
	if e.reasonKeywords != nil {
		if m := e.reasonKeywords.FindString(text); m != "" {
			out.Reason = m
			return out
		}
	}

	trimmed := strings.TrimSpace(text)
	if len(strings.Fields(trimmed)) <= e.maxShortWords &&
		trimmed != "" &&
		!e.numericRe.MatchString(trimmed) &&
		!config.ContainsAny(trimmed, e.orderWords) {
		out.Reason = trimmed
	}
	return out
}

// PurelyNumeric reports whether s is nothing but digits once trimmed. The
// resolver uses it to keep a bare order number from passing as a reason.
func (e *Extractor) PurelyNumeric(s string) bool {
	return e.numericRe.MatchString(strings.TrimSpace(s))
}
