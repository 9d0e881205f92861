package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/altinsoy/destek/internal/destek/config"
	"github.com/altinsoy/destek/internal/destek/llm"
	"github.com/altinsoy/destek/internal/destek/observability"
	"github.com/altinsoy/destek/internal/destek/store"
)

// promptTemplate composes the grounded prompt: conversation history, the new
// message, and the retrieved passages. Arguments: history, message, passages.
const promptTemplate = `Sen bir müşteri destek asistanısın. Türkçe yanıt ver.

Geçmiş konuşma:
%s

Kullanıcının yeni mesajı:
%s

İlgili dökümanlardan bilgiler:
%s

Cevabını sadece Türkçe ver ve yardımcı ol.`

// PassageRetriever is satisfied by *Retriever; tests inject fakes.
type PassageRetriever interface {
	Retrieve(ctx context.Context, query string) ([]Passage, error)
}

// Responder answers messages the dialogue core could not resolve into a
// structured action. Retrieval problems degrade to fixed apology messages
// rather than errors, since the conversational contract has no error channel.
// A text-generation failure is returned as an error.
type Responder struct {
	retriever PassageRetriever
	provider  llm.Provider
	model     string
	patterns  config.Patterns
	replies   config.Replies
}

// NewResponder wires the retrieval fallback together.
func NewResponder(retriever PassageRetriever, provider llm.Provider, model string, patterns config.Patterns, replies config.Replies) *Responder {
	return &Responder{
		retriever: retriever,
		provider:  provider,
		model:     model,
		patterns:  patterns,
		replies:   replies,
	}
}

// Respond retrieves supporting passages and composes a grounded answer. When
// retrieval is unreachable or yields nothing usable, the fixed apology is
// returned with no sources and generation is skipped entirely. When the
// message carries cancel/return intent, the proactive cancellation offer is
// appended to the generated answer.
func (r *Responder) Respond(ctx context.Context, message string, history []store.Message) (string, []string, error) {
	log := observability.WithTrace(ctx)

	passages, err := r.retriever.Retrieve(ctx, message)
	if err != nil {
		log.Warn("retrieval unavailable, degrading to fixed reply", "err", err)
		return r.replies.RetrievalUnavailable, []string{}, nil
	}

	var docParts []string
	for _, p := range passages {
		if strings.TrimSpace(p.Content) != "" {
			docParts = append(docParts, p.Content)
		}
	}
	if len(docParts) == 0 {
		log.Warn("no usable passages in knowledge base")
		return r.replies.EmptyKnowledgeBase, []string{}, nil
	}

	historyLines := make([]string, 0, len(history))
	for _, m := range history {
		historyLines = append(historyLines, m.Role+": "+m.Content)
	}

	prompt := fmt.Sprintf(promptTemplate,
		strings.Join(historyLines, "\n"),
		message,
		strings.Join(docParts, "\n"),
	)

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model:       r.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", nil, fmt.Errorf("generate answer: %w", err)
	}
	answer := resp.Content

	if config.ContainsAny(message, r.patterns.CancelIntentWords) {
		answer += r.replies.ProactiveOffer
	}

	sources := make([]string, 0, len(passages))
	for _, p := range passages {
		sources = append(sources, fmt.Sprintf("%s - chunk %d", p.Source, p.Chunk))
	}
	return answer, sources, nil
}
