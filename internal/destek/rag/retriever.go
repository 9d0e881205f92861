package rag

import (
	"context"
	"fmt"

	"github.com/altinsoy/destek/internal/destek/embedding"
)

// Retriever embeds a query and returns its top-k supporting passages.
type Retriever struct {
	embedder embedding.Embedder
	searcher *VectorSearcher
	topK     int
}

// NewRetriever creates a Retriever fetching up to topK passages per query.
func NewRetriever(embedder embedding.Embedder, searcher *VectorSearcher, topK int) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	return &Retriever{embedder: embedder, searcher: searcher, topK: topK}
}

// Retrieve embeds the query and runs the similarity search.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Passage, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.searcher.Search(ctx, vec, r.topK)
}
