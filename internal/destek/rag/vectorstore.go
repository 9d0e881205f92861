// Package rag implements the retrieval-augmented fallback path: similarity
// search over the embedded knowledge base and grounded answer composition via
// the text-generation provider.
package rag

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/altinsoy/destek/internal/destek/store"
)

// Passage is one retrieved knowledge-base chunk.
type Passage struct {
	Content string
	Source  string
	Chunk   int
	Score   float64
}

// DocumentSource is the slice of the store the searcher needs.
type DocumentSource interface {
	AllDocuments(ctx context.Context) ([]store.Document, error)
}

// VectorSearcher ranks document chunks by cosine similarity against a query
// embedding. Similarity is computed in Go over a full scan of the stored
// embeddings; the knowledge base is a few hundred chunks at most.
type VectorSearcher struct {
	docs DocumentSource
}

// NewVectorSearcher creates a searcher over the given document source.
func NewVectorSearcher(docs DocumentSource) *VectorSearcher {
	return &VectorSearcher{docs: docs}
}

// Search returns the top-k passages most similar to the query embedding.
// Chunks with a dimension mismatch are skipped. An empty knowledge base
// yields an empty slice, not an error.
func (v *VectorSearcher) Search(ctx context.Context, query []float32, k int) ([]Passage, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	docs, err := v.docs.AllDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	passages := make([]Passage, 0, len(docs))
	for _, d := range docs {
		score, ok := cosineSimilarity(query, d.Embedding)
		if !ok {
			continue
		}
		passages = append(passages, Passage{
			Content: d.Content,
			Source:  d.Source,
			Chunk:   d.Chunk,
			Score:   score,
		})
	}

	sort.SliceStable(passages, func(i, j int) bool { return passages[i].Score > passages[j].Score })
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages, nil
}

// cosineSimilarity returns the cosine of the angle between a and b, and false
// when the vectors cannot be compared (length mismatch or zero magnitude).
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
