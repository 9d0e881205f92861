// Package embedding defines the vector-embedding interface used by the
// retrieval layer and the ingestion pipeline, together with an
// OpenAI-compatible implementation.
package embedding

import "context"

// Embedder produces a vector embedding for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
