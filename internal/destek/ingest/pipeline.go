package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/altinsoy/destek/common/retry"
	"github.com/altinsoy/destek/internal/destek/embedding"
	"github.com/altinsoy/destek/internal/destek/store"
)

// DocumentWriter is the slice of the store the pipeline needs.
type DocumentWriter interface {
	ReplaceDocuments(ctx context.Context, source string, docs []store.Document) error
}

// Config controls the chunking geometry.
type Config struct {
	// ChunkSize and ChunkOverlap are in runes. Defaults: 800 / 100.
	ChunkSize    int
	ChunkOverlap int
}

// Pipeline loads, splits, embeds, and stores a knowledge-base document.
type Pipeline struct {
	writer   DocumentWriter
	embedder embedding.Embedder
	cfg      Config
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(writer DocumentWriter, embedder embedding.Embedder, cfg Config) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 800
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = 100
	}
	return &Pipeline{writer: writer, embedder: embedder, cfg: cfg}
}

// FindDocument returns the first existing path among the candidates, so the
// same binary works across deployment layouts (container volume mount, local
// checkout).
func FindDocument(candidates []string) (string, error) {
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("document not found in any of the expected locations: %v", candidates)
}

// Run ingests the document at path under the given source name: split into
// overlapping chunks, embed each chunk, and atomically replace the source's
// chunks in the store. Embedding calls are retried with backoff; this is the
// offline batch path, not the chat-serving path.
func (p *Pipeline) Run(ctx context.Context, path, source string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read document: %w", err)
	}

	chunks := SplitText(string(data), p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	slog.Info("document split", "path", path, "chunks", len(chunks))

	retryCfg := retry.Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}

	docs := make([]store.Document, 0, len(chunks))
	for i, chunk := range chunks {
		var vec []float32
		err := retry.Do(ctx, retryCfg, func() error {
			var embedErr error
			vec, embedErr = p.embedder.Embed(ctx, chunk)
			return embedErr
		})
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		docs = append(docs, store.Document{
			ID:        uuid.New().String(),
			Source:    source,
			Chunk:     i,
			Content:   chunk,
			Embedding: vec,
		})
	}

	if err := p.writer.ReplaceDocuments(ctx, source, docs); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	slog.Info("document ingested", "source", source, "chunks", len(docs))
	return len(docs), nil
}
