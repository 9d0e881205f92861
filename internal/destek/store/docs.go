package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Document is one embedded chunk of the knowledge base.
type Document struct {
	ID        string
	Source    string
	Chunk     int
	Content   string
	Embedding []float32
}

// ReplaceDocuments deletes the existing chunks for the given source and
// inserts the new set. The ingest pipeline calls this once per run so a
// re-ingest never leaves stale chunks behind.
func (s *Store) ReplaceDocuments(ctx context.Context, source string, docs []Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace documents: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE source = ?", source); err != nil {
		return fmt.Errorf("delete old documents: %w", err)
	}
	for _, d := range docs {
		var embJSON []byte
		if d.Embedding != nil {
			embJSON, err = json.Marshal(d.Embedding)
			if err != nil {
				return fmt.Errorf("marshal embedding for chunk %d: %w", d.Chunk, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO documents (id, source, chunk, content, embedding) VALUES (?, ?, ?, ?, ?)",
			d.ID, d.Source, d.Chunk, d.Content, embJSON,
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", d.Chunk, err)
		}
	}
	return tx.Commit()
}

// AllDocuments loads every embedded chunk of the knowledge base. The retrieval
// layer computes cosine similarity over the returned slice in Go.
func (s *Store) AllDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, source, chunk, content, embedding FROM documents WHERE embedding IS NOT NULL",
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var embJSON []byte
		if err := rows.Scan(&d.ID, &d.Source, &d.Chunk, &d.Content, &embJSON); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if len(embJSON) > 0 {
			if err := json.Unmarshal(embJSON, &d.Embedding); err != nil {
				return nil, fmt.Errorf("unmarshal embedding %s: %w", d.ID, err)
			}
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
