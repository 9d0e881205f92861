package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/altinsoy/destek/common/environment"
	"github.com/altinsoy/destek/internal/destek/embedding"
	"github.com/altinsoy/destek/internal/destek/ingest"
	"github.com/altinsoy/destek/internal/destek/observability"
	"github.com/altinsoy/destek/internal/destek/store"
)

// defaultCandidates are the document locations tried in order when no -doc
// flag is given, covering both container volume mounts and local checkouts.
var defaultCandidates = []string{
	"/app/docs/Chatbot_SSS.md",
	"/docs/Chatbot_SSS.md",
	"../docs/Chatbot_SSS.md",
	"docs/Chatbot_SSS.md",
}

func main() {
	docPath := flag.String("doc", "", "path of the document to ingest (default: well-known locations)")
	source := flag.String("source", "", "source name stored with each chunk (default: document file name)")
	chunkSize := flag.Int("chunk-size", 800, "chunk size in characters")
	chunkOverlap := flag.Int("chunk-overlap", 100, "overlap between consecutive chunks")
	flag.Parse()

	observability.Setup(
		environment.StringOr("DESTEK_LOG_LEVEL", "info"),
		environment.StringOr("DESTEK_LOG_FORMAT", "text"),
	)

	// The batch job only talks to the embedding API and the local store; the
	// chat server's full configuration is not required here.
	apiKey, err := environment.RequiredString("OPENAI_API_KEY")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	path := *docPath
	if path == "" {
		path, err = ingest.FindDocument(defaultCandidates)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	name := *source
	if name == "" {
		name = filepath.Base(path)
	}

	st, err := store.New(environment.StringOr("DESTEK_DB_PATH", "destek.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	embedder := embedding.NewOpenAI(embedding.OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: environment.StringOr("OPENAI_BASE_URL", ""),
		Model:   environment.StringOr("DESTEK_EMBEDDING_MODEL", "text-embedding-3-small"),
	})

	pipeline := ingest.NewPipeline(st, embedder, ingest.Config{
		ChunkSize:    *chunkSize,
		ChunkOverlap: *chunkOverlap,
	})

	n, err := pipeline.Run(context.Background(), path, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d chunks from %s\n", n, strings.TrimSpace(path))
}
