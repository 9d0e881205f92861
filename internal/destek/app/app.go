// Package app wires the destek chat service together and runs it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/altinsoy/destek/internal/destek/config"
	"github.com/altinsoy/destek/internal/destek/dialogue"
	"github.com/altinsoy/destek/internal/destek/embedding"
	"github.com/altinsoy/destek/internal/destek/extract"
	"github.com/altinsoy/destek/internal/destek/httpapi"
	"github.com/altinsoy/destek/internal/destek/llm"
	"github.com/altinsoy/destek/internal/destek/orders"
	"github.com/altinsoy/destek/internal/destek/rag"
	"github.com/altinsoy/destek/internal/destek/store"
)

// App is the assembled chat service.
type App struct {
	store  *store.Store
	server *httpapi.Server
}

// New constructs the whole dependency graph from the loaded configuration.
// Everything is injected explicitly; there are no package-level singletons.
func New(cfg *config.Config) (*App, error) {
	tables, err := config.LoadTables(cfg.PatternsPath)
	if err != nil {
		return nil, fmt.Errorf("load pattern tables: %w", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	extractor, err := extract.New(tables.Patterns)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("build extractor: %w", err)
	}

	classifier := dialogue.NewClassifier(st, tables.Patterns)
	aggregator := dialogue.NewAggregator(st, extractor, tables.Patterns, cfg.HistoryScanDepth)

	invoker := orders.NewInvoker(orders.InvokerConfig{
		BaseURL: cfg.OrderAPIURL,
		Timeout: cfg.OrderAPITimeout,
	}, tables.Replies)

	embedder := embedding.NewOpenAI(embedding.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.EmbeddingModel,
	})
	provider := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ChatModel,
	})

	searcher := rag.NewVectorSearcher(st)
	retriever := rag.NewRetriever(embedder, searcher, cfg.RetrievalTopK)
	responder := rag.NewResponder(retriever, provider, cfg.ChatModel, tables.Patterns, tables.Replies)

	resolver := dialogue.NewResolver(st, extractor, aggregator, classifier, invoker, responder, tables.Replies)

	return &App{
		store:  st,
		server: httpapi.New(cfg.HTTPAddr, resolver),
	}, nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

// Stop releases all resources.
func (a *App) Stop() {
	a.server.Stop()
	if err := a.store.Close(); err != nil {
		slog.Warn("close store", "err", err)
	}
}
