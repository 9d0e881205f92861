// Package config loads the runtime configuration for the destek chat service.
//
// Endpoint and credential settings come from environment variables; the
// language-specific pattern tables used by the dialogue core come from an
// optional YAML file layered over compiled-in defaults (see patterns.go).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/altinsoy/destek/common/environment"
)

// Config holds everything the chat server needs at startup.
type Config struct {
	// HTTPAddr is the listen address of the chat API server.
	HTTPAddr string

	// DBPath is the path of the SQLite database file holding sessions,
	// messages, the action audit trail, and the document collection.
	DBPath string

	// OpenAIAPIKey authenticates both the completion and the embedding calls.
	OpenAIAPIKey string
	// OpenAIBaseURL overrides the API endpoint (local proxies, compatible APIs).
	OpenAIBaseURL string
	// ChatModel is the completion model used by the retrieval responder.
	ChatModel string
	// EmbeddingModel is the model used to embed queries and document chunks.
	EmbeddingModel string

	// OrderAPIURL is the base URL of the order-cancellation service.
	OrderAPIURL string
	// OrderAPITimeout bounds each cancellation call. Never retried.
	OrderAPITimeout time.Duration

	// PatternsPath optionally points at a YAML pattern-table file that
	// overrides the compiled-in Turkish defaults.
	PatternsPath string

	// RetrievalTopK is the number of passages fetched per fallback answer.
	RetrievalTopK int
	// HistoryScanDepth is how many recent user turns the context aggregator
	// re-scans when the current message is missing cancellation details.
	HistoryScanDepth int

	// LogLevel and LogFormat configure slog ("info"/"debug"..., "text"/"json").
	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment. All missing required
// variables are collected and reported in a single error so the operator sees
// the complete list at once.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:         environment.StringOr("DESTEK_HTTP_ADDR", ":8001"),
		DBPath:           environment.StringOr("DESTEK_DB_PATH", "destek.db"),
		OpenAIBaseURL:    environment.StringOr("OPENAI_BASE_URL", ""),
		ChatModel:        environment.StringOr("DESTEK_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:   environment.StringOr("DESTEK_EMBEDDING_MODEL", "text-embedding-3-small"),
		OrderAPITimeout:  environment.DurationOr("ORDER_API_TIMEOUT", 8*time.Second),
		PatternsPath:     environment.StringOr("DESTEK_PATTERNS", ""),
		RetrievalTopK:    environment.IntOr("DESTEK_RETRIEVAL_TOP_K", 4),
		HistoryScanDepth: environment.IntOr("DESTEK_HISTORY_SCAN_DEPTH", 10),
		LogLevel:         environment.StringOr("DESTEK_LOG_LEVEL", "info"),
		LogFormat:        environment.StringOr("DESTEK_LOG_FORMAT", "text"),
	}

	var missing []string
	var err error
	if cfg.OpenAIAPIKey, err = environment.RequiredString("OPENAI_API_KEY"); err != nil {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if cfg.OrderAPIURL, err = environment.RequiredString("ORDER_API_URL"); err != nil {
		missing = append(missing, "ORDER_API_URL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}

	cfg.OrderAPIURL = strings.TrimRight(cfg.OrderAPIURL, "/")
	return cfg, nil
}
