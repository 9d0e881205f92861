// Package httpapi exposes the chat service over HTTP: POST /chat and
// GET /health.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/altinsoy/destek/common/trace"
	"github.com/altinsoy/destek/internal/destek/dialogue"
	"github.com/altinsoy/destek/internal/destek/observability"
)

// TurnResolver is satisfied by *dialogue.Resolver; tests inject fakes.
type TurnResolver interface {
	Handle(ctx context.Context, sessionID, message string) (*dialogue.Result, error)
}

// chatRequest is the JSON body of POST /chat.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// chatResponse is the JSON body returned by POST /chat. tool_calls carries
// the audit records of any cancellation executed during this turn.
type chatResponse struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	ToolCalls []any    `json:"tool_calls"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the chat API.
type Server struct {
	addr     string
	resolver TurnResolver
	server   *http.Server
	mux      *http.ServeMux
}

// New creates and configures the HTTP server (does not start it).
func New(addr string, resolver TurnResolver) *Server {
	mux := http.NewServeMux()
	s := &Server{addr: addr, resolver: resolver, mux: mux}
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/health", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler so the server can be tested without a
// live network listener (e.g. with httptest.NewRecorder).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start begins listening in the background. Blocks until the listener is
// established so the caller knows the port is open before returning.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("chat server: listen %s: %w", s.addr, err)
	}

	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 150 * time.Second, // a turn may wait on the LLM call
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("chat server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("chat server stopped", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("chat server shutdown error", "err", err)
		}
	}()

	return nil
}

// Stop shuts down the HTTP server.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Warn("chat server shutdown error", "err", err)
	}
}

// handleHealth responds with the fixed health payload. Idempotent.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleChat runs one turn of the dialogue core.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session_id and message are required"})
		return
	}

	ctx := trace.WithTraceID(r.Context(), trace.GenerateID())
	log := observability.WithTrace(ctx)
	log.Info("chat request", "session_id", req.SessionID)

	result, err := s.resolver.Handle(ctx, req.SessionID, req.Message)
	if err != nil {
		log.Error("turn failed", "session_id", req.SessionID, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	toolCalls := make([]any, 0, len(result.ToolCalls))
	for _, tc := range result.ToolCalls {
		toolCalls = append(toolCalls, tc)
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    result.Answer,
		Sources:   result.Sources,
		ToolCalls: toolCalls,
	})
}

// setCORS mirrors the permissive policy of the upstream deployment: the chat
// widget is served from a different origin.
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("httpapi: failed to encode JSON response", "err", err)
	}
}
