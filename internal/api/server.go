package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jarvis-docs/server/internal/documents"
	"github.com/jarvis-docs/server/internal/logger"
	"github.com/jarvis-docs/server/internal/rag"
)

// Ingester runs the document ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, data []byte, title string) (*documents.IngestResult, error)
}

// Searcher runs retrieval fusion over the document index.
type Searcher interface {
	Search(ctx context.Context, query string, k int, wantImages bool) ([]rag.SearchHit, []string, error)
}

// Generator runs one of the generation strategies.
type Generator interface {
	Answer(ctx context.Context, query string, contextBlocks []string) (string, error)
	FullReadSummarize(ctx context.Context, contextBlocks []string, goal string) (string, error)
}

// Memory is the per-user conversational store.
type Memory interface {
	Remember(ctx context.Context, userID, role, text string) error
	Recall(ctx context.Context, userID, query string, n int) []string
}

// Transcriber converts uploaded audio into text.
type Transcriber interface {
	Available() bool
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Server exposes the ingest/chat/transcribe surface over HTTP.
type Server struct {
	ingester    Ingester
	searcher    Searcher
	generator   Generator
	memory      Memory
	transcriber Transcriber
	defaultK    int
}

// NewServer creates a new API server. defaultK is the retrieval depth
// used when a chat request does not carry its own.
func NewServer(ingester Ingester, searcher Searcher, generator Generator, memory Memory, transcriber Transcriber, defaultK int) *Server {
	if defaultK <= 0 {
		defaultK = 6
	}
	return &Server{
		ingester:    ingester,
		searcher:    searcher,
		generator:   generator,
		memory:      memory,
		transcriber: transcriber,
		defaultK:    defaultK,
	}
}

// Router returns the HTTP handler for the API surface.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /ingest", s.withRequestID(s.handleIngest))
	mux.HandleFunc("POST /chat", s.withRequestID(s.handleChat))
	mux.HandleFunc("POST /transcribe", s.withRequestID(s.handleTranscribe))
	return mux
}

// withRequestID tags each request with a correlation id for the logs.
func (s *Server) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()[:8]
		logger.Debug("[%s] %s %s", id, r.Method, r.URL.Path)
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
