// Package api exposes the orchestrator over HTTP: a blocking chat
// endpoint, a server-sent-events stream, and health probes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/balizero/zantara-agentic/application"
	"github.com/balizero/zantara-agentic/domain/agent"
	"github.com/balizero/zantara-agentic/infrastructure/logging"
)

// Server wraps the HTTP front of the service.
type Server struct {
	orchestrator *application.Orchestrator
	httpServer   *http.Server
}

// Config configures the HTTP server.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer creates the HTTP server and its routes.
func NewServer(orchestrator *application.Orchestrator, cfg Config) *Server {
	s := &Server{orchestrator: orchestrator}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("GET /v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      requestLogging(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	logging.Info().Add(logging.Str("addr", s.httpServer.Addr)).Msg("http server listening")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the configured handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type chatRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := s.orchestrator.Chat(r.Context(), application.ChatRequest{
		UserID: req.UserID,
		Query:  req.Query,
	})
	if err != nil {
		if errors.Is(err, agent.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "query must not be empty")
			return
		}
		logging.Error().Add(logging.ErrorField(err)).Msg("chat request failed")
		writeError(w, http.StatusBadGateway, "the assistant is temporarily unavailable")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		req.UserID = r.URL.Query().Get("user_id")
		req.Query = r.URL.Query().Get("query")
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, err := s.orchestrator.ChatStream(r.Context(), application.ChatRequest{
		UserID: req.UserID,
		Query:  req.Query,
	})
	if err != nil {
		if errors.Is(err, agent.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "query must not be empty")
			return
		}
		writeError(w, http.StatusBadGateway, "the assistant is temporarily unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
		flusher.Flush()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// requestLogging logs method, path, status, and latency per request.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.Info().
			Add(logging.Str("method", r.Method)).
			Add(logging.Str("path", r.URL.Path)).
			Add(logging.Str("status", fmt.Sprintf("%d", rec.status))).
			Add(logging.Duration(time.Since(start))).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the wrapped writer so SSE works through the logger.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
