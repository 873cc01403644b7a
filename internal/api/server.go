package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/assistant-tools/internal/config"
	"github.com/JakeFAU/assistant-tools/internal/knowledge"
	"github.com/JakeFAU/assistant-tools/internal/metrics"
	"github.com/JakeFAU/assistant-tools/internal/progress"
)

// Scraper is the web-scrape workflow consumed by the server.
type Scraper interface {
	Scrape(ctx context.Context, input string, emitter *progress.Emitter) string
}

// KnowledgeQuerier is the knowledge-base workflow consumed by the server.
type KnowledgeQuerier interface {
	Query(ctx context.Context, query string, opts knowledge.QueryOptions, emitter *progress.Emitter) []knowledge.Document
}

// Server wires HTTP handlers to the tool workflows.
type Server struct {
	router    chi.Router
	scraper   Scraper
	kb        KnowledgeQuerier
	hostSinks []progress.Sink
	cfg       config.Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. hostSinks are
// attached to every invocation in addition to the per-request stream sink.
func NewServer(
	scraper Scraper,
	kb KnowledgeQuerier,
	cfg config.Config,
	logger *zap.Logger,
	hostSinks ...progress.Sink,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		scraper:   scraper,
		kb:        kb,
		hostSinks: hostSinks,
		cfg:       cfg,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1/tools", func(r chi.Router) {
		r.Post("/scrape", s.scrapeTool)
		r.Post("/knowledge/query", s.knowledgeTool)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type scrapeRequest struct {
	Text string `json:"text"`
}

type knowledgeRequest struct {
	Query          string         `json:"query"`
	K              int            `json:"k"`
	FilterDict     map[string]any `json:"filter_dict"`
	ScoreThreshold float64        `json:"score_threshold"`
}

func (s *Server) scrapeTool(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	stream := newStreamSink(w)
	emitter := s.newEmitter(stream)

	result := s.scraper.Scrape(r.Context(), req.Text, emitter)
	metrics.ObserveToolInvocation("scrape", "ok")

	if err := stream.writeResult(map[string]string{"content": result}); err != nil {
		s.logger.Warn("scrape result write failed", zap.Error(err))
	}
}

func (s *Server) knowledgeTool(w http.ResponseWriter, r *http.Request) {
	var req knowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	stream := newStreamSink(w)
	emitter := s.newEmitter(stream)

	docs := s.kb.Query(r.Context(), req.Query, knowledge.QueryOptions{
		K:              req.K,
		Filter:         req.FilterDict,
		ScoreThreshold: req.ScoreThreshold,
	}, emitter)
	metrics.ObserveToolInvocation("knowledge_query", "ok")

	if docs == nil {
		docs = []knowledge.Document{}
	}
	if err := stream.writeResult(map[string]any{"results": docs}); err != nil {
		s.logger.Warn("knowledge result write failed", zap.Error(err))
	}
}

// newEmitter combines the response stream with any host-wide sinks. The
// stream sink comes first so clients see each event before it is counted.
func (s *Server) newEmitter(stream *streamSink) *progress.Emitter {
	sinks := append([]progress.Sink{stream}, s.hostSinks...)
	return progress.NewEmitter(progress.MultiSink(sinks...), progress.WithLogger(s.logger))
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
