package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yangwenmai/storeforge/internal/model"
	"github.com/yangwenmai/storeforge/internal/publish"
	"github.com/yangwenmai/storeforge/internal/store"
)

// maxRequestBody is the maximum allowed request body size (1 MB).
const maxRequestBody int64 = 1 << 20

// Publisher pushes completed stores to the commerce platform.
type Publisher interface {
	Publish(ctx context.Context, storeID string) (*publish.Result, error)
	ApplyTheme(ctx context.Context, storeID string) (int64, error)
}

// BackgroundGenerator renders branded background images.
type BackgroundGenerator interface {
	GenerateBrandedBackground(ctx context.Context, colors map[string]string, style model.ThemeStyle) string
}

// Server holds the HTTP handlers and dependencies.
type Server struct {
	store       store.StoreRepository
	publisher   Publisher
	backgrounds BackgroundGenerator
	metrics     http.Handler
	mediaDir    string
	corsOrigin  string
	router      chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithPublisher enables the publish and theme endpoints.
func WithPublisher(p Publisher) Option { return func(s *Server) { s.publisher = p } }

// WithBackgrounds enables POST /api/backgrounds.
func WithBackgrounds(b BackgroundGenerator) Option { return func(s *Server) { s.backgrounds = b } }

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithMedia serves files under dir at /media/.
func WithMedia(dir string) Option { return func(s *Server) { s.mediaDir = dir } }

// WithCORSOrigin sets the allowed origin. Defaults to "*".
func WithCORSOrigin(origin string) Option { return func(s *Server) { s.corsOrigin = origin } }

// New creates a new API server.
func New(st store.StoreRepository, opts ...Option) *Server {
	srv := &Server{store: st, corsOrigin: "*"}
	for _, o := range opts {
		o(srv)
	}
	srv.router = srv.routes()
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer, s.cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	if s.mediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(limitBody)
		r.Route("/stores", func(r chi.Router) {
			r.Post("/", s.handleCreateStore)
			r.Get("/", s.handleListStores)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetStore)
				r.Delete("/", s.handleDeleteStore)
				r.Get("/progress", s.handleProgress)
				r.Post("/generate", s.handleGenerate)
				r.Post("/publish", s.handlePublish)
				r.Post("/theme", s.handleApplyTheme)
			})
		})
		r.Post("/backgrounds", s.handleBackground)
	})
	return r
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		if s.corsOrigin != "*" {
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed", time.Since(start).Round(time.Microsecond).String(),
		)
	})
}

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
