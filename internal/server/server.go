// Package server provides the HTTP API for qadesk.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/qadesk/internal/config"
	"github.com/hyperjump/qadesk/internal/indexer"
	"github.com/hyperjump/qadesk/internal/keyword"
	"github.com/hyperjump/qadesk/internal/qa"
	"github.com/hyperjump/qadesk/internal/storage"
	"github.com/hyperjump/qadesk/internal/store"
	"github.com/hyperjump/qadesk/internal/uploads"
	"go.uber.org/zap"
)

// Deps are the components the server exposes. Keyword is optional.
type Deps struct {
	Store   *store.Store
	Indexer *indexer.Indexer
	Engine  *qa.Engine
	Catalog storage.Catalog
	Keyword keyword.ChunkIndex
	Uploads *uploads.Dir
}

// Server is the HTTP server for the qadesk API.
type Server struct {
	deps   Deps
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{deps: deps, config: cfg, logger: logger}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}
	r.Use(middleware.Compress(5, "application/json"))

	r.Post("/upload", s.handleUpload)
	r.Post("/upload/", s.handleUpload)
	r.Post("/query", s.handleQuery)
	r.Post("/query/", s.handleQuery)
	r.Get("/retrieve", s.handleRetrieve)
	r.Get("/search", s.handleSearch)
	r.Get("/documents", s.handleListDocuments)
	r.Get("/documents/{id}", s.handleGetDocument)
	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Handle("/reports/*", http.StripPrefix("/reports/", http.FileServer(http.Dir(s.config.Storage.ReportsDir))))
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs each request at debug level with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
