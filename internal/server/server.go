// Package server provides the HTTP API for DocuMind.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/documind/documind/internal/app"
	"github.com/documind/documind/internal/config"
	"github.com/documind/documind/internal/upload"
)

// DirWatcher is the watch-management surface the server exposes over HTTP.
type DirWatcher interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the DocuMind API.
type Server struct {
	app     *app.App
	uploads *upload.Store
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server

	// watch is nil when directory watching is disabled.
	watch      DirWatcher
	configPath string
	watchCfgMu sync.Mutex
}

// NewServer creates a server with the given dependencies. watch may be nil;
// configPath may be empty when watch changes need not be persisted.
func NewServer(
	a *app.App,
	uploads *upload.Store,
	cfg *config.Config,
	watch DirWatcher,
	configPath string,
	logger *zap.Logger,
) *Server {
	return &Server{
		app:        a,
		uploads:    uploads,
		config:     cfg,
		watch:      watch,
		configPath: configPath,
		logger:     logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/documents", s.handleIngestDocument)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Post("/api/v1/upload", s.handleUpload)
	r.Post("/api/v1/query", s.handleQuery)
	r.Get("/api/v1/cache/stats", s.handleCacheStats)
	r.Delete("/api/v1/cache/expired", s.handleClearExpiredCache)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
