// Package server exposes the search service over HTTP: a single synchronous
// GET /search endpoint plus a liveness probe.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hexline/magsearch/internal/catalog"
	"github.com/hexline/magsearch/internal/config"
	"github.com/hexline/magsearch/internal/embed"
	"github.com/hexline/magsearch/internal/store"
)

// Server is the HTTP facade over the hybrid query engine.
type Server struct {
	cfg      config.ServerConfig
	limit    int
	store    *store.Store
	embedder embed.Embedder
	logger   *slog.Logger
	engine   *gin.Engine
}

// New creates the HTTP server. The embedder is used to embed each query
// string before handing it to the store's hybrid search.
func New(cfg config.ServerConfig, searchCfg config.SearchConfig, st *store.Store, emb embed.Embedder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		cfg:      cfg,
		limit:    searchCfg.MaxResults,
		store:    st,
		embedder: emb,
		logger:   logger,
		engine:   engine,
	}

	engine.Use(s.requestLogger(), gin.Recovery())
	engine.GET("/search", s.handleSearch)
	engine.GET("/healthz", s.handleHealth)
	return s
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.cfg.Addr(),
		Handler:     s.engine,
		ReadTimeout: s.cfg.ReadTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server_listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// handleSearch embeds the query string and runs the hybrid query.
// q is required but may be empty; an empty q matches the whole catalog.
func (s *Server) handleSearch(c *gin.Context) {
	q, ok := c.GetQuery("q")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter: q"})
		return
	}

	queryVec, err := s.embedder.Embed(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results, err := s.store.SearchHybrid(c.Request.Context(), q, queryVec, s.limit)
	if err != nil {
		s.logger.Error("search_failed", slog.String("q", q), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	// Rounding happens here, in the projection only; the store ranked on
	// full precision.
	for i := range results {
		results[i].Similarity = catalog.RoundSimilarity(results[i].Similarity)
	}
	c.JSON(http.StatusOK, results)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger logs one line per request with a generated request id.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set("request_id", requestID)

		c.Next()

		s.logger.Info("http_request",
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)))
	}
}
