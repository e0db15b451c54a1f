// Package server exposes the game and the species browser over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arcanaland/dexmatch/internal/catalog"
	"github.com/arcanaland/dexmatch/internal/game"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Options wires the server's collaborators.
type Options struct {
	// Catalog is the loaded species catalog. It is nil when CatalogErr is set.
	Catalog    *catalog.Catalog
	CatalogErr error
	// Loader backs the /dex endpoints.
	Loader *catalog.Loader
	// Dealer builds decks for every WebSocket session.
	Dealer game.Dealer
	// SessionOptions are applied to every new session after the server's own notifier.
	SessionOptions []game.Option
	Logger         *zap.Logger
}

// Server is the HTTP shell around the game and the browser.
type Server struct {
	opts   Options
	logger *zap.Logger
	engine *gin.Engine

	// base context for loads started by /dex/next; replaced by Run
	ctx context.Context
}

// New builds the router.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	s := &Server{opts: opts, logger: logger, engine: r, ctx: context.Background()}

	r.GET("/healthz", s.handleHealth)
	r.GET("/difficulties", s.handleDifficulties)
	r.GET("/dex", s.handleDexState)
	r.POST("/dex/next", s.handleDexNext)
	r.GET("/ws", s.handleWebSocket)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.ctx = ctx
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"species": s.opts.Catalog.Len(),
	})
}

func (s *Server) handleDifficulties(c *gin.Context) {
	configs := make([]game.Config, 0, len(game.DifficultyNames))
	for _, name := range game.DifficultyNames {
		configs = append(configs, game.Difficulties[name])
	}
	resp := gin.H{
		"difficulties": configs,
		"available":    s.opts.CatalogErr == nil,
	}
	if s.opts.CatalogErr != nil {
		resp["error"] = s.opts.CatalogErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDexState(c *gin.Context) {
	if s.opts.CatalogErr != nil || s.opts.Loader == nil {
		s.catalogUnavailable(c)
		return
	}
	c.JSON(http.StatusOK, s.opts.Loader.State())
}

// handleDexNext starts a batch in the background. It answers 202 when a load started and 200
// when the request was ignored because a batch is in flight or the catalog is exhausted.
func (s *Server) handleDexNext(c *gin.Context) {
	if s.opts.CatalogErr != nil || s.opts.Loader == nil {
		s.catalogUnavailable(c)
		return
	}

	state := s.opts.Loader.State()
	if state.Loading || state.Exhausted {
		c.JSON(http.StatusOK, gin.H{"started": false, "state": state})
		return
	}

	go s.opts.Loader.RequestNextBatch(s.ctx)
	c.JSON(http.StatusAccepted, gin.H{"started": true})
}

func (s *Server) catalogUnavailable(c *gin.Context) {
	msg := "catalog unavailable"
	if s.opts.CatalogErr != nil {
		msg = s.opts.CatalogErr.Error()
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg})
}
