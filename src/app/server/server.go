// Package server provides HTTP server initialization and lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mindscale/src/app/http/handler"
	"mindscale/src/app/middleware"
	"mindscale/src/core/usecase"
	"mindscale/src/infra/config"
)

// Deps are the collaborators the HTTP layer is built on.
type Deps struct {
	Games  handler.Games
	Stats  *usecase.StatsService
	Health *usecase.HealthService
	// Notices serves the websocket endpoint.
	Notices http.Handler
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg    *config.Config
	log    *slog.Logger
	router *gin.Engine
	http   *http.Server

	// Handlers
	healthHandler *handler.HealthHandler
	gameHandler   *handler.GameHandler
	statsHandler  *handler.StatsHandler
	notices       http.Handler
}

// New creates a new Server with all dependencies wired up.
func New(cfg *config.Config, log *slog.Logger, deps Deps) *Server {
	// Set Gin mode based on log level
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router without default middleware
	router := gin.New()

	s := &Server{
		cfg:           cfg,
		log:           log,
		router:        router,
		healthHandler: handler.NewHealthHandler(deps.Health),
		gameHandler:   handler.NewGameHandler(deps.Games, cfg.Game.ExtendDefault),
		statsHandler:  handler.NewStatsHandler(deps.Stats),
		notices:       deps.Notices,
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// Order matters: Recovery should be first to catch all panics
	s.router.Use(middleware.Recovery(s.log))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.CORS(s.cfg.Server.AllowedOrigins))
	s.router.Use(middleware.Logging(s.log))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check endpoints (no auth required)
	s.router.GET("/health", s.healthHandler.Health)
	s.router.GET("/health/detailed", s.healthHandler.DetailedHealth)

	v1 := s.router.Group("/v1")
	{
		// Read-only views
		v1.GET("/groups", s.gameHandler.Active)
		v1.GET("/groups/:group_id", s.gameHandler.Game)
		v1.GET("/groups/:group_id/players", s.gameHandler.Players)
		v1.GET("/groups/:group_id/leaderboard", s.statsHandler.GroupLeaderboard)
		v1.GET("/leaderboard", s.statsHandler.Leaderboard)
		v1.GET("/users/:user_id/stats", s.statsHandler.UserStats)

		// Commands, on behalf of the X-User-Id caller
		cmd := v1.Group("", middleware.Actor())
		cmd.POST("/groups/:group_id/lobby", s.gameHandler.StartLobby)
		cmd.POST("/groups/:group_id/lobby/join", s.gameHandler.Join)
		cmd.POST("/groups/:group_id/lobby/leave", s.gameHandler.Leave)
		cmd.POST("/groups/:group_id/lobby/extend", s.gameHandler.Extend)
		cmd.POST("/groups/:group_id/lobby/start", s.gameHandler.ForceStart)
		cmd.POST("/groups/:group_id/end", s.gameHandler.ForceEnd)
		cmd.POST("/picks", s.gameHandler.Pick)

		if s.notices != nil {
			v1.GET("/ws", gin.WrapH(s.notices))
		}
	}

	// Handle 404
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":       "NOT_FOUND",
				"message":    "The requested resource was not found",
				"request_id": middleware.GetRequestID(c),
			},
		})
	})
}

// setupHTTPServer configures the underlying HTTP server.
func (s *Server) setupHTTPServer() {
	s.http = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}

// Run starts the HTTP server and blocks until shutdown.
// It handles graceful shutdown on SIGINT/SIGTERM.
func (s *Server) Run() error {
	// Channel to receive shutdown signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	errCh := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.log.Info("starting HTTP server",
			"addr", s.cfg.Server.Addr(),
		)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-quit:
		s.log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	// Graceful shutdown
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.log.Info("shutting down server", "timeout", s.cfg.Server.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("server stopped gracefully")
	return nil
}

// Router returns the Gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// WaitForReady waits until the server is ready to accept connections.
// Useful for integration tests.
func (s *Server) WaitForReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", s.cfg.Server.Addr()))
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}
