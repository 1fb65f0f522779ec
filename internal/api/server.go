// Package api provides the HTTP server for the gateway. It wires the Gin
// engine, middleware and routes, and supports swapping the configuration
// snapshot when the config file changes on disk.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/thinkgate-dev/thinkgate/internal/api/handlers"
	"github.com/thinkgate-dev/thinkgate/internal/api/handlers/openai"
	"github.com/thinkgate-dev/thinkgate/internal/config"
	"github.com/thinkgate-dev/thinkgate/internal/logging"
	"github.com/thinkgate-dev/thinkgate/internal/util"
)

const serviceName = "thinkgate"

// Server represents the main API server. It encapsulates the Gin engine, the
// HTTP server and the shared handler state.
type Server struct {
	engine   *gin.Engine
	server   *http.Server
	handlers *handlers.BaseAPIHandler
	cfg      *config.Config
}

// NewServer creates and initializes a new API server instance.
func NewServer(cfg *config.Config) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logging.GinLogrusLogger())
	engine.Use(logging.GinLogrusRecovery())
	engine.Use(corsMiddleware())

	s := &Server{
		engine:   engine,
		handlers: handlers.NewBaseAPIHandler(cfg),
		cfg:      cfg,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	return s
}

// setupRoutes configures the API routes for the server.
func (s *Server) setupRoutes() {
	openaiHandlers := openai.NewOpenAIAPIHandler(s.handlers)

	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group("/v1")
	v1.Use(s.authMiddleware())
	{
		v1.GET("/models", openaiHandlers.Models)
		v1.POST("/chat/completions", openaiHandlers.ChatCompletions)
	}

	s.engine.NoRoute(handleNotFound)
	s.engine.NoMethod(handleNotFound)
}

// handleHealth reports service liveness together with the current feature
// flag snapshot.
func (s *Server) handleHealth(c *gin.Context) {
	features := s.handlers.Snapshot().Cfg.Features
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"features": gin.H{
			"reasoning_display": features.ReasoningDisplay,
			"thinking_mode":     features.ThinkingMode,
			"detailed_prompts":  features.DetailedPrompts,
		},
	})
}

func handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, handlers.ErrorResponse{
		Error: handlers.ErrorDetail{
			Message: fmt.Sprintf("Not found: %s %s", c.Request.Method, c.Request.URL.Path),
			Type:    "invalid_request_error",
			Code:    http.StatusNotFound,
		},
	})
}

// Handler exposes the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins listening for and serving HTTP requests. It blocks until the
// server stops.
func (s *Server) Start() error {
	log.Infof("starting API server on %s", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the API server without interrupting active
// connections.
func (s *Server) Stop(ctx context.Context) error {
	log.Debug("stopping API server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	log.Debug("API server stopped")
	return nil
}

// UpdateConfig swaps the configuration snapshot used by the handlers. Called
// by the config watcher; requests in flight keep their old snapshot.
func (s *Server) UpdateConfig(cfg *config.Config) {
	if s.cfg.Debug != cfg.Debug {
		util.SetLogLevel(cfg)
		log.Debugf("debug mode updated from %t to %t", s.cfg.Debug, cfg.Debug)
	}
	s.cfg = cfg
	s.handlers.Update(cfg)
	log.Infof("configuration reloaded: %d model aliases, features %+v", len(cfg.ModelAliases), cfg.Features)
}

// corsMiddleware adds CORS headers to every response and short-circuits
// preflight requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware authenticates requests with the configured bearer keys.
// When no keys are configured, all requests are allowed.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKeys := s.handlers.Snapshot().Cfg.APIKeys
		if len(apiKeys) == 0 {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		apiKey := authHeader
		if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			apiKey = parts[1]
		}

		for i := range apiKeys {
			if apiKeys[i] == apiKey {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{
			Error: handlers.ErrorDetail{
				Message: "Invalid API key",
				Type:    "invalid_request_error",
				Code:    http.StatusUnauthorized,
			},
		})
	}
}
