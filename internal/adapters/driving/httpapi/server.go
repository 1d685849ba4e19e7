// Package httpapi is the HTTP surface of the helpdesk: document ingestion
// for the dashboard, the inbound mail webhook and slug availability.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Default limits.
const (
	DefaultMaxUploadBytes  = 64 << 20
	DefaultMaxWebhookBytes = 1 << 20
	shutdownTimeout        = 10 * time.Second
)

// Ports aggregates the driving ports the HTTP API calls.
type Ports struct {
	// Ingest handles document uploads. Without it the route returns 503.
	Ingest driving.IngestService

	// Reply answers inbound webhooks. Without it the webhook route returns 503.
	Reply driving.ReplyService

	// Tenants backs slug checks. Without it the route returns 503.
	Tenants driving.TenantService

	// Verifier checks webhook signatures. Without it every webhook is rejected.
	Verifier driven.WebhookVerifier

	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// Config holds HTTP server configuration.
type Config struct {
	// AllowedOrigins is the CORS allow-list. Empty disables CORS headers.
	AllowedOrigins []string

	// MaxUploadBytes bounds one ingestion request (default 64 MiB).
	MaxUploadBytes int64

	// MaxWebhookBytes bounds one webhook payload (default 1 MiB).
	MaxWebhookBytes int64
}

// Server routes HTTP requests to the core services.
type Server struct {
	ports  Ports
	cfg    Config
	engine *gin.Engine
}

// NewServer builds the router.
func NewServer(ports Ports, cfg Config) (*Server, error) {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.MaxWebhookBytes <= 0 {
		cfg.MaxWebhookBytes = DefaultMaxWebhookBytes
	}

	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{ports: ports, cfg: cfg, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLogger())
	if len(cfg.AllowedOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	api.GET("/orgs/check-slug", s.handleCheckSlug)
	api.POST("/orgs/:slug/documents/ingest", s.handleIngest)
	api.POST("/webhooks/inbound", s.handleInbound)

	if s.ports.MCP != nil {
		s.engine.Any("/mcp", gin.WrapH(s.ports.MCP))
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
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
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request through the application logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http: %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
