package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/sandpad/internal/api/http"
	"github.com/GriffinCanCode/sandpad/internal/api/middleware"
	"github.com/GriffinCanCode/sandpad/internal/domain/studio"
	"github.com/GriffinCanCode/sandpad/internal/infrastructure/config"
	"github.com/GriffinCanCode/sandpad/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sandpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandpad/internal/sandbox"
	"github.com/GriffinCanCode/sandpad/internal/templates"
	"github.com/GriffinCanCode/sandpad/internal/ws"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	http      *http.Server
	manager   *studio.Manager
	pool      *sandbox.Pool
	wsHandler *ws.Handler
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// Options customise NewServer. Zero values use the process-wide defaults.
type Options struct {
	Logger   *logging.Logger
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	return NewServerWithOptions(cfg, Options{})
}

// NewServerWithOptions creates a server with an injected logger or metrics registry
func NewServerWithOptions(cfg *config.Config, opts Options) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	logger.Info("Initializing sandbox server",
		zap.String("port", cfg.Server.Port),
		zap.String("template", cfg.Sandbox.Template),
		zap.Int("pool_size", cfg.Sandbox.PoolSize),
	)

	// Initialize metrics first (needed by other components)
	registry, gatherer := opts.Registry, opts.Gatherer
	if registry == nil {
		registry, gatherer = prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	}
	metrics := monitoring.NewMetricsWithRegistry(registry)

	tmpl, err := loadTemplate(cfg)
	if err != nil {
		metrics.Stop()
		return nil, err
	}
	logger.Info("Template loaded",
		zap.String("name", tmpl.Name),
		zap.String("entry", tmpl.Entry),
		zap.Int("files", len(tmpl.Files)),
	)

	pool, err := sandbox.NewPool(runtimeConfig(cfg), cfg.Sandbox.PoolSize)
	if err != nil {
		metrics.Stop()
		return nil, fmt.Errorf("failed to create runtime pool: %w", err)
	}

	manager := studio.NewManager(pool, tmpl, logger.Component("studio")).
		WithMetrics(metrics).
		WithConsoleLimit(cfg.Sandbox.ConsoleLimit)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(manager, logger.Component("api"), cfg.Sandbox.MaxFileBytes).
		WithMetrics(metrics).
		WithPool(pool)
	wsHandler := ws.NewHandler(manager, logger.Component("ws"), cfg.Sandbox.MaxFileBytes).
		WithMetrics(metrics)

	handlers.Register(router)
	wsHandler.Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		http:      httpServer,
		manager:   manager,
		pool:      pool,
		wsHandler: wsHandler,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Manager returns the workspace manager
func (s *Server) Manager() *studio.Manager {
	return s.manager
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.http.Shutdown(ctx)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.wsHandler.Close()
	s.manager.Close()
	s.metrics.Stop()

	if err := s.pool.Close(); err != nil {
		s.logger.Error("Failed to close runtime pool", zap.Error(err))
		return fmt.Errorf("failed to close runtime pool: %w", err)
	}
	s.logger.Info("Closed runtime pool")

	// Sync logger before exit
	s.logger.Close()
	return nil
}

// runtimeConfig leaves execution time to each workspace's timeout_delay
func runtimeConfig(cfg *config.Config) sandbox.Config {
	rc := sandbox.DefaultConfig()
	rc.Timeout = 0
	rc.MaxConsole = cfg.Sandbox.ConsoleLimit
	return rc
}

// loadTemplate resolves the configured template. The built-in template
// takes its preview options from the environment.
func loadTemplate(cfg *config.Config) (templates.Template, error) {
	tmpl, err := templates.Load(cfg.Sandbox.Template)
	if err != nil {
		return templates.Template{}, fmt.Errorf("failed to load template %q: %w", cfg.Sandbox.Template, err)
	}
	if cfg.Sandbox.Template == "" || cfg.Sandbox.Template == templates.DefaultName {
		opts := cfg.Sandbox.PreviewOptions()
		opts.Classes = tmpl.Options.Classes
		tmpl.Options = opts
	}
	return tmpl, nil
}
