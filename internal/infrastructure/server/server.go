package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	api "github.com/GriffinCanCode/deskdriver/internal/api/http"
	"github.com/GriffinCanCode/deskdriver/internal/api/middleware"
	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/config"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/logging"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/deskdriver/internal/providers/system"
	"github.com/GriffinCanCode/deskdriver/internal/providers/virtual"
)

const (
	shutdownTimeout = 10 * time.Second
	// Status and element replies stay uncompressed; page sources and
	// screenshots do not.
	compressMinSize = 1024
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	handler    http.Handler
	httpServer *http.Server
	registry   *automation.Registry
	scheduler  *automation.Scheduler
	provider   *virtual.Provider
	tracer     *tracing.Tracer
	metrics    *monitoring.Metrics
	logger     *logging.Logger
	config     *config.Config
}

func newLogger(cfg config.LogConfig) (*logging.Logger, error) {
	lc := logging.DefaultConfig()
	if cfg.Development {
		lc = logging.DevelopmentConfig()
	}
	if cfg.Level != "" {
		lc.Level = cfg.Level
	}
	return logging.New(lc)
}

func newProvider(cfg config.AutomationConfig, logger *zap.Logger) (*virtual.Provider, error) {
	var (
		fixture *virtual.Fixture
		err     error
	)
	if cfg.Fixture != "" {
		fixture, err = virtual.LoadFixture(cfg.Fixture)
	} else {
		fixture, err = virtual.DefaultFixture()
	}
	if err != nil {
		return nil, err
	}

	opts := []virtual.Option{virtual.WithLogger(logger)}
	if cfg.SystemClipboard {
		clip, err := system.NewClipboard()
		if err != nil {
			logger.Warn("System clipboard unavailable, using in-memory clipboard", zap.Error(err))
		} else {
			opts = append(opts, virtual.WithClipboard(clip))
		}
	}
	return virtual.New(fixture, opts...)
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var compress func(http.Handler) http.HandlerFunc
	if cfg.Server.Compress {
		compress, err = gzhttp.NewWrapper(gzhttp.MinSize(compressMinSize))
		if err != nil {
			return nil, fmt.Errorf("failed to set up compression: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)

	tracer := tracing.New("deskdriver", logger.Named(logging.HTTP))

	provider, err := newProvider(cfg.Automation, logger.Named(logging.Provider))
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.Automation.Provider, err)
	}

	scripts := automation.NewDispatcher(provider, system.NewShellRunner(), automation.DispatcherConfig{
		AllowShell:  cfg.Automation.AllowShell,
		ShellBinary: cfg.Automation.ShellBinary,
		TempDir:     cfg.Automation.ShellTempDir,
	}, logger.Named(logging.Scripts))

	registry := automation.NewRegistry(provider, scripts, automation.RegistryConfig{
		MaxElementHandles: cfg.Automation.MaxElementHandles,
	}, logger.Named(logging.Registry)).WithObserver(metrics)

	scheduler := automation.NewScheduler(registry, cfg.Automation.CleanupInterval(), logger.Named(logging.Cleanup))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	httpLogger := logger.Named(logging.HTTP)
	router.Use(middleware.Recovery(httpLogger))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.Logging(httpLogger, middleware.LoggingConfig{
		Bodies:    cfg.Logging.Bodies,
		SkipPaths: []string{"/health", "/metrics"},
	}))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.String("scope", cfg.RateLimit.Scope),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		rl.Scope = cfg.RateLimit.Scope
		router.Use(middleware.RateLimit(rl))
	}
	if cfg.Auth.Enabled() {
		logger.Info("Basic auth enabled", zap.String("username", cfg.Auth.Username))
		router.Use(middleware.BasicAuth(middleware.BasicAuthConfig{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		}, "/health", "/metrics"))
	}

	handlers := api.NewHandlers(registry, automation.NewExecutor(cfg.Automation.Workers), metrics, httpLogger).WithTracer(tracer)
	api.Register(router, handlers, cfg.Server.BasePath)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	var handler http.Handler = router
	if compress != nil {
		handler = compress(router)
	}

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		handler:   handler,
		registry:  registry,
		scheduler: scheduler,
		provider:  provider,
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger,
		config:    cfg,
		httpServer: &http.Server{
			Addr:              cfg.Server.Address(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Logger returns the server logger.
func (s *Server) Logger() *logging.Logger {
	return s.logger
}

// Run listens on the configured address and serves until Close.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts the cleanup scheduler and serves on ln until Close.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if n := s.config.Server.MaxConnections; n > 0 {
		ln = netutil.LimitListener(ln, n)
	}
	s.scheduler.Start(ctx)
	s.logger.Info("Starting HTTP server",
		zap.String("addr", ln.Addr().String()),
		zap.String("base_path", s.config.Server.BasePath),
		zap.Int("max_connections", s.config.Server.MaxConnections),
	)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server. Live sessions are closed as if
// they had expired.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to stop HTTP server", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to stop http server: %w", err))
	}

	closed := s.scheduler.Stop()
	s.logger.Info("Closed sessions", zap.Int("count", len(closed)))

	if err := s.provider.Close(); err != nil {
		s.logger.Error("Failed to close provider", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close provider: %w", err))
	}
	s.tracer.Close()

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
