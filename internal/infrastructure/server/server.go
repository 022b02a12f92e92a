package server

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/events"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/launch"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/paths"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	registry *window.Registry
	bus      *events.Bus
	sessions *session.Manager
	store    *store.Store
	stream   *ws.Handler
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	detach   []func()
}

// NewServer wires the desktop runtime and its HTTP surface
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)

	layout := paths.New(cfg.Store.Home)
	dbPath := layout.Resolve(cfg.Store.Path)
	appsDir := layout.Resolve(cfg.Catalog.AppsDir)

	logger.Info("Initializing desktop server",
		zap.String("port", cfg.Server.Port),
		zap.String("db", dbPath),
		zap.String("apps", appsDir),
		zap.Bool("durable_events", cfg.Events.Durable),
	)

	metrics := monitoring.NewMetrics()

	// Catalog: built-ins overridden by manifests on disk
	apps := catalog.New()
	seeder := catalog.NewSeeder(apps, appsDir, cfg.Catalog.Pattern, logger.Component("catalog"))
	if _, err := seeder.Seed(context.Background()); err != nil {
		logger.Warn("Failed to seed app manifests", zap.Error(err))
	}
	metrics.SetCatalogApps(apps.Stats().TotalApps)

	st, err := store.Open(dbPath, store.WithMkdirAll(), store.WithLogger(logger.Component("store")))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	bus := events.NewBus(events.Config{Durable: cfg.Events.Durable}, logger.Component("events")).WithMetrics(metrics)

	registry := window.New(apps,
		window.WithLogger(logger.Component("registry")),
		window.WithObserver(func(snap types.Snapshot) {
			bus.Emit(events.ChannelStateChanged, snap)
		}),
	).WithMetrics(metrics)

	sessions, err := session.NewManager(registry, st, logger.Component("session"))
	if err != nil {
		bus.Close()
		st.Close()
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}
	sessions.WithMetrics(metrics)

	tracer := tracing.New("desktop", logger.Component("tracing"))

	router := launch.NewRouter(registry, apps, bus, logger.Component("launch")).
		WithMetrics(metrics).
		WithTracer(tracer).
		WithPathRecorder(sessions)
	listener := launch.NewListener(context.Background(), router, logger.Component("launch"))

	detach := []func(){
		listener.Attach(bus),
		bus.Subscribe(events.ChannelStateChanged, sessions.HandleStateChanged(context.Background())),
	}

	stream := ws.NewHandler(registry, bus, logger.Component("ws"), cfg.Server.AllowedOrigins...).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(tracing.HTTPMiddleware(tracer))
	engine.Use(middleware.AccessLog(logger.Component("http")))
	engine.Use(monitoring.Middleware(metrics))
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		engine.Use(middleware.RateLimit(rl))
	}

	handlers := http.NewHandlers(registry, router, bus, apps, sessions, metrics, logger.Component("http")).
		WithLaunchDelay(cfg.Events.LaunchDelay)
	handlers.Register(engine)

	engine.GET("/stream", stream.HandleConnection)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   engine,
		registry: registry,
		bus:      bus,
		sessions: sessions,
		store:    st,
		stream:   stream,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		tracer:   tracer,
		detach:   detach,
	}, nil
}

// Handler returns the HTTP handler, for embedding and tests
func (s *Server) Handler() nethttp.Handler {
	return s.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	// Renderer streams are hijacked and not tracked by Shutdown
	s.stream.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return <-errCh
}

// Close releases the event bus, session manager, tracer and store
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.stream.Close()
	for _, fn := range s.detach {
		fn()
	}
	s.bus.Close()
	s.sessions.Close()
	s.tracer.Close()

	var errs []error
	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close store", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
