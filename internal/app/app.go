package app

import (
	"compress/flate"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"vizpipe/internal/config"
	apperrors "vizpipe/internal/errors"
	"vizpipe/internal/infrastructure"
	customMiddleware "vizpipe/internal/middleware"
	"vizpipe/internal/services"
	handlers "vizpipe/internal/transport/http"
	ws "vizpipe/internal/websocket"
	"vizpipe/pkg/contracts"
)

// AppName names the service in logs
const AppName = "vizpipe"

// Application wires configuration, telemetry, the pipeline service and the
// HTTP surface together
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Pipeline      *services.PipelineService
	HealthService *services.HealthService
	WebSocketHub  *ws.Hub
	Metrics       *infrastructure.PipelineMetrics
	OTelProviders *infrastructure.OTelProviders
	Logger        *slog.Logger
	ErrorHandler  *apperrors.ErrorHandler
}

// NewApplication loads the configuration from configPath (or the default
// locations when empty) and builds the application
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("data_dir", cfg.Datasets.DataDir))

	return New(cfg, logger)
}

// New builds the application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewPipelineMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Metrics:       metrics,
		OTelProviders: otelProviders,
		Logger:        logger,
		ErrorHandler:  apperrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	a.Pipeline = services.NewPipelineService(cfg, metrics, logger)
	a.HealthService = services.NewHealthService(contracts.Current(), a.Pipeline, logger)
	a.WebSocketHub = ws.NewHub(metrics, logger)
	a.HealthService.SetSessions(a.WebSocketHub)

	a.setupRouter()
	a.setupServer()

	return a, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Middleware that doesn't wrap the ResponseWriter, safe for WebSocket
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.Recoverer(a.Logger))

	wsHandler := ws.NewHandler(a.WebSocketHub, a.Pipeline, a.Config.WebSocket,
		a.Config.Server.AllowedOrigins, a.Metrics, a.Logger)
	r.Method(http.MethodGet, "/ws/drilldown", wsHandler)

	// Everything else gets the full chain.
	// Order: Telemetry → Logger → SecurityHeaders → CORS → RateLimit
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewTelemetry(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.DefaultCORSConfig(a.Config.Server.AllowedOrigins)))

		if a.Config.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.RateLimit.RPS,
				a.Config.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus scrape endpoint, outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.StripSlashes)
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Compress(flate.DefaultCompression, "application/json", "text/csv"))
		r.Use(middleware.Timeout(a.Config.Server.WriteTimeout))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		clientLogHandler := handlers.NewClientLogHandler(a.Logger, a.ErrorHandler)
		r.With(customMiddleware.ContentTypeValidator("application/json")).Post("/logs", clientLogHandler.Handle)

		r.Post("/reload", a.handleReload)

		pipelineHandler := handlers.NewPipelineHandler(a.Pipeline, a.Config.Pipeline.MaxTopN, a.Logger, a.ErrorHandler)
		r.Mount("/", pipelineHandler.Routes())
	})
}

func (a *Application) setupServer() {
	a.Server = &http.Server{
		Addr:           net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// handleReload re-reads every dataset. On failure the previous datasets
// stay in place.
func (a *Application) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := a.Pipeline.Load(ctx); err != nil {
		a.ErrorHandler.HandleError(w, r, apperrors.NewStorageError("dataset reload failed", err))
		return
	}

	a.WebSocketHub.BroadcastReload(ctx)
	stats := a.Pipeline.Stats()
	infrastructure.LoggerFromContext(ctx).Info("Datasets reloaded",
		slog.Int("ratings", stats.Ratings),
		slog.Int("counts", stats.Counts),
		slog.Int("regions", stats.Regions))
	render.JSON(w, r, stats)
}

// Start loads the datasets and starts serving. A dataset failure is not
// fatal: the server reports not-ready until a reload succeeds.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if err := a.Pipeline.Load(ctx); err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Initial dataset load failed",
			slog.String("data_dir", a.Config.Datasets.DataDir))
	}

	a.WebSocketHub.Start()

	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	go func() {
		if err := a.Server.Serve(listener); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", listener.Addr().String()))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Sessions are hijacked connections; Shutdown does not wait for them
	a.WebSocketHub.Stop()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted. SIGHUP reloads the datasets.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				a.reload(ctx)
				continue
			}
			a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
		case <-ctx.Done():
			a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
		}
		return a.Stop(context.Background())
	}
}

func (a *Application) reload(ctx context.Context) {
	if err := a.Pipeline.Load(ctx); err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Dataset reload failed")
		return
	}
	a.WebSocketHub.BroadcastReload(ctx)
}
