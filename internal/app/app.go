package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"tabclean/internal/config"
	apperrors "tabclean/internal/errors"
	"tabclean/internal/infrastructure"
	customMiddleware "tabclean/internal/middleware"
	"tabclean/internal/pipeline"
	"tabclean/internal/services"
	handlers "tabclean/internal/transport/http"
)

// Application is the dashboard server and everything it is wired from.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.Metrics
	Services      *ServiceContainer
	Session       *services.Session

	errorHandler *apperrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Pipeline *services.PipelineService
	Dataset  *services.DatasetService
	Health   *services.HealthService
}

// NewApplication loads the configuration and logger from the environment
// and builds the application.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	return New(ctx, cfg, paths, logger)
}

// New wires the application from an explicit configuration. The dataset
// session is opened here: the configured plan is run once, or the
// configured source is loaded as is. With neither, the dashboard starts
// without a dataset and its queries answer 404.
func New(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.InfoContext(ctx, "application_starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("output_dir", paths.OutputDir))

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		errorHandler:  apperrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	if err := a.initializeServices(ctx); err != nil {
		return nil, err
	}
	a.setupRouter()

	a.Server = &http.Server{
		Addr:           cfg.Address(),
		Handler:        a.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return a, nil
}

func (a *Application) initializeServices(ctx context.Context) error {
	tracer := pipeline.NewRunTracerWithMetrics(a.OTelProviders.Tracer, a.Metrics)
	pipelineService := services.NewPipelineService(a.Config, a.Paths, pipeline.DefaultRegistry(), tracer, a.Logger)

	session, err := pipelineService.OpenSession(ctx, a.Config.Dashboard)
	switch {
	case errors.Is(err, services.ErrNoSource):
		a.Logger.WarnContext(ctx, "dashboard_without_dataset",
			slog.String("hint", "set dashboard.plan or dashboard.source"))
	case err != nil:
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	a.Session = session

	collector, err := infrastructure.NewRuntimeCollector(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create runtime collector: %w", err)
	}

	a.Services = &ServiceContainer{
		Pipeline: pipelineService,
		Dataset:  services.NewDatasetService(a.Config.Dashboard.MaxPageSize, a.Logger),
		Health:   services.NewHealthService(session, a.Paths, collector, a.Logger),
	}
	return nil
}

// setupRouter applies the middleware in order RequestID, RealIP, OTel,
// logger, recoverer, then the security and limiting layers.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		a.Logger.Error("failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.errorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}

	if rl := a.Config.Security.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.errorHandler).Handler)
	}

	r.Use(customMiddleware.ReadOnly(a.errorHandler))
	r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Mount(config.HealthEndpoint, healthHandler.Routes())
	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/version", healthHandler.Version)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))
	}

	datasetHandler := handlers.NewDatasetHandler(a.Services.Dataset, a.Session, a.Logger, a.errorHandler)
	r.Mount(config.DatasetEndpoint, datasetHandler.Routes())

	a.Router = r
}

// Start serves in the background. A listen failure cancels ctx through
// cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	attrs := []any{
		slog.String("address", a.Server.Addr),
		slog.Bool("dataset_loaded", a.Session != nil),
	}
	if a.Session != nil {
		attrs = append(attrs,
			slog.String("source", a.Session.Source()),
			slog.Int("rows", a.Session.Table().NumRows()))
	}
	a.Logger.InfoContext(ctx, "dashboard_starting", attrs...)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server_error", slog.String("error", err.Error()))
			cancel()
		}
	}()
	return nil
}

// Stop shuts the server down gracefully and flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "otel_shutdown_failed", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "shutdown_complete")
	return nil
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	return a.Stop(ctx)
}
