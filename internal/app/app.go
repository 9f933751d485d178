// Package app initializes and runs the users API service.
// It configures logging, storage, metrics and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/patric-chuzhbe/usersapi/internal/config"
	"github.com/patric-chuzhbe/usersapi/internal/db/memorystorage"
	"github.com/patric-chuzhbe/usersapi/internal/gzippedhttp"
	"github.com/patric-chuzhbe/usersapi/internal/ipchecker"
	"github.com/patric-chuzhbe/usersapi/internal/logger"
	"github.com/patric-chuzhbe/usersapi/internal/metrics"
	"github.com/patric-chuzhbe/usersapi/internal/router"
	"github.com/patric-chuzhbe/usersapi/internal/service"
)

// App encapsulates the configuration, HTTP handlers and storage
// needed to run the users API.
type App struct {
	cfg            *config.Config
	db             *memorystorage.MemoryStorage
	httpHandler    http.Handler
	metricsHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - creating the in-memory storage
// - setting up metrics, the router and middleware
func New(options ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(options...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = memorystorage.New()
	if err != nil {
		return nil, err
	}

	users := service.New(app.db)
	if err := users.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("storage is not available: %w", err)
	}

	metricsGuard, err := ipchecker.New(
		app.cfg.MetricsSubnet,
		ipchecker.WithTrustedProxyHeaders(app.cfg.MetricsTrustProxyHeaders.Enabled()),
	)
	if err != nil {
		return nil, err
	}
	appMetrics := metrics.New(app.db.Count)
	app.metricsHandler = metricsGuard.Middleware(appMetrics.Handler())

	app.httpHandler = router.New(users, buildMiddlewares(app.cfg, appMetrics)...)

	return app, nil
}

func buildMiddlewares(cfg *config.Config, appMetrics *metrics.Metrics) []func(http.Handler) http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		middleware.Recoverer,
		logger.WithLoggingHTTPMiddleware,
		appMetrics.Middleware,
	}

	if len(cfg.CORSAllowedOrigins) > 0 {
		middlewares = append(middlewares, cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", "Content-Encoding", "Accept-Encoding"},
			MaxAge:         300,
		}))
	}

	if cfg.EnableGzip.Enabled() {
		middlewares = append(middlewares, gzippedhttp.UngzipRequest, gzippedhttp.GzipResponse)
	}

	return middlewares
}

// Handler returns the API handler with all middlewares applied.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Run starts the HTTP server (and the metrics listener when configured)
// with graceful shutdown support.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	servers := []*http.Server{{
		Addr:              a.cfg.RunAddr(),
		Handler:           a.httpHandler,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
	}}
	if a.cfg.MetricsAddr != "" {
		servers = append(servers, &http.Server{
			Addr:              a.cfg.MetricsAddr,
			Handler:           a.metricsHandler,
			ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		})
	}

	serverErrCh := make(chan error, len(servers))
	for _, server := range servers {
		go func(server *http.Server) {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrCh <- fmt.Errorf("server %s: %w", server.Addr, err)
			}
		}(server)
	}

	logger.Log.Infof("Server running on port %s", a.cfg.Port)
	if a.cfg.MetricsAddr != "" {
		logger.Log.Infow("metrics listener running", "MetricsAddr", a.cfg.MetricsAddr)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Stopping the servers...")
	case runErr = <-serverErrCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	for _, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	return errors.Join(runErr, a.db.Close())
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
