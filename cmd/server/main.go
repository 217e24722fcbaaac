// Package main provides the report server: an HTTP surface over the run
// history store and the rendered HTML reports in the results directory.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"k6-harness/internal/handlers"
	"k6-harness/pkg/config"
	"k6-harness/pkg/history"
	"k6-harness/pkg/logger"
	custommiddleware "k6-harness/pkg/middleware"
	servertls "k6-harness/pkg/tls"
)

func main() {
	cfg := config.Load()

	logConfig := logger.GetServerConfig()
	logConfig.Level = logger.ParseLevel(cfg.LogLevel)
	appLogger, err := logger.NewLogger(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	cfg.DisplayConfiguration()

	// Fail fast on a broken API document rather than serving it
	if _, err := handlers.LoadOpenAPISpec(); err != nil {
		appLogger.Fatal("OpenAPI document validation failed", zap.Error(err))
	}

	store, err := history.NewStore(history.Options{
		Dir:       cfg.HistoryDir,
		CacheSize: cfg.HistoryCacheSize,
		GCEnabled: cfg.HistoryGCEnabled,
		GCPeriod:  cfg.HistoryGCPeriod,
		Logger:    appLogger,
	})
	if err != nil {
		appLogger.Fatal("Failed to open run history store", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.TLSServer.ReadTimeout = cfg.ReadTimeout
	e.TLSServer.WriteTimeout = cfg.WriteTimeout

	custommiddleware.SetupMiddleware(e, cfg, appLogger)

	healthHandler := handlers.NewHealthHandler(store, appLogger)
	runsHandler := handlers.NewRunsHandler(store, appLogger)
	reportsHandler := handlers.NewReportsHandler(cfg.ResultsDir, cfg.ReportCacheSize, appLogger)
	openapiHandler := handlers.NewOpenAPIHandler()

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/health/detailed", healthHandler.DetailedHealthCheck)
	e.GET("/api/v1/runs", runsHandler.ListRuns)
	e.GET("/api/v1/runs/:id", runsHandler.GetRun)
	e.GET("/api/v1/reports", reportsHandler.ListReports)
	e.GET("/reports/:name", reportsHandler.GetReport)
	e.GET("/openapi.json", openapiHandler.GetSpec)

	// Serve in the background so the main goroutine can wait on signals
	go func() {
		var serveErr error
		if cfg.EnableTLS {
			if serveErr = servertls.SetupAutoTLS(e, cfg, appLogger); serveErr == nil {
				serveErr = servertls.StartAutoTLS(e, cfg, appLogger)
			}
		} else {
			addr := cfg.Host + ":" + cfg.Port
			appLogger.Info("Starting report server", zap.String("addr", addr))
			serveErr = e.Start(addr)
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			appLogger.Fatal("Report server failed", zap.Error(serveErr))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	appLogger.Info("Shutting down report server", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}

	if err := store.Close(); err != nil {
		appLogger.Error("History store close failed", zap.Error(err))
	}

	appLogger.Info("Report server stopped")
}
