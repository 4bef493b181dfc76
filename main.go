package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/extractor"
	"photo-catalog/internal/handlers"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/middleware"
	"photo-catalog/internal/notify"
	"photo-catalog/internal/startup"
	"photo-catalog/internal/watcher"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()

	// Open the catalog store
	dbStart := time.Now()
	store, err := catalog.Open(context.Background(), config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to open catalog: %v", err)
	}
	defer store.Close()
	logging.Info("Catalog opened in %v (%s)", time.Since(dbStart).Round(time.Millisecond), config.DatabasePath)

	// Websocket hub for catalog-changed pushes
	hub := notify.NewHub()

	// Extraction worker
	worker := extractor.New(store, config.ThumbnailDir)
	worker.OnChange(hub.CatalogChanged)

	// Watch coordinator; restore persisted roots before serving
	coordinator := watcher.New(store, worker)
	coordinator.OnChange(hub.CatalogChanged)
	if err := coordinator.RestoreRoots(context.Background()); err != nil {
		logging.Error("Failed to restore watch roots: %v", err)
	}

	// HTTP surface
	h := handlers.New(store, coordinator, worker, hub, handlers.Config{
		ThumbnailDir: config.ThumbnailDir,
		Version:      startup.GetBuildInfo().Version,
	})
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(config.LogHealthChecks))

	startup.LogHTTPRoutes(router)

	srv := startup.ServerTimeouts(router, ":"+config.Port)

	// Separate metrics listener so scrapes never contend with the API
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = startup.ServerTimeouts(metricsMux, ":"+config.MetricsPort)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, coordinator, worker, store)

	startup.LogServerStarted(config)
	logging.Info("Startup completed in %v", time.Since(startTime).Round(time.Millisecond))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, coordinator *watcher.Coordinator, worker *extractor.Worker, store *catalog.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated()
	logging.Info("Received signal: %s", sig)
	shutdownStart := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("filesystem watches")
	coordinator.Close()

	startup.LogShutdownStep("extraction queue")
	worker.ClearQueue()
	worker.Wait()

	startup.LogShutdownStep("HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("HTTP server shutdown: %v", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown: %v", err)
		}
	}

	startup.LogShutdownStep("catalog store")
	if err := store.Close(); err != nil {
		logging.Warn("Catalog close: %v", err)
	}

	startup.LogShutdownComplete(time.Since(shutdownStart))
	os.Exit(0)
}
