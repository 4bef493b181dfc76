// Package startup handles application initialization: environment
// configuration, data-directory setup, build information and the
// startup/shutdown logging sequence.
package startup

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"photo-catalog/internal/logging"
)

// Build information, set at build time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// BuildInfo contains application build information.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
	GoVersion string
	Platform  string
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Config holds all application configuration.
type Config struct {
	DataDir         string
	DatabasePath    string
	ThumbnailDir    string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool
}

// LoadConfig reads configuration from environment variables, prepares
// the data directories and logs the startup sequence.
func LoadConfig() (*Config, error) {
	printBanner()

	info := GetBuildInfo()
	logging.Info("Version: %s (commit %s, built %s)", info.Version, info.GitCommit, info.BuildTime)
	logging.Info("Runtime: %s on %s", info.GoVersion, info.Platform)

	logging.Info("--- CONFIGURATION ---")
	cfg := &Config{
		DataDir:         getEnv("DATA_DIR", "./data"),
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", false),
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory %s: %w", cfg.DataDir, err)
	}
	cfg.DataDir = absDataDir
	cfg.DatabasePath = filepath.Join(cfg.DataDir, "catalog.db")
	cfg.ThumbnailDir = filepath.Join(cfg.DataDir, "thumbnails")

	logging.Info("Data directory: %s", cfg.DataDir)
	logging.Info("Database path: %s", cfg.DatabasePath)
	logging.Info("Thumbnail directory: %s", cfg.ThumbnailDir)
	logging.Info("HTTP port: %s", cfg.Port)
	if cfg.MetricsEnabled {
		logging.Info("Metrics port: %s", cfg.MetricsPort)
	} else {
		logging.Info("Metrics: disabled")
	}

	logging.Info("--- DIRECTORY SETUP ---")
	for _, dir := range []string{cfg.DataDir, cfg.ThumbnailDir} {
		if err := ensureDirectory(dir); err != nil {
			return nil, err
		}
		if err := testWriteAccess(dir); err != nil {
			return nil, err
		}
		logging.Info("Directory ready: %s", dir)
	}

	return cfg, nil
}

// ensureDirectory creates dir if it does not exist.
func ensureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// testWriteAccess verifies dir is writable by creating and removing a
// probe file.
func testWriteAccess(dir string) error {
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("failed to remove write probe in %s: %w", dir, err)
	}
	return nil
}

// RouteInfo describes one registered HTTP route.
type RouteInfo struct {
	Path    string
	Methods []string
}

// GetRoutes walks the router and collects every registered route.
func GetRoutes(router *mux.Router) []RouteInfo {
	var routes []RouteInfo
	_ = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := route.GetMethods()
		routes = append(routes, RouteInfo{Path: path, Methods: methods})
		return nil
	})
	return routes
}

// LogHTTPRoutes logs every registered route at startup.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("--- HTTP ROUTES ---")
	for _, route := range GetRoutes(router) {
		methods := strings.Join(route.Methods, ",")
		if methods == "" {
			methods = "ANY"
		}
		logging.Info("  %-24s %s", methods, route.Path)
	}
}

// LogServerStarted logs the final ready message.
func LogServerStarted(cfg *Config) {
	logging.Info("--- READY ---")
	logging.Info("Listening on http://localhost:%s", cfg.Port)
	if cfg.MetricsEnabled {
		logging.Info("Metrics on http://localhost:%s/metrics", cfg.MetricsPort)
	}
}

// LogShutdownInitiated marks the start of graceful shutdown.
func LogShutdownInitiated() {
	logging.Info("--- SHUTDOWN ---")
}

// LogShutdownStep logs one shutdown step.
func LogShutdownStep(step string) {
	logging.Info("Shutting down: %s", step)
}

// LogShutdownComplete logs the end of graceful shutdown.
func LogShutdownComplete(elapsed time.Duration) {
	logging.Info("Shutdown complete in %v", elapsed.Round(time.Millisecond))
}

func printBanner() {
	fmt.Println(`
 ==============================================
   photo-catalog - local image cataloger
 ==============================================`)
}

// getEnv returns the environment variable value or the default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns the environment variable parsed as a boolean, or
// the default when unset or unrecognized.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	switch value {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// ServerTimeouts returns the standard timeouts for the HTTP servers.
func ServerTimeouts(handler http.Handler, addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
