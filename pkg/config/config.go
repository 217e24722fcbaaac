package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the k6 performance harness
type Config struct {
	// =============================================================================
	// GROUP 1: K6 RUNNER SETTINGS
	// =============================================================================
	K6Binary       string        // Path to the k6 binary
	ResultsDir     string        // Directory for raw NDJSON output and HTML reports
	ScriptsDir     string        // Base directory for k6 scripts
	K6StartTimeout time.Duration // Maximum time to wait for k6 to start emitting output
	K6StopTimeout  time.Duration // Grace period after SIGINT before the k6 process is killed

	// Defaults applied when the runner flags are omitted
	DefaultTestType    string // protocol or browser
	DefaultEnvironment string // Target environment name (dev, staging, prod)
	DefaultTimeUnit    string // Time unit passed through to scenario definitions
	DefaultHeadless    bool   // Run the k6 browser module headless

	// =============================================================================
	// GROUP 2: REPORT THRESHOLD SETTINGS
	// =============================================================================
	P95ThresholdMs     float64 // Per-transaction p95 TTLB bound in milliseconds
	ErrorRateThreshold float64 // Maximum tolerated http_req_failed rate (0.0-1.0)

	// =============================================================================
	// GROUP 3: REPORT SERVER SETTINGS
	// =============================================================================
	Port         string        // HTTP server port
	Host         string        // HTTP server host/bind address
	ReadTimeout  time.Duration // HTTP read timeout
	WriteTimeout time.Duration // HTTP write timeout

	// TLS settings for the report server
	EnableTLS   bool     // Enable HTTPS with automatic Let's Encrypt certificates
	TLSPort     string   // HTTPS server port (default: 443)
	TLSCacheDir string   // Directory to cache TLS certificates
	TLSHosts    []string // Allowed hostnames for TLS certificates (required for production)

	// =============================================================================
	// GROUP 4: RUN HISTORY SETTINGS
	// =============================================================================
	HistoryDir       string        // Directory for the BadgerDB run-history files
	HistoryGCEnabled bool          // Enable periodic value-log garbage collection
	HistoryGCPeriod  time.Duration // Garbage collection interval
	HistoryCacheSize int64         // BadgerDB block cache size in bytes

	// =============================================================================
	// GROUP 5: AUTHENTICATION & NETWORK SECURITY SETTINGS
	// =============================================================================
	APIKey         string   // API key for the report server
	EnableAuth     bool     // Enable API key authentication
	AllowedOrigins []string // CORS allowed origins
	AllowedIPs     []string // IP allowlist for network-level security

	// =============================================================================
	// GROUP 6: RATE LIMITING SETTINGS
	// =============================================================================
	RateLimit          float64       // Requests per second per client IP
	BurstLimit         int           // Burst allowance per client IP
	RateLimitExpiresIn time.Duration // How long idle rate-limiter entries live

	// =============================================================================
	// GROUP 7: REPORT CACHE SETTINGS
	// =============================================================================
	ReportCacheSize int // Number of rendered report files held in the LRU cache

	// =============================================================================
	// GROUP 8: LOGGING SETTINGS
	// =============================================================================
	LogLevel            string // debug, info, warn, error
	EnableRunLogging    bool   // Log per-run lifecycle events
	EnableParseLogging  bool   // Log NDJSON decode diagnostics (noisy on big result files)
	EnableServerLogging bool   // Log report server requests
}

// Load loads configuration from environment variables
func Load() *Config {
	// Attempt to load .env file but proceed if not found
	godotenv.Load()

	config := &Config{
		// Runner settings
		K6Binary:       env("K6_BINARY", "k6"),
		ResultsDir:     env("RESULTS_DIR", "./results"),
		ScriptsDir:     env("SCRIPTS_DIR", "./scripts"),
		K6StartTimeout: envDuration("K6_START_TIMEOUT", 30*time.Second),
		K6StopTimeout:  envDuration("K6_STOP_TIMEOUT", 10*time.Second),

		DefaultTestType:    env("DEFAULT_TEST_TYPE", "protocol"),
		DefaultEnvironment: env("DEFAULT_ENVIRONMENT", "dev"),
		DefaultTimeUnit:    env("DEFAULT_TIME_UNIT", "1s"),
		DefaultHeadless:    envBool("DEFAULT_HEADLESS", true),

		// Threshold settings
		P95ThresholdMs:     envFloat64("P95_THRESHOLD_MS", 1000),
		ErrorRateThreshold: envFloat64("ERROR_RATE_THRESHOLD", 0.01),

		// Report server settings
		Port:         env("PORT", "8083"),
		Host:         env("HOST", "0.0.0.0"),
		ReadTimeout:  envDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: envDuration("WRITE_TIMEOUT", 30*time.Second),

		EnableTLS:   envBool("ENABLE_TLS", false),
		TLSPort:     env("TLS_PORT", "443"),
		TLSCacheDir: env("TLS_CACHE_DIR", "./certs"),
		TLSHosts:    envStringSlice("TLS_HOSTS", []string{}), // Empty means allow any host (development only)

		// Run history settings
		HistoryDir:       env("HISTORY_DIR", "./data/history"),
		HistoryGCEnabled: envBool("HISTORY_GC_ENABLED", true),
		HistoryGCPeriod:  envDuration("HISTORY_GC_PERIOD", 10*time.Minute),
		HistoryCacheSize: envInt64("HISTORY_CACHE_SIZE", 32<<20), // 32MB block cache

		// Security settings
		APIKey:         env("API_KEY", ""),
		EnableAuth:     envBool("ENABLE_AUTH", false),
		AllowedOrigins: envStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		AllowedIPs:     envStringSlice("ALLOWED_IPS", []string{}), // Empty means no IP restrictions

		// Rate limiting settings
		RateLimit:          envFloat64("RATE_LIMIT", 100),
		BurstLimit:         envInt("BURST_LIMIT", 200),
		RateLimitExpiresIn: envDuration("RATE_LIMIT_EXPIRES_IN", 3*time.Minute),

		// Report cache settings
		ReportCacheSize: envInt("REPORT_CACHE_SIZE", 64),

		// Logging settings
		LogLevel:            env("LOG_LEVEL", "info"),
		EnableRunLogging:    envBool("ENABLE_RUN_LOGGING", true),
		EnableParseLogging:  envBool("ENABLE_PARSE_LOGGING", false),
		EnableServerLogging: envBool("ENABLE_SERVER_LOGGING", true),
	}

	return config
}

// DisplayConfiguration shows the current configuration
func (cfg *Config) DisplayConfiguration() {
	fmt.Println("⚙️  Configuration:")
	fmt.Printf("   K6 Binary: %s\n", cfg.K6Binary)
	fmt.Printf("   Results Directory: %s\n", cfg.ResultsDir)
	fmt.Printf("   Scripts Directory: %s\n", cfg.ScriptsDir)
	fmt.Printf("   Default Test Type: %s\n", cfg.DefaultTestType)
	fmt.Printf("   Default Environment: %s\n", cfg.DefaultEnvironment)
	fmt.Printf("   K6 Stop Timeout: %v\n", cfg.K6StopTimeout)

	fmt.Printf("\n📊 Report Thresholds:\n")
	fmt.Printf("   P95 TTLB: %.0f ms\n", cfg.P95ThresholdMs)
	fmt.Printf("   Error Rate: %.2f%%\n", cfg.ErrorRateThreshold*100)

	fmt.Printf("\n🌐 Report Server:\n")
	fmt.Printf("   Address: %s:%s\n", cfg.Host, cfg.Port)
	if cfg.EnableTLS {
		fmt.Printf("   TLS Port: %s\n", cfg.TLSPort)
		fmt.Printf("   TLS Cache Dir: %s\n", cfg.TLSCacheDir)
		if len(cfg.TLSHosts) > 0 {
			fmt.Printf("   TLS Hosts: %v\n", cfg.TLSHosts)
		} else {
			fmt.Printf("   TLS Hosts: Any (development mode)\n")
		}
	}
	fmt.Printf("   Authentication: %t\n", cfg.EnableAuth)
	if len(cfg.AllowedIPs) > 0 {
		fmt.Printf("   IP Allowlist: %v\n", cfg.AllowedIPs)
	} else {
		fmt.Printf("   IP Allowlist: All IPs allowed\n")
	}
	fmt.Printf("   Rate Limit: %.0f req/s (burst %d)\n", cfg.RateLimit, cfg.BurstLimit)
	fmt.Printf("   Report Cache Size: %d entries\n", cfg.ReportCacheSize)

	fmt.Printf("\n🗄️  Run History:\n")
	fmt.Printf("   Directory: %s\n", cfg.HistoryDir)
	fmt.Printf("   GC Enabled: %t (every %v)\n", cfg.HistoryGCEnabled, cfg.HistoryGCPeriod)
	fmt.Println()
}

// Helper functions to get environment variables with defaults

func env(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func envInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func envStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value == "" {
			return defaultValue
		}
		// Parse comma-separated values
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

func envFloat64(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
