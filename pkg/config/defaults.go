package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress   = "0.0.0.0:8000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 330 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = int64(4194304)

	// Upstream defaults
	DefaultUpstreamHost        = "ollama"
	DefaultUpstreamPort        = 11434
	DefaultUpstreamTimeout     = 300 * time.Second
	DefaultHealthTimeout       = 5 * time.Second
	DefaultMaxIdleConns        = 10
	DefaultMaxIdleConnsPerHost = 5

	// Auth defaults
	DefaultKeyFile         = "/api_keys.txt"
	DefaultRefreshInterval = 10 * time.Second
	MinRefreshInterval     = 2 * time.Second
	DefaultGenerateIfEmpty = true
	DefaultWatchKeyFile    = true

	// Cache defaults
	DefaultCacheEnabled   = true
	DefaultCacheBackend   = "memory"
	DefaultCacheMaxBytes  = int64(268435456) // 256MB
	DefaultCacheTTL       = time.Hour
	DefaultSweepSchedule  = "@every 10m"
	DefaultCacheSQLite    = "data/cache.db"

	// Telemetry defaults
	DefaultLoggingLevel    = "info"
	DefaultLoggingFormat   = "json"
	DefaultMetricsEnabled  = true
	DefaultMetricsPath     = "/metrics"
	DefaultMetricsNamespace = "ollgate"
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Proxy defaults
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.WriteTimeout == 0 {
		cfg.Proxy.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Proxy.MaxBodyBytes == 0 {
		cfg.Proxy.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Upstream defaults
	if cfg.Upstream.Host == "" {
		cfg.Upstream.Host = DefaultUpstreamHost
	}
	if cfg.Upstream.Port == 0 {
		cfg.Upstream.Port = DefaultUpstreamPort
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if cfg.Upstream.HealthTimeout == 0 {
		cfg.Upstream.HealthTimeout = DefaultHealthTimeout
	}
	if cfg.Upstream.MaxIdleConns == 0 {
		cfg.Upstream.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.Upstream.MaxIdleConnsPerHost == 0 {
		cfg.Upstream.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}

	// Auth defaults
	if cfg.Auth.KeyFile == "" {
		cfg.Auth.KeyFile = DefaultKeyFile
	}
	if cfg.Auth.RefreshInterval == 0 {
		cfg.Auth.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.Auth.RefreshInterval < MinRefreshInterval {
		cfg.Auth.RefreshInterval = MinRefreshInterval
	}

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.MaxBytes == 0 {
		cfg.Cache.MaxBytes = DefaultCacheMaxBytes
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = DefaultCacheSQLite
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		// Local generation can take anywhere from sub-second (cache hit) to minutes
		cfg.Telemetry.Metrics.RequestDurationBuckets = []float64{0.005, 0.05, 0.25, 1, 5, 15, 60, 180, 300}
	}
}

// NewDefaultConfig returns a Config populated entirely with default values.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Auth: AuthConfig{
			GenerateIfEmpty: DefaultGenerateIfEmpty,
			Watch:           DefaultWatchKeyFile,
		},
		Cache: CacheConfig{
			Enabled:       DefaultCacheEnabled,
			TTL:           DefaultCacheTTL,
			SweepSchedule: DefaultSweepSchedule,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
