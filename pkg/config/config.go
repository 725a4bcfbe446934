package config

import "time"

// Config is the root configuration structure for ollgate.
// It contains all configuration sections for the proxy server, the upstream
// inference server, API key authentication, response caching, and telemetry.
type Config struct {
	// Proxy contains HTTP proxy server configuration including listen address,
	// timeouts, and connection limits.
	Proxy ProxyConfig `yaml:"proxy"`

	// Upstream contains configuration for the inference server that uncached
	// requests are forwarded to.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Auth contains API key authentication configuration including the key
	// source file, salt, and refresh interval.
	Auth AuthConfig `yaml:"auth"`

	// Cache contains response cache configuration including backend selection,
	// size bounds, and freshness policy.
	Cache CacheConfig `yaml:"cache"`

	// Telemetry contains observability configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the HTTP proxy server.
type ProxyConfig struct {
	// ListenAddress is the address and port for the proxy to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8000", "0.0.0.0:8000").
	// Default: "0.0.0.0:8000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Must be large enough to cover a full upstream generation.
	// Default: 330s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header. Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of accepted request bodies.
	// Default: 4194304 (4MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// UpstreamConfig contains configuration for the upstream inference server.
type UpstreamConfig struct {
	// Host is the hostname of the inference server.
	// Default: "ollama"
	Host string `yaml:"host"`

	// Port is the TCP port of the inference server.
	// Default: 11434
	Port int `yaml:"port"`

	// Timeout is the maximum duration for a generate request to the upstream.
	// Generation can be slow on local hardware, so the default is generous.
	// Default: 300s
	Timeout time.Duration `yaml:"timeout"`

	// HealthTimeout is the timeout applied to upstream health probes.
	// Default: 5s
	HealthTimeout time.Duration `yaml:"health_timeout"`

	// MaxIdleConns controls the connection pool size toward the upstream.
	// Default: 10
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost controls idle connections per upstream host.
	// Default: 5
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`
}

// AuthConfig contains API key authentication configuration.
type AuthConfig struct {
	// KeyFile is the path to the newline-delimited key source file.
	// Entries are either plaintext keys or pre-salted SHA-256 hex digests.
	// Default: "/api_keys.txt"
	KeyFile string `yaml:"key_file"`

	// Salt is the process-wide salt applied before hashing plaintext keys.
	// When set, entries in the key file are assumed to already be salted
	// digests produced with this salt. When empty, a random salt is generated
	// at startup and logged for operator visibility.
	Salt string `yaml:"salt"`

	// RefreshInterval is how often the key file is re-read. A key removed
	// from the file remains valid for at most this long.
	// Minimum: 2s. Default: 10s
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// GenerateIfEmpty controls whether a random key is generated and logged
	// when the key file is missing or yields no keys. When false, an empty
	// key set is a fatal startup error.
	// Default: true
	GenerateIfEmpty bool `yaml:"generate_if_empty"`

	// Watch enables an fsnotify watcher on the key file so edits are picked
	// up immediately instead of waiting for the next refresh tick.
	// Default: true
	Watch bool `yaml:"watch"`
}

// CacheConfig contains response cache configuration.
type CacheConfig struct {
	// Enabled controls whether responses are cached at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the cache implementation.
	// Options: "memory" (in-process LRU), "sqlite" (persistent).
	// Default: "memory"
	Backend string `yaml:"backend"`

	// MaxBytes bounds the total resident size of cached response bodies.
	// Insertion evicts least-recently-used entries until the new entry fits.
	// Default: 268435456 (256MB)
	MaxBytes int64 `yaml:"max_bytes"`

	// MaxEntries bounds the number of cached entries. Zero means unbounded
	// (the byte bound still applies).
	// Default: 0
	MaxEntries int `yaml:"max_entries"`

	// TTL is the freshness horizon for cached entries. Entries older than
	// this are treated as absent on lookup and removed lazily. Zero disables
	// expiry.
	// Default: 1h
	TTL time.Duration `yaml:"ttl"`

	// SweepSchedule is a cron expression for proactive purging of expired
	// entries. Empty disables the sweeper; expired entries are then only
	// removed lazily on lookup.
	// Default: "@every 10m"
	SweepSchedule string `yaml:"sweep_schedule"`

	// SQLitePath is the database file path when Backend is "sqlite".
	// Default: "data/cache.db"
	SQLitePath string `yaml:"sqlite_path"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the /metrics endpoint is exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the Prometheus metric namespace.
	// Default: "ollgate"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets are histogram buckets for request latency in
	// seconds. Defaults are tuned for local LLM generation latencies.
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}
