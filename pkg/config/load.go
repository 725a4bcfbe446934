package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// Defaults are applied first so that absent fields keep their documented
// values (including booleans that default to true), then the file contents
// are layered on top, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention OLLGATE_SECTION_FIELD (e.g., OLLGATE_UPSTREAM_HOST) and always
// take precedence over file-based configuration.
//
// A missing configuration file is not an error here: the environment alone is
// a supported deployment mode (containers commonly configure ollgate entirely
// through the environment).
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config

	if _, err := os.Stat(path); err == nil {
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = NewDefaultConfig()
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format OLLGATE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Proxy overrides
	if val := os.Getenv("OLLGATE_PROXY_LISTEN_ADDRESS"); val != "" {
		cfg.Proxy.ListenAddress = val
	}
	if val := os.Getenv("OLLGATE_PROXY_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.ReadTimeout = d
		}
	}
	if val := os.Getenv("OLLGATE_PROXY_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.WriteTimeout = d
		}
	}
	if val := os.Getenv("OLLGATE_PROXY_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Proxy.MaxBodyBytes = i
		}
	}

	// Upstream overrides
	if val := os.Getenv("OLLGATE_UPSTREAM_HOST"); val != "" {
		cfg.Upstream.Host = val
	}
	if val := os.Getenv("OLLGATE_UPSTREAM_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Upstream.Port = i
		}
	}
	if val := os.Getenv("OLLGATE_UPSTREAM_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upstream.Timeout = d
		}
	}

	// Auth overrides
	if val := os.Getenv("OLLGATE_AUTH_KEY_FILE"); val != "" {
		cfg.Auth.KeyFile = val
	}
	if val := os.Getenv("OLLGATE_AUTH_SALT"); val != "" {
		cfg.Auth.Salt = val
	}
	if val := os.Getenv("OLLGATE_AUTH_REFRESH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Auth.RefreshInterval = d
		} else if secs, err := strconv.Atoi(val); err == nil {
			// Bare integers are accepted as seconds for parity with the
			// container environment convention.
			cfg.Auth.RefreshInterval = time.Duration(secs) * time.Second
		}
		if cfg.Auth.RefreshInterval < MinRefreshInterval {
			cfg.Auth.RefreshInterval = MinRefreshInterval
		}
	}
	if val := os.Getenv("OLLGATE_AUTH_GENERATE_IF_EMPTY"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Auth.GenerateIfEmpty = b
		}
	}
	if val := os.Getenv("OLLGATE_AUTH_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Auth.Watch = b
		}
	}

	// Cache overrides
	if val := os.Getenv("OLLGATE_CACHE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Cache.Enabled = b
		}
	}
	if val := os.Getenv("OLLGATE_CACHE_BACKEND"); val != "" {
		cfg.Cache.Backend = val
	}
	if val := os.Getenv("OLLGATE_CACHE_MAX_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Cache.MaxBytes = i
		}
	}
	if val := os.Getenv("OLLGATE_CACHE_MAX_ENTRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Cache.MaxEntries = i
		}
	}
	if val := os.Getenv("OLLGATE_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.TTL = d
		} else if secs, err := strconv.Atoi(val); err == nil {
			cfg.Cache.TTL = time.Duration(secs) * time.Second
		}
	}
	if val := os.Getenv("OLLGATE_CACHE_SWEEP_SCHEDULE"); val != "" {
		cfg.Cache.SweepSchedule = val
	}
	if val := os.Getenv("OLLGATE_CACHE_SQLITE_PATH"); val != "" {
		cfg.Cache.SQLitePath = val
	}

	// Telemetry overrides
	if val := os.Getenv("OLLGATE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("OLLGATE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("OLLGATE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("OLLGATE_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
