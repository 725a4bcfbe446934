package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return NewDefaultConfig()
}

func TestValidateDefaultConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Proxy.ListenAddress = "" },
			wantField: "proxy.listen_address",
		},
		{
			name:      "listen address without port",
			mutate:    func(c *Config) { c.Proxy.ListenAddress = "localhost" },
			wantField: "proxy.listen_address",
		},
		{
			name:      "negative max body bytes",
			mutate:    func(c *Config) { c.Proxy.MaxBodyBytes = -1 },
			wantField: "proxy.max_body_bytes",
		},
		{
			name:      "empty upstream host",
			mutate:    func(c *Config) { c.Upstream.Host = "" },
			wantField: "upstream.host",
		},
		{
			name:      "upstream port zero",
			mutate:    func(c *Config) { c.Upstream.Port = 0 },
			wantField: "upstream.port",
		},
		{
			name:      "upstream port too large",
			mutate:    func(c *Config) { c.Upstream.Port = 70000 },
			wantField: "upstream.port",
		},
		{
			name:      "upstream timeout zero",
			mutate:    func(c *Config) { c.Upstream.Timeout = 0 },
			wantField: "upstream.timeout",
		},
		{
			name:      "empty key file",
			mutate:    func(c *Config) { c.Auth.KeyFile = "" },
			wantField: "auth.key_file",
		},
		{
			name:      "refresh interval below floor",
			mutate:    func(c *Config) { c.Auth.RefreshInterval = time.Second },
			wantField: "auth.refresh_interval",
		},
		{
			name:      "unknown cache backend",
			mutate:    func(c *Config) { c.Cache.Backend = "redis" },
			wantField: "cache.backend",
		},
		{
			name:      "cache max bytes zero",
			mutate:    func(c *Config) { c.Cache.MaxBytes = 0 },
			wantField: "cache.max_bytes",
		},
		{
			name:      "negative cache ttl",
			mutate:    func(c *Config) { c.Cache.TTL = -time.Minute },
			wantField: "cache.ttl",
		},
		{
			name:      "invalid sweep schedule",
			mutate:    func(c *Config) { c.Cache.SweepSchedule = "not a cron expression" },
			wantField: "cache.sweep_schedule",
		},
		{
			name: "sqlite backend without path",
			mutate: func(c *Config) {
				c.Cache.Backend = "sqlite"
				c.Cache.SQLitePath = ""
			},
			wantField: "cache.sqlite_path",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "unknown log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "logfmt" },
			wantField: "telemetry.logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected validation error for %s, got nil", tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not mention field %q", err.Error(), tt.wantField)
			}
		})
	}
}

func TestValidateCacheDisabledSkipsCacheRules(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.Backend = "bogus"
	cfg.Cache.MaxBytes = 0

	if err := Validate(cfg); err != nil {
		t.Errorf("cache rules should not apply when caching is disabled, got: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Proxy.ListenAddress = ""
	cfg.Upstream.Host = ""
	cfg.Auth.KeyFile = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors, got nil")
	}

	vErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(vErr.Errors) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(vErr.Errors), vErr.Errors)
	}
}

func TestValidateSweepScheduleMacros(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.SweepSchedule = "@every 5m"
	if err := Validate(cfg); err != nil {
		t.Errorf("@every macro should be accepted, got: %v", err)
	}

	cfg.Cache.SweepSchedule = "*/10 * * * *"
	if err := Validate(cfg); err != nil {
		t.Errorf("standard cron expression should be accepted, got: %v", err)
	}
}
