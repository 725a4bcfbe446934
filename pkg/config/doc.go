// Package config provides configuration management for ollgate.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// With LoadConfigWithEnvOverrides a missing file is tolerated: defaults plus
// the environment alone fully configure the proxy, which is the common
// container deployment mode.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention OLLGATE_SECTION_FIELD.
// For example:
//
//   - OLLGATE_UPSTREAM_HOST overrides upstream.host
//   - OLLGATE_AUTH_SALT overrides auth.salt
//   - OLLGATE_CACHE_TTL overrides cache.ttl
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	proxy:
//	  listen_address: "0.0.0.0:8000"
//
//	upstream:
//	  host: "ollama"
//	  port: 11434
//
//	auth:
//	  key_file: "/api_keys.txt"
//	  refresh_interval: 10s
//
//	cache:
//	  backend: "memory"
//	  max_bytes: 268435456
//	  ttl: 1h
package config
