package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"ollgate-hq/ollgate/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the server.

The file is parsed, defaults are applied, environment overrides are merged,
and the result is checked against the same rules the server enforces at
startup: listen address shape, refresh interval floor, cache backend, and
sweep schedule syntax.

Examples:
  # Validate the default config
  ollgate validate

  # Validate a specific file
  ollgate validate --config /etc/ollgate/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var vErr config.ValidationError
		if errors.As(err, &vErr) {
			fmt.Printf("✗ Configuration invalid: %s\n", cfgFile)
			for _, fe := range vErr.Errors {
				fmt.Printf("  - %s: %s\n", fe.Field, fe.Message)
			}
			return fmt.Errorf("%d validation error(s)", len(vErr.Errors))
		}
		return err
	}

	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
	fmt.Printf("  listen:   %s\n", cfg.Proxy.ListenAddress)
	fmt.Printf("  upstream: %s:%d\n", cfg.Upstream.Host, cfg.Upstream.Port)
	fmt.Printf("  key file: %s\n", cfg.Auth.KeyFile)
	if cfg.Cache.Enabled {
		fmt.Printf("  cache:    %s (%d MB, ttl %s)\n", cfg.Cache.Backend, cfg.Cache.MaxBytes>>20, cfg.Cache.TTL)
	} else {
		fmt.Println("  cache:    disabled")
	}
	return nil
}
