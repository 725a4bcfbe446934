package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ollgate-hq/ollgate/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ollgate",
	Short: "Ollgate - authenticated caching proxy for local LLM inference",
	Long: `Ollgate is an authenticated caching reverse proxy that sits in front of
a local LLM inference server.

It forwards generate requests to the inference server, providing:
  - API key authentication with hot-reloaded key files
  - Content-addressed response caching with LRU eviction and TTL expiry
  - Optional persistent SQLite cache backend
  - Prometheus metrics and structured logging`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
