package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"ollgate-hq/ollgate/pkg/cache"
	"ollgate-hq/ollgate/pkg/cli"
	"ollgate-hq/ollgate/pkg/config"
	"ollgate-hq/ollgate/pkg/proxy"
	"ollgate-hq/ollgate/pkg/security/auth"
	"ollgate-hq/ollgate/pkg/server"
	"ollgate-hq/ollgate/pkg/telemetry/logging"
	"ollgate-hq/ollgate/pkg/telemetry/metrics"
	"ollgate-hq/ollgate/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the proxy server",
	Long: `Start the proxy server with the specified configuration.

The server listens on the configured address, authenticates requests against
the key file, and forwards generate requests to the upstream inference server,
serving repeated requests from the cache.

Examples:
  # Start with default config
  ollgate run

  # Start with custom config
  ollgate run --config /etc/ollgate/config.yaml

  # Override listen address
  ollgate run --listen 0.0.0.0:8080

  # Validate config without starting server
  ollgate run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Ollgate v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	// Key store and refresh machinery
	keyStoreCfg := auth.KeyStoreConfig{
		KeyFile:         cfg.Auth.KeyFile,
		Salt:            cfg.Auth.Salt,
		RefreshInterval: cfg.Auth.RefreshInterval,
		GenerateIfEmpty: cfg.Auth.GenerateIfEmpty,
	}
	if collector != nil {
		keyStoreCfg.Observer = collector.Auth()
	}
	keyStore, err := auth.NewKeyStore(keyStoreCfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	go keyStore.Run(ctx)

	if cfg.Auth.Watch {
		watcher, err := auth.NewKeyFileWatcher(keyStore, cfg.Auth.KeyFile, logger)
		if err != nil {
			logger.Warn("key file watcher unavailable, relying on periodic refresh", "error", err)
		} else {
			go func() {
				if err := watcher.Watch(ctx); err != nil {
					logger.Warn("key file watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
		}
	}
	fmt.Printf("✓ Key store initialized (%d keys)\n", keyStore.Active().Len())

	// Response cache
	var store cache.Store
	var sweeper *cache.Sweeper
	if cfg.Cache.Enabled {
		var observer cache.Observer
		if collector != nil {
			observer = collector.Cache()
		}
		switch cfg.Cache.Backend {
		case "sqlite":
			store, err = cache.NewSQLiteStore(cache.SQLiteStoreConfig{
				DBPath:     cfg.Cache.SQLitePath,
				MaxBytes:   cfg.Cache.MaxBytes,
				MaxEntries: cfg.Cache.MaxEntries,
				TTL:        cfg.Cache.TTL,
				Observer:   observer,
			})
			if err != nil {
				return cli.NewCommandError("run", fmt.Errorf("failed to open cache database: %w", err))
			}
		default:
			store = cache.NewMemoryStore(cache.MemoryStoreConfig{
				MaxBytes:   cfg.Cache.MaxBytes,
				MaxEntries: cfg.Cache.MaxEntries,
				TTL:        cfg.Cache.TTL,
				Observer:   observer,
			})
		}
		defer store.Close()

		if cfg.Cache.SweepSchedule != "" {
			sweeper = cache.NewSweeper(store, cfg.Cache.SweepSchedule, logger)
			if err := sweeper.Start(ctx); err != nil {
				logger.Warn("failed to start cache sweeper", "error", err)
			} else {
				defer sweeper.Stop()
			}
		}
		fmt.Printf("✓ Cache initialized (%s backend, %d MB bound)\n",
			cfg.Cache.Backend, cfg.Cache.MaxBytes>>20)
	} else {
		fmt.Println("✓ Caching disabled, running as pass-through proxy")
	}

	// Upstream client
	client := upstream.NewClient(upstream.ClientConfig{
		Host:                cfg.Upstream.Host,
		Port:                cfg.Upstream.Port,
		Timeout:             cfg.Upstream.Timeout,
		HealthTimeout:       cfg.Upstream.HealthTimeout,
		MaxIdleConns:        cfg.Upstream.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Upstream.MaxIdleConnsPerHost,
	}, logger)

	// HTTP surface
	authenticator := auth.NewAuthenticator(keyStore)
	var recorder auth.RejectionRecorder
	if collector != nil {
		recorder = collector.Auth()
	}

	routes := server.Routes{
		CallModel: proxy.NewCallModelHandler(store, client, collector, proxy.HandlerConfig{
			MaxBodyBytes: cfg.Proxy.MaxBodyBytes,
		}, logger),
		Health:       proxy.NewHealthHandler(client, logger),
		Authenticate: authenticator.Middleware(recorder),
	}
	if collector != nil {
		routes.Metrics = collector.Handler()
	}

	srv := server.NewServer(&cfg.Proxy, routes)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Proxy.ListenAddress)
	fmt.Printf("✓ Upstream: %s\n", client.BaseURL())
	fmt.Printf("✓ Health endpoint: http://%s%s\n", cfg.Proxy.ListenAddress, proxy.HealthPath)
	if routes.Metrics != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Proxy.ListenAddress, server.MetricsPath)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Proxy.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Server stopped")
		return nil
	}
}
