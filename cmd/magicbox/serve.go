package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/magicbox/pkg/cli"
	"mercator-hq/magicbox/pkg/config"
	"mercator-hq/magicbox/pkg/repository"
	"mercator-hq/magicbox/pkg/schema"
	"mercator-hq/magicbox/pkg/server"
	"mercator-hq/magicbox/pkg/storage"
	"mercator-hq/magicbox/pkg/storage/memory"
	"mercator-hq/magicbox/pkg/storage/sqlite"
	"mercator-hq/magicbox/pkg/telemetry/health"
	"mercator-hq/magicbox/pkg/telemetry/logging"
	"mercator-hq/magicbox/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with the specified configuration.

The schema is loaded, tables are created for models that have none (sqlite
backend) and every model is served under the configured base path.

Examples:
  # Start with default config
  magicbox serve

  # Start with custom config
  magicbox serve --config /etc/magicbox/magicbox.yaml

  # Override listen address
  magicbox serve --listen 0.0.0.0:8080

  # Validate config and schema without starting the server
  magicbox serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and schema without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	logger, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	reg, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return cli.NewConfigError(cfg.Schema.Path, err)
	}
	opts, err := repository.OptionsFromConfig(cfg)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	out := cmd.OutOrStdout()
	if serveFlags.dryRun {
		fmt.Fprintf(out, "✓ Configuration valid (%d models)\n", len(reg.Models()))
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}
	checker := health.New(0)

	backend, err := openBackend(ctx, cfg, reg, collector)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer backend.close()
	checker.RegisterCheck("storage", backend.ping)

	holder := schema.NewHolder(reg)
	checker.RegisterCheck("schema", func(context.Context) error {
		if r := holder.Registry(); r == nil || len(r.Models()) == 0 {
			return fmt.Errorf("no models loaded")
		}
		return nil
	})

	if cfg.Schema.Watch {
		watcher, err := schema.NewWatcher(cfg.Schema.Path, holder, 0)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		watcher.BeforeSwap = func(reg *schema.Registry) error {
			return backend.migrate(ctx, reg)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("schema watcher failed", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	srv := server.NewServer(cfg, holder, backend.store, server.Options{
		Repository: opts,
		Collector:  collector,
		Checker:    checker,
		Version:    versionInfo(),
	})

	printBanner(cmd, cfg, reg)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// backend bundles the store with its lifecycle hooks.
type backend struct {
	store   storage.Store
	ping    health.CheckFunc
	migrate func(ctx context.Context, reg *schema.Registry) error
	close   func()
}

func openBackend(ctx context.Context, cfg *config.Config, reg *schema.Registry, collector *metrics.Collector) (*backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		store := memory.New()
		return &backend{
			store:   store,
			ping:    func(context.Context) error { return nil },
			migrate: func(context.Context, *schema.Registry) error { return nil },
			close:   func() { _ = store.Close() },
		}, nil

	case "sqlite":
		var recorder storage.Recorder
		if collector != nil {
			recorder = collector
		}
		sc := cfg.Storage.SQLite
		store, err := sqlite.New(&sqlite.Config{
			Path:            sc.Path,
			Driver:          sc.Driver,
			MaxOpenConns:    sc.MaxOpenConns,
			MaxIdleConns:    sc.MaxIdleConns,
			WALMode:         sc.WALMode,
			BusyTimeout:     sc.BusyTimeout,
			AnalyzeSchedule: sc.AnalyzeSchedule,
		}, recorder)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		if err := store.Migrate(ctx, reg); err != nil {
			_ = store.Close()
			return nil, err
		}

		maintainer := sqlite.NewMaintainer(store)
		if err := maintainer.Start(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		if next := maintainer.NextRun(); next != nil {
			slog.Debug("sqlite maintainer scheduled", "next_run", next)
		}

		return &backend{
			store: store,
			ping:  func(ctx context.Context) error { return store.DB().PingContext(ctx) },
			migrate: func(ctx context.Context, reg *schema.Registry) error {
				return store.Migrate(ctx, reg)
			},
			close: func() {
				maintainer.Stop()
				_ = store.Close()
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

func printBanner(cmd *cobra.Command, cfg *config.Config, reg *schema.Registry) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Magicbox v%s\n", Version)
	fmt.Fprintf(out, "✓ Schema loaded from %s (%d models)\n", cfg.Schema.Path, len(reg.Models()))
	fmt.Fprintf(out, "✓ Storage: %s\n", cfg.Storage.Backend)
	fmt.Fprintf(out, "✓ Listening on http://%s%s/{model}\n", cfg.Server.ListenAddress, cfg.Server.BasePath)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
