package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/magicbox/pkg/cli"
	"mercator-hq/magicbox/pkg/config"
	"mercator-hq/magicbox/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "magicbox",
	Short: "Magicbox - query-string driven REST resources over a schema",
	Long: `Magicbox exposes the models declared in a YAML schema as REST resources.

Each request's query string is decoded into a filter tree, relationship
includes, an aggregate and sort orders, and executed against SQLite or an
in-memory store:

  GET /api/person?filters[age]=>=18&filters[or][last_name]==smith&include=articles&sort[age]=desc

Configuration is read from a YAML file and MAGICBOX_* environment variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		_, err := logging.Setup(logging.Config{Level: level, Format: string(logging.FormatText)})
		return err
	},
}

// Execute runs the root command and exits with the code matching its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "magicbox.yaml", "config file path (missing file means defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig initializes the process-wide configuration from --config.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	cfg := config.GetConfig()
	slog.Debug("configuration loaded", "path", cfgFile, "backend", cfg.Storage.Backend)
	return cfg, nil
}
