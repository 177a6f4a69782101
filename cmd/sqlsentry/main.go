// Package main implements the sqlsentry CLI: the two operator-facing
// entry points spec.md §6 names outside the request-serving pipeline
// itself (which is modeled as Go types/functions for server code to
// embed, not as a CLI command).
//
// # File Index
//
//   - main.go            - entry point, rootCmd, global flags, init()
//   - index_schemas.go   - indexSchemasCmd, runIndexSchemas()
//   - run_sentry.go      - runSentryCmd, runRunSentry()
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sqlsentry/internal/config"
	"sqlsentry/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "sqlsentry",
	Short: "SQL Sentry - hierarchical self-healing NL-to-SQL pipeline operator CLI",
	Long: `sqlsentry hosts the operator-facing maintenance commands for the SQL
Sentry pipeline: indexing the schema library and running the standalone
anomaly sentry. The NL-to-SQL pipeline itself is a library surface,
embedded by server code rather than driven from this CLI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded

		ws := cfg.Paths.Workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		logCfg := logging.Config{DebugMode: cfg.Logging.DebugMode || verbose, Level: cfg.Logging.Level, JSONFormat: cfg.Logging.JSONFormat}
		if err := logging.Initialize(ws, logCfg); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to sqlsentry config YAML (defaults applied when absent)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		indexSchemasCmd,
		runSentryCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
