package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soaringjerry/mindbridge/internal/config"
	"github.com/soaringjerry/mindbridge/internal/logging"
)

// Stamped with -ldflags "-X main.commit=... -X main.buildTime=...".
var (
	commit    string
	buildTime string
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "mindbridge",
	Short:         "MindBridge personality assessment API",
	Long:          "MindBridge serves Likert personality tests: sessions, an answer ledger, trait scoring and an AI companion.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return err
		}
		if cfg.Build.Commit == "" {
			cfg.Build.Commit = commit
		}
		if cfg.Build.Time == "" {
			cfg.Build.Time = buildTime
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config (overrides MINDBRIDGE_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
