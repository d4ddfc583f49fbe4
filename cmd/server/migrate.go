package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soaringjerry/mindbridge/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.Driver == "memory" {
			return fmt.Errorf("migrate needs a SQL storage.driver, got %q", cfg.Storage.Driver)
		}
		ctx := cmd.Context()
		conn, err := db.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer conn.Close()

		names, err := db.MigrationNames(cfg.Storage.MigrationsDir)
		if err != nil {
			return err
		}
		if err := db.RunMigrations(ctx, conn, cfg.Storage.MigrationsDir); err != nil {
			return err
		}
		logger.Info("migrations applied",
			zap.String("driver", cfg.Storage.Driver),
			zap.Strings("files", names))
		return nil
	},
}
