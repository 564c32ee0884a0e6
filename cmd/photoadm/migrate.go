package main

import (
	"fmt"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/config"
	"github.com/UnendingLoop/PhotoBlur/internal/repository"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.StoreBackend != config.BackendPostgres {
			return fmt.Errorf("backend %q has no schema", appConfig.StoreBackend)
		}
		if err := appConfig.RequireStore(); err != nil {
			return err
		}

		dbConn := repository.ConnectWithRetries(appConfig.PostgresDSN, 3, 2*time.Second)
		defer dbConn.Master.Close()

		if err := repository.RunMigrate(dbConn.Master, appConfig.MigrationsPath); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
