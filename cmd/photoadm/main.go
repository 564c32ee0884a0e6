// Package main provides photoadm, an operator CLI for the photo store
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/config"
	"github.com/UnendingLoop/PhotoBlur/internal/repository"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

var rootCmd = &cobra.Command{
	Use:           "photoadm",
	Short:         "Operator tools for the PhotoBlur store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		appConfig = cfg
		zlog.InitConsole()
		return zlog.SetLevel(cfg.LogLevel)
	},
}

// заполняется в PersistentPreRunE
var appConfig *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openStore connects to Postgres; the memory backend has nothing to inspect.
func openStore(cfg *config.Config) (repository.Store, func(), error) {
	if cfg.StoreBackend != config.BackendPostgres {
		return nil, nil, fmt.Errorf("backend %q keeps no persistent data", cfg.StoreBackend)
	}
	if err := cfg.RequireStore(); err != nil {
		return nil, nil, err
	}

	dbConn := repository.ConnectWithRetries(cfg.PostgresDSN, 3, 2*time.Second)
	closeFn := func() {
		if err := dbConn.Master.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to close DB-conn correctly:", err)
		}
	}
	return repository.NewPostgresStore(dbConn), closeFn, nil
}
