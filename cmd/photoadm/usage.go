package main

import (
	"github.com/UnendingLoop/PhotoBlur/internal/ledger"
	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage <user-id>",
	Short: "Show bytes used by a user against the storage limit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer closeFn()

		quota := ledger.New(store)
		used, err := quota.UsedBytes(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printUsage(cmd.OutOrStdout(), args[0], used, quota.Limit())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
