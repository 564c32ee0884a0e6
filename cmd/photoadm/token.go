package main

import (
	"fmt"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/identity"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a session token for a user (local testing)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appConfig.RequireSession(); err != nil {
			return err
		}
		ids := identity.NewProvider(appConfig.SessionSecret, appConfig.SessionCookie, appConfig.LoginURL, appConfig.LogoutURL)

		token, err := ids.IssueToken(args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
