package main

import (
	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/spf13/cobra"
)

var maxPhotos int

var photosCmd = &cobra.Command{
	Use:   "photos <user-id>",
	Short: "List a user's photos, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer closeFn()

		limit := maxPhotos
		if limit <= 0 {
			limit = model.NoLimit
		}
		photos, err := store.ListPhotos(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		printPhotos(cmd.OutOrStdout(), photos)
		return nil
	},
}

func init() {
	photosCmd.Flags().IntVar(&maxPhotos, "max", 0, "show at most N photos (0 = all)")
	rootCmd.AddCommand(photosCmd)
}
