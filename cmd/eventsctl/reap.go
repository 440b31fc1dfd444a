package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"events_backend/internals/bootstrap"
	"events_backend/internals/configs"
	"events_backend/internals/helpers/upload"
)

var reapDryRun bool

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Delete stored images no event references",
	RunE: withDB(func(cmd *cobra.Command, args []string, cfg *configs.AppConfig, db *gorm.DB) error {
		store, err := upload.New(cmd.Context(), bootstrap.StorageOptions(cfg.Storage))
		if err != nil {
			return err
		}
		r := bootstrap.NewReaper(cfg, store, db, reapDryRun)
		if r == nil {
			return errors.New("storage driver tidak mendukung listing")
		}
		res, err := r.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "scanned=%d candidates=%d deleted=%d failed=%d\n",
			res.Scanned, len(res.Candidates), res.Deleted, res.Failed)
		if reapDryRun {
			for _, name := range res.Candidates {
				fmt.Fprintln(out, name)
			}
		}
		return nil
	}),
}

func init() {
	reapCmd.Flags().BoolVar(&reapDryRun, "dry-run", false, "List candidates without deleting")
	rootCmd.AddCommand(reapCmd)
}
