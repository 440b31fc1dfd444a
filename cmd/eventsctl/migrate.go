package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"events_backend/internals/configs"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the events schema",
	RunE: withDB(func(cmd *cobra.Command, args []string, cfg *configs.AppConfig, db *gorm.DB) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "schema events siap")
		return err
	}),
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
