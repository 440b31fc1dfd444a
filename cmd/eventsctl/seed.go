package main

import (
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"events_backend/internals/configs"
	"events_backend/internals/seeds"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file.json]",
	Short: "Insert events from a JSON array",
	Args:  cobra.MaximumNArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, cfg *configs.AppConfig, db *gorm.DB) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		}
		return seeds.RunAllSeeds(cmd.Context(), db, path)
	}),
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
