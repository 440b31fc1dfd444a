package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"events_backend/internals/bootstrap"
	"events_backend/internals/configs"
	database "events_backend/internals/databases"
)

// version diisi lewat -ldflags "-X main.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "eventsctl",
	Short:        "Maintenance commands for the events API",
	SilenceUsage: true,
}

func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		return err
	}
	return nil
}

// withDB loads config, opens and migrates the database, and closes it after run.
func withDB(run func(cmd *cobra.Command, args []string, cfg *configs.AppConfig, db *gorm.DB) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		configs.LoadEnv()
		cfg, err := configs.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		db, err := bootstrap.OpenDB(cfg)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer database.Close(db)
		return run(cmd, args, cfg, db)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
