package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "listo",
	Short: "Crime incident filtering, moderation and reporting",
	Long:  "Filters and pages community crime reports by date, month and category, moderates submissions, imports and exports spreadsheets, and serves the map and list views over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
