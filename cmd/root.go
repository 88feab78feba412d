package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solo800/civic-stream/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "civic-stream",
	Short: "Legistar legislative matter scraper",
	Long:  "Fetches legislative matter records from any city's Legistar-hosted public API, normalizes them into one canonical schema, and writes timestamped JSON output files.",
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
