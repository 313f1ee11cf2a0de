package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stocklens/stocklens/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stocklens",
	Short: "Financial metrics with web-based gap imputation",
	Long:  "Fetches company fundamentals, detects fields a strategy needs but the provider lacks, recovers them from credible web sources, and computes the strategy's metric set.",
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
