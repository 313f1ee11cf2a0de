package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/stocklens/stocklens/internal/model"
)

var (
	analyzeStrategy string
	analyzeWeb      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "Run a full strategy analysis for one ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := model.ParseStrategy(analyzeStrategy)
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Orchestrator.Analyze(cmd.Context(), args[0], strategy, analyzeWeb)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "encode result")
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeStrategy, "strategy", string(model.StrategyPhilTown), "analysis strategy (phil_town, high_growth)")
	analyzeCmd.Flags().BoolVar(&analyzeWeb, "web", true, "allow web search imputation for missing fields")
	rootCmd.AddCommand(analyzeCmd)
}
