package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/stocklens/stocklens/internal/catalog"
	"github.com/stocklens/stocklens/internal/model"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields STRATEGY",
	Short: "List the fields a strategy requires, by tier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := model.ParseStrategy(args[0])
		if err != nil {
			return err
		}

		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		set, err := cat.For(strategy)
		if err != nil {
			return err
		}

		out := struct {
			Strategy     model.Strategy        `json:"strategy"`
			Requirements []catalog.Requirement `json:"requirements"`
		}{set.Strategy, set.Requirements}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return eris.Wrap(err, "encode requirements")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
