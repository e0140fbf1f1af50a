package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/signalnine/optbench/internal/config"
	"github.com/signalnine/optbench/internal/objective"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List benchmark functions and configured batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			suite := objective.CEC2017()
			fmt.Println("Functions:")
			for _, id := range suite.IDs() {
				fmt.Printf("  - F%d %s (optimum %g)\n", id, suite.Name(id), suite[id].Bias)
			}

			cfg, err := config.Load(cfgFile)
			if err != nil {
				log.Warn().Err(err).Msg("no usable config, skipping batches")
				return nil
			}
			fmt.Printf("\nBatches (%d runs each, seed %d, optimizer %s):\n", cfg.Runs, cfg.Seed, cfg.Optimizer.Name)
			for _, t := range cfg.Trials() {
				fmt.Printf("  - F%d D%d budget %d\n", t.FunctionID, t.Dimension, t.Control.Budget)
			}
			return nil
		},
	}
}
