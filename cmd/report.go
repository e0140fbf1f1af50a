package cmd

import (
	"os"

	"github.com/signalnine/optbench/internal/config"
	"github.com/signalnine/optbench/internal/report"
	"github.com/signalnine/optbench/internal/result"
	"github.com/spf13/cobra"
)

var flagFormat string

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [run-dir]",
		Short: "Recompute statistics from stored summary files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir string
			if len(args) > 0 {
				dir = args[0]
			}
			base := ""
			if dir == "" {
				cfg, err := config.Load(cfgFile)
				if err != nil {
					return err
				}
				base = cfg.Results.Dir
			}
			resolved, err := result.ResolveRunDir(base, dir)
			if err != nil {
				return err
			}
			return report.Generate(resolved, flagFormat, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json)")
	return cmd
}
