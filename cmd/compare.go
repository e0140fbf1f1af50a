package cmd

import (
	"fmt"
	"os"

	"github.com/signalnine/optbench/internal/compare"
	"github.com/signalnine/optbench/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagCompareFunction  int
	flagCompareDimension int
	flagCompareOut       string
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <run-dir-a> <run-dir-b>",
		Short: "Compare two runs of the same batch",
		Args:  cobra.ExactArgs(2),
		RunE:  runCompare,
	}
	cmd.Flags().IntVar(&flagCompareFunction, "function", 0, "function id (default: the only batch both runs share)")
	cmd.Flags().IntVar(&flagCompareDimension, "dimension", 0, "dimension (default: the only batch both runs share)")
	cmd.Flags().StringVar(&flagCompareOut, "out", "", "bands CSV path (default comparison_f<F>_d<D>.csv)")
	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	key, err := pickKey(args[0], args[1], flagCompareFunction, flagCompareDimension)
	if err != nil {
		return err
	}
	c, err := compare.Run(args[0], args[1], key)
	if err != nil {
		return err
	}

	out := flagCompareOut
	if out == "" {
		out = fmt.Sprintf("comparison_%s.csv", key)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := compare.WriteBandsCSV(f, c); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	if err := compare.WriteText(os.Stdout, c); err != nil {
		return err
	}
	fmt.Printf("Bands written to %s\n", out)
	return nil
}

// pickKey uses the given function and dimension, filling a missing one from
// the batches both directories share. It fails unless exactly one batch
// matches.
func pickKey(dirA, dirB string, function, dimension int) (store.Key, error) {
	keysA, err := store.Keys(dirA)
	if err != nil {
		return store.Key{}, err
	}
	keysB, err := store.Keys(dirB)
	if err != nil {
		return store.Key{}, err
	}
	inB := make(map[store.Key]bool, len(keysB))
	for _, k := range keysB {
		inB[k] = true
	}
	var matches []store.Key
	for _, k := range keysA {
		if !inB[k] {
			continue
		}
		if function != 0 && k.FunctionID != function {
			continue
		}
		if dimension != 0 && k.Dimension != dimension {
			continue
		}
		matches = append(matches, k)
	}
	switch len(matches) {
	case 0:
		return store.Key{}, fmt.Errorf("no batch (function %d, dimension %d) present in both runs", function, dimension)
	case 1:
		return matches[0], nil
	default:
		return store.Key{}, fmt.Errorf("%d batches present in both runs, pick one with --function and --dimension", len(matches))
	}
}
