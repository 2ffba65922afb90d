package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edit0rsky/NumberGame/internal/bench"
	"github.com/edit0rsky/NumberGame/internal/solver"
)

func newBenchCmd() *cobra.Command {
	var (
		games        int
		workers      int
		digits       []int
		difficulties []string
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure how many guesses each strategy needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := bench.Options{Digits: digits, Games: games, Workers: workers}
			for _, d := range difficulties {
				parsed, err := solver.ParseDifficulty(d)
				if err != nil {
					return err
				}
				opts.Difficulties = append(opts.Difficulties, parsed)
			}
			stats, err := bench.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, st := range stats {
				fmt.Fprintln(out, st)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&games, "games", "g", 200, "games per difficulty and digit count")
	f.IntVarP(&workers, "workers", "w", 4, "concurrent games")
	f.IntSliceVarP(&digits, "digits", "n", []int{3, 4}, "code lengths to play")
	f.StringSliceVarP(&difficulties, "difficulty", "d", []string{"easy", "hard", "random"}, "strategies to play")
	return cmd
}
