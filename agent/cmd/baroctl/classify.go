package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/barocast/barocast/agent/internal/forecast"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <rate-kpa-per-hour>",
		Short: "Classify a pressure trend rate",
		Example: `  baroctl classify -0.3
  baroctl classify 0.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid rate %q: %w", args[0], err)
			}
			cat := forecast.Classify(rate)

			w := cmd.OutOrStdout()
			categoryColor(cat).Fprint(w, cat.String())
			fmt.Fprintf(w, " (%d): %s\n", int(cat), cat.Description())
			return nil
		},
	}
}
