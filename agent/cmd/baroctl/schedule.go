package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/barocast/barocast/agent/internal/forecast"
)

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Print the trend checkpoint schedule and classification thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			colorTitle.Fprintf(w, "%5s  %12s  %12s\n", "tick", "first cycle", "later cycle")
			for _, cp := range forecast.Schedule() {
				colorKey.Fprintf(w, "%5d", cp.Tick)
				fmt.Fprintf(w, "  %11.1fh  %11.1fh\n", cp.FirstCycleHours, cp.LaterCycleHours)
			}

			fmt.Fprintln(w)
			colorTitle.Fprintln(w, "thresholds (kPa/h, open intervals)")
			rows := []struct {
				cat forecast.Category
				rng string
			}{
				{forecast.Thunderstorm, fmt.Sprintf("rate < %.2f", -forecast.ThresholdFast)},
				{forecast.Cloudy, fmt.Sprintf("%.2f < rate < %.2f", -forecast.ThresholdFast, -forecast.ThresholdSlow)},
				{forecast.Stable, fmt.Sprintf("%.2f < rate < %.2f", -forecast.ThresholdSlow, forecast.ThresholdSlow)},
				{forecast.Sunny, fmt.Sprintf("%.2f < rate < %.2f", forecast.ThresholdSlow, forecast.ThresholdFast)},
				{forecast.Unstable, fmt.Sprintf("rate > %.2f", forecast.ThresholdFast)},
			}
			for _, r := range rows {
				categoryColor(r.cat).Fprintf(w, "  %-13s", r.cat.String())
				fmt.Fprintln(w, r.rng)
			}
			colorMuted.Fprintln(w, "  exact boundaries and warm-up (ticks < 35) report unknown")
			return nil
		},
	}
}
