package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/barocast/barocast/agent/internal/config"
	"github.com/barocast/barocast/agent/internal/forecast"
	"github.com/barocast/barocast/agent/internal/sensor"
	"github.com/barocast/barocast/agent/internal/station"
	"github.com/barocast/barocast/pkg/types"
)

func newReplayCmd() *cobra.Command {
	var (
		altitude    float64
		seaLevel    bool
		pascals     bool
		imperial    bool
		changesOnly bool
	)

	cmd := &cobra.Command{
		Use:   "replay <file.csv>",
		Short: "Feed a recorded pressure series through the forecast engine",
		Long: `Each CSV row is one tick: pressure[,temperature]. Temperature is in
Celsius. Lines starting with '#' are ignored.`,
		Example: `  baroctl replay garden.csv --altitude 688
  baroctl replay sealevel.csv --sea-level --changes-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit := "hpa"
			if pascals {
				unit = "pa"
			}
			cfg := config.Station{
				ID:        "replay",
				AltitudeM: altitude,
				Source: config.Source{
					Type:         "replay",
					Path:         args[0],
					PressureUnit: unit,
					SeaLevel:     seaLevel,
				},
			}
			if altitude >= sensor.MaxAltitudeM {
				return fmt.Errorf("altitude %.0f out of range", altitude)
			}

			src, err := sensor.New(cfg)
			if err != nil {
				return err
			}
			st := station.New(cfg, src, !imperial)

			w := cmd.OutOrStdout()
			colorTitle.Fprintf(w, "%5s  %10s  %8s  %10s  %s\n", "tick", "hPa", "temp", "kPa/h", "forecast")

			start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
			samples := 0
			for {
				rep := st.Sample(context.Background(), start.Add(time.Duration(samples)*time.Minute))
				if rep.Error != "" {
					if rep.Error != sensor.ErrExhausted.Error() {
						return fmt.Errorf("replay: %s", rep.Error)
					}
					break
				}
				samples++
				if changesOnly && !rep.Changed.Any() {
					continue
				}
				printReport(cmd, rep)
			}

			final := st.State()
			colorMuted.Fprintf(w, "%d samples, tick %d, first cycle %v\n", samples, final.Tick, final.FirstCycle)
			if samples < 35 {
				warn(cmd.ErrOrStderr(), fmt.Sprintf("only %d samples: the first forecast needs 35", samples))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&altitude, "altitude", 0, "station altitude in metres, for sea-level correction")
	cmd.Flags().BoolVar(&seaLevel, "sea-level", false, "pressures are already sea-level corrected")
	cmd.Flags().BoolVar(&pascals, "pascals", false, "pressures are in Pa rather than hPa")
	cmd.Flags().BoolVar(&imperial, "imperial", false, "print temperatures in Fahrenheit")
	cmd.Flags().BoolVar(&changesOnly, "changes-only", false, "print only ticks where a value changed")
	return cmd
}

func printReport(cmd *cobra.Command, rep *types.Report) {
	w := cmd.OutOrStdout()
	temp := "-"
	if rep.Temperature != nil {
		temp = fmt.Sprintf("%.1f%s", *rep.Temperature, rep.TemperatureUnit)
	}
	fmt.Fprintf(w, "%5d  %10.2f  %8s  %10.4f  ", rep.Tick, rep.PressureHPa, temp, rep.TrendRate)
	cat := forecast.Category(rep.ForecastCode)
	categoryColor(cat).Fprintln(w, cat.String())
}
