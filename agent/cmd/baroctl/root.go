package main

import (
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var noColor, verbose bool

	root := &cobra.Command{
		Use:   "baroctl",
		Short: "Barometric forecast toolbox",
		Long: `baroctl runs the barocast forecast engine offline.

Run 'baroctl <command> --help' for details on each command.
`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			level := slog.LevelError
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine decisions to stderr")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newReplayCmd(),
		newClassifyCmd(),
		newScheduleCmd(),
	)
	return root
}
