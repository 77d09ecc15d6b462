// Package cli contains the mlte command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	flagConfig     = "config"
	flagDebug      = "debug"
	flagInspector  = "inspector"
	flagInterval   = "interval"
	flagFormat     = "format"
	flagTrials     = "trials"
	flagPercentile = "percentile"
	flagEstimator  = "estimator"
	flagMeanMs     = "mean-ms"
	flagStdDevMs   = "stddev-ms"
	flagProgress   = "progress"
	flagHistogram  = "histogram"
	flagLogFile    = "log-file"

	// Output formats.
	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"

	// demoTrials is the trial count of the latency demo when neither a flag nor a config file
	// says otherwise.
	demoTrials = 100
)

// NewApp returns the mlte app writing results to out and diagnostics to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	r := &runner{}
	return &cli.App{
		Name:            "mlte",
		Usage:           "measure the resource consumption and latency of machine learning components",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated as it grows",
			},
			&cli.StringFlag{
				Name:  flagInspector,
				Usage: "process inspector to sample with (see `mlte inspectors`)",
			},
			&cli.DurationFlag{
				Name:  flagInterval,
				Usage: "wait between two polls of a process",
			},
			&cli.StringFlag{
				Name:  flagFormat,
				Value: formatText,
				Usage: "output format: text, table or json",
			},
		},
		Before: r.setup,
		After:  r.teardown,
		Commands: []*cli.Command{
			{
				Name:      "cpu",
				Usage:     "sample the cpu utilization of processes until they exit",
				ArgsUsage: "<pid> [pid...]",
				Action:    r.CPUAction,
			},
			{
				Name:      "memory",
				Usage:     "sample the resident memory of processes until they exit",
				ArgsUsage: "<pid> [pid...]",
				Action:    r.MemoryAction,
			},
			{
				Name:      "size",
				Usage:     "report the size of a model artifact on disk",
				ArgsUsage: "<path>",
				Action:    r.SizeAction,
			},
			{
				Name:  "latency",
				Usage: "measure the latency of a demo unit sleeping for a normally distributed duration",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagTrials,
						Usage: "number of invocations",
					},
					&cli.Float64Flag{
						Name:  flagPercentile,
						Usage: "tail percentile within [0, 1]",
					},
					&cli.StringFlag{
						Name:  flagEstimator,
						Usage: "quantile estimator: linear, empirical or gonum_lininterp",
					},
					&cli.Float64Flag{
						Name:  flagMeanMs,
						Value: 100,
						Usage: "mean sleep of the demo unit in milliseconds",
					},
					&cli.Float64Flag{
						Name:  flagStdDevMs,
						Value: 1,
						Usage: "standard deviation of the demo unit sleep in milliseconds",
					},
					&cli.BoolFlag{
						Name:  flagProgress,
						Value: true,
						Usage: "show a progress bar when stderr is a terminal",
					},
					&cli.IntFlag{
						Name:  flagHistogram,
						Usage: "print a histogram of the timings with this many `BINS`",
					},
				},
				Action: r.LatencyAction,
			},
			{
				Name:   "inspectors",
				Usage:  "list the available process inspectors",
				Action: r.InspectorsAction,
			},
		},
	}
}
