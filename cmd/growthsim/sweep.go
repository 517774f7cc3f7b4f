package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/growthrates/internal/experiment"
	"github.com/san-kum/growthrates/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	var (
		rf       runFlags
		axes     []string
		metric   string
		maximize bool
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "run a parameter grid and report metrics",
		Example: `  growthsim sweep genlogistic --grid mumax=0.1:1:10 --grid K=5,10,20
  growthsim sweep twostep --grid kw=0.05:0.5:4 --metric doubling_time`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.resolve(cmd, args)
			if err != nil {
				return err
			}
			if len(axes) == 0 {
				return fmt.Errorf("at least one --grid axis is required")
			}
			grid, err := parseGrid(axes)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			registry := experiment.NewRegistry()
			base := toExperiment(cfg)
			build := func(params map[string]float64) (*experiment.Experiment, error) {
				ec := base
				ec.Params = make(map[string]float64, len(base.Params))
				for k, v := range base.Params {
					ec.Params[k] = v
				}
				for k, v := range params {
					ec.Params[k] = v
				}
				exp := experiment.New(ec, registry)
				if err := exp.Setup(registry.DefaultMetrics()); err != nil {
					return nil, err
				}
				return exp, nil
			}

			runner := sweep.Runner{Workers: workers, Logger: log.With(logger, "component", "sweep")}
			points, err := runner.Run(ctx, grid, build)
			if err != nil {
				return err
			}
			return printSweep(points, metric, maximize)
		},
	}
	rf.register(cmd)
	cmd.Flags().StringArrayVar(&axes, "grid", nil, "sweep axis, name=lo:hi:n or name=v1,v2 (repeatable)")
	cmd.Flags().StringVar(&metric, "metric", "final_biomass", "metric used to pick the best point")
	cmd.Flags().BoolVar(&maximize, "max", false, "pick the largest metric value instead of the smallest")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = all)")
	return cmd
}

func printSweep(points []sweep.Point, metric string, maximize bool) error {
	var names []string
	for _, p := range points {
		if p.Err == nil {
			names = sortedMetricNames(p.Metrics)
			break
		}
	}
	var params []string
	if len(points) > 0 {
		params = sortedMetricNames(points[0].Params)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(append(append([]string{}, params...), names...), "\t")))
	for _, p := range points {
		row := make([]string, 0, len(params)+len(names))
		for _, k := range params {
			row = append(row, fmt.Sprintf("%.4g", p.Params[k]))
		}
		if p.Err != nil {
			row = append(row, "error: "+p.Err.Error())
		} else {
			for _, k := range names {
				row = append(row, fmt.Sprintf("%.6g", finiteOr(p.Metrics[k], 0)))
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	best, ok := sweep.Best(points, metric, maximize)
	if !ok {
		fmt.Printf("\nno point has a finite %s\n", metric)
		return nil
	}
	fmt.Printf("\nbest %s = %.6g at %v\n", metric, best.Metrics[metric], best.Params)
	return nil
}
