package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/growthrates/internal/config"
	"github.com/san-kum/growthrates/internal/dynamo"
	"github.com/san-kum/growthrates/internal/experiment"
	"github.com/san-kum/growthrates/internal/growth"
	"github.com/san-kum/growthrates/internal/storage"
)

func newRunCmd() *cobra.Command {
	var (
		rf     runFlags
		noSave bool
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.resolve(cmd, args)
			if err != nil {
				return err
			}
			return runSimulation(cfg, !noSave, quiet)
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "skip the plot")
	return cmd
}

func runSimulation(cfg *config.Config, save, quiet bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry := experiment.NewRegistry()
	if info, err := registry.Describe(cfg.Model); err == nil && info.Deprecated {
		level.Warn(logger).Log("msg", "model is deprecated", "model", cfg.Model)
	}

	exp := experiment.New(toExperiment(cfg), registry)
	exp.SetLogger(log.With(logger, "component", "simulator"))
	if err := exp.Setup(registry.DefaultMetrics()); err != nil {
		return err
	}

	level.Info(logger).Log("msg", "running", "model", cfg.Model, "integrator", cfg.Integrator, "dt", cfg.Dt, "duration", cfg.Duration)
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		level.Warn(logger).Log("msg", "run stopped early", "err", e)
	}

	printSummary(exp.Model(), result)
	if !quiet {
		plotTotals(result.States)
	}

	if !save {
		return nil
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	nout := exp.Model().NumOutputs()
	if cfg.Outputs != nil {
		nout = *cfg.Outputs
	}
	runID, err := st.Save(storage.RunMetadata{
		Model:      cfg.Model,
		Integrator: cfg.Integrator,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Adaptive:   cfg.Adaptive,
		Tolerance:  cfg.Tolerance,
		Outputs:    nout,
		Params:     cfg.Params,
		InitState:  cfg.InitState,
	}, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved run: %s\n", runID)
	return nil
}

func printSummary(m growth.Model, result *dynamo.Result) {
	final := result.Final()
	fmt.Printf("model: %s\n", m.Name())
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if n := len(result.Times); n > 0 {
		fmt.Printf("t_end: %.4f\n", result.Times[n-1])
	}
	fmt.Printf("final state: %s\n", formatVector(final))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nMETRIC\tVALUE")
	for _, name := range sortedMetricNames(result.Metrics) {
		fmt.Fprintf(w, "%s\t%.6g\n", name, result.Metrics[name])
	}
	_ = w.Flush()
}

func plotTotals(states []dynamo.State) {
	if len(states) < 2 {
		return
	}
	totals := make([]float64, len(states))
	for i, x := range states {
		for _, v := range x {
			totals[i] += v
		}
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(totals,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("total biomass vs time"),
	))
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', 8, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func newEvalCmd() *cobra.Command {
	var (
		rf    runFlags
		state []float64
	)
	cmd := &cobra.Command{
		Use:   "eval [model]",
		Short: "evaluate the model's derivatives once",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.resolve(cmd, args)
			if err != nil {
				return err
			}

			m, err := experiment.NewRegistry().GetModel(cfg.Model)
			if err != nil {
				return err
			}
			params, err := experiment.ParamVector(m, cfg.Params)
			if err != nil {
				return err
			}
			if err := growth.Init(m, params); err != nil {
				return err
			}

			y := cfg.InitState
			if cmd.Flags().Changed("y") {
				y = state
			}
			nout := m.NumOutputs()
			if cfg.Outputs != nil {
				nout = *cfg.Outputs
			}

			ydot, yout, err := experiment.Evaluate(m, y, nout)
			if err != nil {
				return err
			}
			fmt.Printf("y    = %s\n", formatVector(y))
			fmt.Printf("ydot = %s\n", formatVector(ydot))
			fmt.Printf("yout = %s\n", formatVector(yout))
			if len(y) == 1 && y[0] != 0 {
				fmt.Printf("ydot/y = %.8g\n", ydot[0]/y[0])
			}
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().Float64SliceVar(&state, "y", nil, "state to evaluate at (default: initial state)")
	return cmd
}

func newLiveCmd() *cobra.Command {
	var rf runFlags
	cmd := &cobra.Command{
		Use:   "live [model]",
		Short: "real-time view of a growth curve",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.resolve(cmd, args)
			if err != nil {
				return err
			}
			return runLive(cfg)
		},
	}
	rf.register(cmd)
	return cmd
}

// finiteOr returns v, or def when v is not finite.
func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
