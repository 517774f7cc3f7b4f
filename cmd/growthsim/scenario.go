package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/growthrates/internal/automation"
	"github.com/san-kum/growthrates/internal/experiment"
	"github.com/san-kum/growthrates/internal/storage"
)

func newScenarioCmd() *cobra.Command {
	var noSave bool
	cmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), log.With(logger, "scenario", scenario.Name))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tMODEL\tSTEPS\tFINAL\tMUMAX\tRUN")

			var st *storage.Store
			if !noSave {
				var closeStore func()
				st, closeStore, err = openStore()
				if err != nil {
					return err
				}
				defer closeStore()
			}

			for _, r := range results {
				runID := "-"
				if st != nil {
					nout := 0
					if r.Config.Outputs != nil {
						nout = *r.Config.Outputs
					} else if info, err := experiment.NewRegistry().Describe(r.Config.Model); err == nil {
						nout = info.NumOutputs
					}
					runID, err = st.Save(storage.RunMetadata{
						Model:      r.Config.Model,
						Integrator: r.Config.Integrator,
						Dt:         r.Config.Dt,
						Duration:   r.Config.Duration,
						Adaptive:   r.Config.Adaptive,
						Tolerance:  r.Config.Tolerance,
						Outputs:    nout,
						Params:     r.Config.Params,
						InitState:  r.Config.InitState,
					}, r.Result)
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%.6g\t%.6g\t%s\n",
					r.Name, r.Config.Model, r.Result.StepsTaken,
					r.Result.Metrics["final_biomass"], finiteOr(r.Result.Metrics["mumax_observed"], 0), runID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")
	return cmd
}
