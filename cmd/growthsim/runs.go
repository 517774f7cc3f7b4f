package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/growthrates/internal/config"
	"github.com/san-kum/growthrates/internal/experiment"
	"github.com/san-kum/growthrates/internal/storage"
)

func newListCmd() *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if settings.GetBool("catalog") {
				return listCatalog(cmd.Context(), model)
			}
			return listRuns(model)
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "only runs of this model")
	return cmd
}

func listRuns(model string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := st.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tDT\tINTEG\tSTEPS\tFINAL")

	shown := 0
	for _, run := range runs {
		if model != "" && run.Model != model {
			continue
		}
		final := "-"
		if v, ok := run.Metrics["final_biomass"]; ok {
			final = fmt.Sprintf("%.4g", v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.4f\t%s\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
			final,
		)
		shown++
	}

	if shown == 0 {
		fmt.Println("no runs found")
		return nil
	}
	return w.Flush()
}

func listCatalog(ctx context.Context, model string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cat, err := storage.OpenCatalog(catalogPath(settings.GetString("data")))
	if err != nil {
		return err
	}
	defer cat.Close()

	entries, err := cat.List(ctx, model)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tDT\tINTEG\tSTEPS\tFINAL")
	for _, e := range entries {
		final := "-"
		if e.FinalBiomass.Valid {
			final = fmt.Sprintf("%.4g", e.FinalBiomass.Float64)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.4f\t%s\t%d\t%s\n",
			e.ID, e.Model, e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Duration, e.Dt, e.Integrator, e.Steps, final)
	}
	return w.Flush()
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return plotRun(args[0])
		},
	}
}

func plotRun(runID string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(series.States))

	captions := stateCaptions(meta.Model, len(series.States[0]))
	for idx, caption := range captions {
		data := make([]float64, len(series.States))
		for i, x := range series.States {
			data[i] = x[idx]
		}
		fmt.Println(asciigraph.Plot(data, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption(caption)))
		fmt.Println()
	}

	// log total biomass, when recorded
	if len(series.Outputs) > 0 && len(series.Outputs[0]) > 1 {
		data := make([]float64, 0, len(series.Outputs))
		for _, out := range series.Outputs {
			if len(out) > 1 && !math.IsInf(out[1], 0) && !math.IsNaN(out[1]) {
				data = append(data, out[1])
			}
		}
		if len(data) > 1 {
			fmt.Println(asciigraph.Plot(data, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("log total biomass")))
		}
	}
	return nil
}

func stateCaptions(model string, dim int) []string {
	switch {
	case (model == "twostep" || model == "twostep_legacy") && dim == 2:
		return []string{"y1 inactive biomass", "y2 active biomass"}
	case model == "genlogistic" && dim == 1:
		return []string{"y biomass"}
	}
	captions := make([]string, dim)
	for i := range captions {
		captions[i] = fmt.Sprintf("x%d vs time", i)
	}
	return captions
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore()
			return writeTo(out, func(f *os.File) error { return st.ExportJSON(f, args[0]) })
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run's trajectory as csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore()
			return writeTo(out, func(f *os.File) error { return st.ExportCSV(f, args[0]) })
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func writeTo(path string, write func(f *os.File) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported to %s\n", path)
	return nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [model]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models := experiment.NewRegistry().ListModels()
			if len(args) == 1 {
				models = args[:1]
			}
			for _, model := range models {
				names := config.ListPresets(model)
				if len(names) == 0 {
					fmt.Printf("%s: no presets\n", model)
					continue
				}
				fmt.Printf("%s:\n", model)
				for _, name := range names {
					p := config.GetPreset(model, name)
					fmt.Printf("  %-10s %s dt=%g t=%g params=%v init=%v\n", name, p.Integrator, p.Dt, p.Duration, p.Params, p.InitState)
				}
			}
			return nil
		},
	}
}

func newModelsCmd() *cobra.Command {
	var routines bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "list growth models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := experiment.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

			if routines {
				fmt.Fprintln(w, "ROUTINE\tARITY")
				for _, r := range registry.Routines() {
					fmt.Fprintf(w, "%s\t%d\n", r.Name, r.Arity)
				}
				return w.Flush()
			}

			fmt.Fprintln(w, "MODEL\tPARAMS\tSTATE\tNOUT\tNOTE")
			for _, name := range registry.ListModels() {
				info, err := registry.Describe(name)
				if err != nil {
					return err
				}
				note := ""
				if info.Deprecated {
					note = "deprecated"
				}
				fmt.Fprintf(w, "%s\t%v\t%d\t%d..%d\t%s\n", info.Name, info.Params, info.StateDim, info.MinOutputs, info.NumOutputs, note)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&routines, "routines", false, "print the initializer/derivative routine table")
	return cmd
}
