package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/rai-v/cvdyn/internal/analysis"
	"github.com/rai-v/cvdyn/internal/automation"
	"github.com/rai-v/cvdyn/internal/config"
	"github.com/rai-v/cvdyn/internal/experiment"
	"github.com/rai-v/cvdyn/internal/export"
	"github.com/rai-v/cvdyn/internal/optim"
	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
	"github.com/rai-v/cvdyn/internal/steady"
	"github.com/rai-v/cvdyn/internal/storage"
	"github.com/rai-v/cvdyn/internal/tui"
)

var (
	dataDir    string
	configFile string
	method     string
	tMin       float64
	tMax       float64
	tDim       int
	atol       float64
	rtol       float64
	params     []string
	measure    string
	modeI      int
	modeJ      int
	rangeMin   int
	rangeMax   int
	useCache   bool
	live       bool
	csvOut     string
	jsonOut    string
	svgOut     string

	sweepVar     string
	sweepMin     float64
	sweepMax     float64
	sweepDim     int
	sweepWorkers int

	lyapSteps  int
	lyapRenorm int
	lyapCount  int

	scanSpecs []string
	minimize  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cvdyn",
		Short: "classical-mode and covariance dynamics lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cvdyn", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	runCmd := &cobra.Command{
		Use:   "run [system]",
		Short: "integrate modes and correlations over time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTrajectory,
	}
	addSolverFlags(runCmd)
	addMeasureFlags(runCmd)
	runCmd.Flags().BoolVar(&useCache, "cache", false, "reuse cached trajectories")
	runCmd.Flags().BoolVar(&live, "live", false, "interactive trajectory viewer")
	runCmd.Flags().StringVar(&csvOut, "csv", "", "write trajectory to CSV file")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "write summary to JSON file")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write occupancy plot to SVG file")

	steadyCmd := &cobra.Command{
		Use:   "steady [system]",
		Short: "resolve steady states from the occupancy polynomial",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSteady,
	}
	steadyCmd.Flags().StringArrayVar(&params, "param", nil, "parameter override name=value")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [system]",
		Short: "estimate the Lyapunov spectrum",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLyapunov,
	}
	addSolverFlags(lyapunovCmd)
	lyapunovCmd.Flags().IntVar(&lyapSteps, "steps", 1000, "trajectory grid steps")
	lyapunovCmd.Flags().IntVar(&lyapRenorm, "renorm", 10, "steps between re-orthonormalizations")
	lyapunovCmd.Flags().IntVar(&lyapCount, "exponents", 0, "number of exponents (0 = all)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [system]",
		Short: "sweep a parameter and average a measure per point",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSolverFlags(sweepCmd)
	addMeasureFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepVar, "var", "", "swept parameter name")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "sweep start")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0, "sweep end")
	sweepCmd.Flags().IntVar(&sweepDim, "dim", 11, "sweep grid points")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "parallel workers (0 = NumCPU)")
	sweepCmd.Flags().StringVar(&csvOut, "csv", "", "write sweep points to CSV file")
	sweepCmd.Flags().StringVar(&svgOut, "svg", "", "write sweep plot to SVG file")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [system]",
		Short: "grid-search parameters for the best averaged measure",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runOptimize,
	}
	addSolverFlags(optimizeCmd)
	addMeasureFlags(optimizeCmd)
	optimizeCmd.Flags().StringArrayVar(&scanSpecs, "scan", nil, "scanned parameter name=min:max:dim (repeatable)")
	optimizeCmd.Flags().BoolVar(&minimize, "minimize", false, "minimize instead of maximize")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted batch of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	systemsCmd := &cobra.Command{
		Use:   "systems",
		Short: "list available systems and their parameters",
		RunE:  listSystems,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list cached runs",
		RunE:  listRuns,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "cvdyn.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, steadyCmd, lyapunovCmd, sweepCmd, optimizeCmd, batchCmd, systemsCmd, listCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&method, "method", "bdf", "integration method (bdf, rk45)")
	cmd.Flags().Float64Var(&tMin, "t-min", 0.0, "start time")
	cmd.Flags().Float64Var(&tMax, "t-max", 100.0, "end time")
	cmd.Flags().IntVar(&tDim, "t-dim", 1001, "output grid points")
	cmd.Flags().Float64Var(&atol, "atol", 1e-12, "absolute tolerance")
	cmd.Flags().Float64Var(&rtol, "rtol", 1e-6, "relative tolerance")
	cmd.Flags().StringArrayVar(&params, "param", nil, "parameter override name=value")
}

func addMeasureFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&measure, "measure", "occupancy", "measure (occupancy, entan_ln, sync_c, sync_p)")
	cmd.Flags().IntVar(&modeI, "mode-i", 0, "first mode index")
	cmd.Flags().IntVar(&modeJ, "mode-j", 1, "second mode index")
	cmd.Flags().IntVar(&rangeMin, "range-min", 0, "first averaged snapshot")
	cmd.Flags().IntVar(&rangeMax, "range-max", 0, "last averaged snapshot (0 = end)")
}

// buildConfig layers CLI flags over a config file, or over defaults
// when no file is given. Flags that were set explicitly always win.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.System.Name = args[0]
	}

	apply := func(name string, fn func()) {
		if cmd.Flags().Changed(name) {
			fn()
		}
	}
	apply("method", func() { cfg.Solver.Method = method })
	apply("t-min", func() { cfg.Solver.TMin = tMin })
	apply("t-max", func() { cfg.Solver.TMax = tMax })
	apply("t-dim", func() { cfg.Solver.TDim = tDim })
	apply("atol", func() { cfg.Solver.ATol = atol })
	apply("rtol", func() { cfg.Solver.RTol = rtol })
	apply("measure", func() { cfg.Measure.Type = measure })
	apply("mode-i", func() { cfg.Measure.ModeI = modeI })
	apply("mode-j", func() { cfg.Measure.ModeJ = modeJ })
	apply("range-min", func() { cfg.Measure.RangeMin = rangeMin })
	apply("range-max", func() { cfg.Measure.RangeMax = rangeMax })
	apply("var", func() { cfg.Sweep.Var = sweepVar })
	apply("min", func() { cfg.Sweep.Min = sweepMin })
	apply("max", func() { cfg.Sweep.Max = sweepMax })
	apply("dim", func() { cfg.Sweep.Dim = sweepDim })
	apply("workers", func() { cfg.Sweep.Workers = sweepWorkers })
	apply("cache", func() { cfg.Cache = useCache })
	apply("data", func() { cfg.DataDir = dataDir })

	if cfg.System.Params == nil {
		cfg.System.Params = make(map[string]float64)
	}
	for _, p := range params {
		name, value, err := splitParam(p)
		if err != nil {
			return nil, err
		}
		cfg.System.Params[name] = value
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitParam(s string) (string, float64, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			v, err := strconv.ParseFloat(s[i+1:], 64)
			if err != nil {
				return "", 0, fmt.Errorf("invalid parameter override %q: %w", s, err)
			}
			return s[:i], v, nil
		}
	}
	return "", 0, fmt.Errorf("invalid parameter override %q: want name=value", s)
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runTrajectory(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, stop := interruptContext()
	defer stop()

	exp := experiment.New(cfg)

	fmt.Printf("integrating %s (%s, t=[%g, %g], %d points)...\n",
		cfg.System.Name, cfg.Solver.Method, cfg.Solver.TMin, cfg.Solver.TMax, cfg.Solver.TDim)
	start := time.Now()
	traj, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	if live {
		return tui.Play(cfg.System.Name, traj)
	}

	n := len(traj.Modes[0])
	plots := n
	if plots > 4 {
		plots = 4
	}
	for i := 0; i < plots; i++ {
		data := make([]float64, traj.Len())
		for k := range data {
			data[k] = traj.Modes[k].Occupancy(i)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("mode %d occupancy vs time", i)),
		))
		fmt.Println()
	}

	fn, err := exp.MeasureFunc()
	if err != nil {
		return err
	}
	if traj.Corrs == nil && experiment.MeasureNeedsCorrs(cfg.Measure.Type) {
		return fmt.Errorf("%w: measure %q needs covariances, system %q is mode-only",
			quantum.ErrConfig, cfg.Measure.Type, cfg.System.Name)
	}
	final := fn(traj.FinalModes(), traj.FinalCorrs())
	fmt.Printf("final %s: %.6g\n", cfg.Measure.Type, final)

	if csvOut != "" {
		if err := writeTrajectoryCSV(csvOut, traj); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvOut)
	}
	if jsonOut != "" {
		if err := writeSummaryJSON(jsonOut, cfg, traj, final); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", jsonOut)
	}
	if svgOut != "" {
		if err := os.WriteFile(svgOut, []byte(export.TrajectorySVG(traj, 800, 400)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func runSteady(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg)
	sys, err := exp.Registry().Build(cfg.System.Name, cfg.System.Params)
	if err != nil {
		return err
	}
	model, ok := sys.(quantum.OccupancyModel)
	if !ok {
		return fmt.Errorf("system %s has no occupancy polynomial", cfg.System.Name)
	}

	sol, err := steady.Resolve(model, steady.DefaultOptions())
	if err != nil {
		return err
	}

	fmt.Printf("system: %s\n", cfg.System.Name)
	fmt.Printf("class: %s\n\n", sol.Class())
	if len(sol.Occupancies) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BRANCH\tOCCUPANCY\tMODES")
	for i, occ := range sol.Occupancies {
		modeStr := ""
		for _, a := range sol.Modes[i] {
			modeStr += fmt.Sprintf("%.4g%+.4gi  ", real(a), imag(a))
		}
		fmt.Fprintf(w, "%d\t%.6g\t%s\n", i, occ, modeStr)
	}
	return w.Flush()
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, stop := interruptContext()
	defer stop()

	exp := experiment.New(cfg)
	sys, err := exp.Registry().Build(cfg.System.Name, cfg.System.Params)
	if err != nil {
		return err
	}
	lin, ok := sys.(quantum.Linearized)
	if !ok {
		return fmt.Errorf("system %s has no drift matrix", cfg.System.Name)
	}

	opts := analysis.DefaultOptions()
	opts.Method = cfg.Solver.Method
	opts.ATol = cfg.Solver.ATol
	opts.RTol = cfg.Solver.RTol
	opts.TMin = cfg.Solver.TMin
	opts.TMax = cfg.Solver.TMax
	opts.Steps = lyapSteps
	opts.RenormEvery = lyapRenorm
	opts.Exponents = lyapCount

	fmt.Printf("estimating Lyapunov spectrum of %s (t=[%g, %g])...\n",
		cfg.System.Name, opts.TMin, opts.TMax)
	start := time.Now()
	spectrum, err := analysis.Spectrum(ctx, lin, opts)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tEXPONENT")
	for i, l := range spectrum {
		fmt.Fprintf(w, "%d\t%+.6g\n", i, l)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if spectrum[0] > 0 {
		fmt.Println("\nlargest exponent positive: trajectories diverge locally")
	} else {
		fmt.Println("\nlargest exponent non-positive: dynamics contract")
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Sweep.Var == "" {
		return fmt.Errorf("sweep requires --var")
	}
	ctx, stop := interruptContext()
	defer stop()

	exp := experiment.New(cfg)

	fmt.Printf("sweeping %s over %s in [%g, %g] (%d points)...\n",
		cfg.System.Name, cfg.Sweep.Var, cfg.Sweep.Min, cfg.Sweep.Max, cfg.Sweep.Dim)
	start := time.Now()
	points, err := exp.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	values := make([]float64, 0, len(points))
	failed := 0
	for _, pt := range points {
		if pt.Err != nil {
			failed++
			continue
		}
		values = append(values, pt.Value)
	}
	if len(values) > 1 {
		fmt.Println(asciigraph.Plot(values,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs %s", cfg.Measure.Type, cfg.Sweep.Var)),
		))
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", cfg.Sweep.Var, cfg.Measure.Type)
	for _, pt := range points {
		if pt.Err != nil {
			fmt.Fprintf(w, "%.6g\terror: %v\n", pt.X, pt.Err)
			continue
		}
		fmt.Fprintf(w, "%.6g\t%.6g\n", pt.X, pt.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		fmt.Printf("\n%d of %d points failed\n", failed, len(points))
	}

	if csvOut != "" {
		f, err := os.Create(csvOut)
		if err != nil {
			return err
		}
		defer f.Close()
		cw := csv.NewWriter(f)
		defer cw.Flush()
		if err := cw.Write([]string{cfg.Sweep.Var, cfg.Measure.Type}); err != nil {
			return err
		}
		for _, pt := range points {
			v := math.NaN()
			if pt.Err == nil {
				v = pt.Value
			}
			if err := cw.Write([]string{
				strconv.FormatFloat(pt.X, 'g', -1, 64),
				strconv.FormatFloat(v, 'g', -1, 64),
			}); err != nil {
				return err
			}
		}
		fmt.Printf("wrote %s\n", csvOut)
	}
	if svgOut != "" {
		if err := os.WriteFile(svgOut, []byte(export.SweepSVG(points, 800, 400)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

// parseScan reads name=min:max:dim into a grid axis.
func parseScan(s string) (optim.Axis, error) {
	eq := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			eq = i
			break
		}
	}
	if eq < 1 {
		return optim.Axis{}, fmt.Errorf("invalid scan %q: want name=min:max:dim", s)
	}
	var lo, hi float64
	var dim int
	if _, err := fmt.Sscanf(s[eq+1:], "%g:%g:%d", &lo, &hi, &dim); err != nil || dim < 1 {
		return optim.Axis{}, fmt.Errorf("invalid scan %q: want name=min:max:dim", s)
	}
	values := make([]float64, dim)
	for i := range values {
		if dim == 1 {
			values[i] = lo
			continue
		}
		values[i] = lo + (hi-lo)*float64(i)/float64(dim-1)
	}
	return optim.Axis{Name: s[:eq], Values: values}, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(scanSpecs) == 0 {
		return fmt.Errorf("optimize requires at least one --scan")
	}
	axes := make([]optim.Axis, 0, len(scanSpecs))
	for _, scan := range scanSpecs {
		axis, err := parseScan(scan)
		if err != nil {
			return err
		}
		axes = append(axes, axis)
	}
	ctx, stop := interruptContext()
	defer stop()

	if _, err := experiment.New(cfg).MeasureFunc(); err != nil {
		return err
	}

	fmt.Printf("searching %d axes for best %s of %s...\n",
		len(axes), cfg.Measure.Type, cfg.System.Name)
	start := time.Now()

	search := optim.NewGridSearch(axes, !minimize)
	bestParams, bestVal, ok := search.Search(ctx, func(ctx context.Context, overrides map[string]float64) (float64, error) {
		pointCfg := *cfg
		pointCfg.System.Params = make(map[string]float64, len(cfg.System.Params)+len(overrides))
		for k, v := range cfg.System.Params {
			pointCfg.System.Params[k] = v
		}
		for k, v := range overrides {
			pointCfg.System.Params[k] = v
		}
		return experiment.New(&pointCfg).Averaged(ctx)
	})
	fmt.Printf("completed in %v\n\n", time.Since(start))

	if !ok {
		return fmt.Errorf("no parameter combination evaluated successfully")
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	names := make([]string, 0, len(bestParams))
	for name := range bestParams {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.6g\n", name, bestParams[name])
	}
	fmt.Fprintf(w, "%s\t%.6g\n", cfg.Measure.Type, bestVal)
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ctx, stop := interruptContext()
	defer stop()

	fmt.Printf("scenario: %s (%d steps)\n", scenario.Name, len(scenario.Steps))
	if scenario.Description != "" {
		fmt.Println(scenario.Description)
	}
	fmt.Println()

	store := storage.New(dataDir)
	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), store)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSYSTEM\tMEASURE\tVALUE\tSAVED")
	for i, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "%d\t%s\t%s\terror: %v\t\n", i, res.Step.System, res.Step.Measure, res.Err)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.6g\t%s\n", i, res.Step.System, res.Step.Measure, res.Value, res.RunID)
	}
	return w.Flush()
}

func listSystems(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODES\tPARAMETERS")
	for _, name := range registry.List() {
		sys, err := registry.Build(name, nil)
		if err != nil {
			return err
		}
		paramStr := ""
		if cfgble, ok := sys.(quantum.Configurable); ok {
			names := make([]string, 0)
			for p := range cfgble.Params() {
				names = append(names, p)
			}
			sort.Strings(names)
			for i, p := range names {
				if i > 0 {
					paramStr += " "
				}
				paramStr += p
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, sys.NumModes(), paramStr)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no cached runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tMETHOD\tSPAN\tPOINTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t[%g, %g]\t%d\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Method,
			run.TMin, run.TMax,
			run.TDim,
		)
	}
	return w.Flush()
}

func writeTrajectoryCSV(path string, traj *solver.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	n := len(traj.Modes[0])
	header := []string{"time"}
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("re_a%d", i), fmt.Sprintf("im_a%d", i), fmt.Sprintf("occ%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for k := range traj.Times {
		row := []string{strconv.FormatFloat(traj.Times[k], 'g', -1, 64)}
		for i, a := range traj.Modes[k] {
			row = append(row,
				strconv.FormatFloat(real(a), 'g', -1, 64),
				strconv.FormatFloat(imag(a), 'g', -1, 64),
				strconv.FormatFloat(traj.Modes[k].Occupancy(i), 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummaryJSON(path string, cfg *config.Config, traj *solver.Trajectory, final float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	finalOcc := make([]float64, len(traj.Modes[0]))
	for i := range finalOcc {
		finalOcc[i] = traj.FinalModes().Occupancy(i)
	}
	summary := struct {
		System       string             `json:"system"`
		Params       map[string]float64 `json:"params,omitempty"`
		Method       string             `json:"method"`
		TMin         float64            `json:"t_min"`
		TMax         float64            `json:"t_max"`
		TDim         int                `json:"t_dim"`
		Measure      string             `json:"measure"`
		FinalMeasure float64            `json:"final_measure"`
		FinalOcc     []float64          `json:"final_occupancies"`
	}{
		System:       cfg.System.Name,
		Params:       cfg.System.Params,
		Method:       cfg.Solver.Method,
		TMin:         cfg.Solver.TMin,
		TMax:         cfg.Solver.TMax,
		TDim:         cfg.Solver.TDim,
		Measure:      cfg.Measure.Type,
		FinalMeasure: final,
		FinalOcc:     finalOcc,
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
