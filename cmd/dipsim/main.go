package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/config"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/metrics"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/plant"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/pso"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/sim"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/smc"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/storage"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string

	dt         float64
	duration   float64
	seed       int64
	model      string
	integrator string
	gainsFlag  string

	x0pos  float64
	theta1 float64
	theta2 float64
	vx     float64
	omega1 float64
	omega2 float64

	frameRate int
	realtime  bool

	particles  int
	iterations int
	spread     float64
	samples    int
	noProgress bool

	xAxis int
	yAxis int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dipsim",
		Short: "double inverted pendulum sliding mode control lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dipsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [controller]",
		Short: "run a closed-loop simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [controller]",
		Short: "tune controller gains with particle swarm optimization",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneGains,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().IntVar(&particles, "particles", 0, "swarm size (0 uses config)")
	tuneCmd.Flags().IntVar(&iterations, "iterations", 0, "iteration budget (0 uses config)")
	tuneCmd.Flags().Float64Var(&spread, "spread", 0.0, "initial-condition spread for robustness sampling")
	tuneCmd.Flags().IntVar(&samples, "samples", 1, "initial conditions per evaluation")
	tuneCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress view")

	liveCmd := &cobra.Command{
		Use:   "live [controller]",
		Short: "run a simulation with live terminal rendering",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().BoolVar(&realtime, "realtime", true, "pace the simulation to wall time")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", dynamo.IdxAngle1, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", dynamo.IdxRate1, "state index for y-axis")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [controller]",
		Short: "benchmark simulation throughput",
		Args:  cobra.ExactArgs(1),
		RunE:  benchController,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [controller] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same closed loop",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	compareCmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	compareCmd.Flags().Float64Var(&theta1, "theta1", 0.1, "initial link 1 angle")
	compareCmd.Flags().Float64Var(&theta2, "theta2", 0.1, "initial link 2 angle")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			if len(names) == 0 {
				fmt.Println("no presets")
				return nil
			}
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, tuneCmd, liveCmd, listCmd, plotCmd, phaseCmd,
		exportCmd, exportCSVCmd, benchCmd, compareCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&model, "model", "simplified", "plant model (simplified, full, lowrank)")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4, rk45)")
	cmd.Flags().StringVar(&gainsFlag, "gains", "", "comma-separated controller gains")
	cmd.Flags().Float64Var(&x0pos, "x", 0.0, "initial cart position")
	cmd.Flags().Float64Var(&theta1, "theta1", 0.1, "initial link 1 angle")
	cmd.Flags().Float64Var(&theta2, "theta2", 0.1, "initial link 2 angle")
	cmd.Flags().Float64Var(&vx, "vx", 0.0, "initial cart velocity")
	cmd.Flags().Float64Var(&omega1, "omega1", 0.0, "initial link 1 rate")
	cmd.Flags().Float64Var(&omega2, "omega2", 0.0, "initial link 2 rate")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "scenario preset")
}

// loadConfig resolves the effective configuration: preset, then config
// file, then CLI flags on top.
func loadConfig(cmd *cobra.Command, controllerName string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = model
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("x") {
		cfg.InitState.X = x0pos
	}
	if cmd.Flags().Changed("theta1") {
		cfg.InitState.Theta1 = theta1
	}
	if cmd.Flags().Changed("theta2") {
		cfg.InitState.Theta2 = theta2
	}
	if cmd.Flags().Changed("vx") {
		cfg.InitState.VX = vx
	}
	if cmd.Flags().Changed("omega1") {
		cfg.InitState.Omega1 = omega1
	}
	if cmd.Flags().Changed("omega2") {
		cfg.InitState.Omega2 = omega2
	}

	cfg.Controller = controllerName
	return cfg, cfg.Validate()
}

func parseGains(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	gains := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad gain %q: %w", p, err)
		}
		gains[i] = v
	}
	return gains, nil
}

func buildRunner(cfg *config.Config, gains []float64) (*sim.Runner, smc.Controller, plant.Model, error) {
	plantModel, err := cfg.NewModel()
	if err != nil {
		return nil, nil, nil, err
	}
	integ, err := cfg.NewIntegrator()
	if err != nil {
		return nil, nil, nil, err
	}
	ctrl, err := smc.NewFromName(cfg.Controller, gains, cfg, cfg.ControllerOptions())
	if err != nil {
		return nil, nil, nil, err
	}

	runner := sim.NewRunner(plantModel, integ, ctrl)
	runner.AddMetric(metrics.NewControlEffort())
	runner.AddMetric(metrics.NewChattering())
	runner.AddMetric(metrics.NewStability(metrics.DefaultUprightAngle, metrics.DefaultUprightRate))
	runner.AddMetric(metrics.NewEnergyDrift(plantModel))
	return runner, ctrl, plantModel, nil
}

func simOptions(cfg *config.Config) sim.Options {
	return sim.Options{
		Dt:          cfg.Dt,
		Steps:       cfg.Steps(),
		EnergyLimit: cfg.Guards.EnergyLimit,
		StateBounds: cfg.Guards.ToBounds(),
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	gains, err := parseGains(gainsFlag)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runner, ctrl, plantModel, err := buildRunner(cfg, gains)
	if err != nil {
		return err
	}

	fmt.Printf("running %s on %s plant...\n", ctrl.Type(), cfg.Model)
	start := time.Now()

	result, err := runner.Run(context.Background(), cfg.InitState.ToState(), simOptions(cfg))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.SaveRun(cfg.Model, cfg.Integrator, ctrl.Type().String(), ctrl.Gains(),
		cfg.Dt, cfg.Duration, cfg.Seed, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if result.Failed {
		fmt.Printf("stopped: %s\n", result.FailReason)
	}
	if result.Settled {
		fmt.Println("settled before the full horizon")
	}

	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	mon := plantModel.Monitor().Stats()
	fmt.Printf("\nsolver: %d solves, %d regularized, %d pseudo-inverse, worst cond %.3g\n",
		mon.Solves, mon.Regularized, mon.PseudoInverse, mon.WorstCond)

	return nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	typ, err := smc.ParseType(cfg.Controller)
	if err != nil {
		return err
	}

	if particles > 0 {
		cfg.PSO.Particles = particles
	}
	if iterations > 0 {
		cfg.PSO.Iterations = iterations
	}
	if cmd.Flags().Changed("seed") {
		cfg.PSO.Seed = seed
	}

	plantModel, err := cfg.NewModel()
	if err != nil {
		return err
	}

	x0s := evaluationStates(cfg, samples, spread)

	evaluator := &pso.SimEvaluator{
		Model:          plantModel,
		Type:           typ,
		ControllerOpts: cfg.ControllerOptions(),
		SimOpts: sim.BatchOptions{
			Options: sim.Options{
				Dt:          cfg.Dt,
				Steps:       cfg.Steps(),
				EnergyLimit: cfg.Guards.EnergyLimit,
				StateBounds: cfg.Guards.ToBounds(),
			},
			NewIntegrator: func() dynamo.Integrator {
				integ, _ := cfg.NewIntegrator()
				return integ
			},
		},
		Weights: cfg.Cost.ToWeights(),
		X0s:     x0s,
	}

	tunerCfg := pso.Config{
		Particles:         cfg.PSO.Particles,
		Iterations:        cfg.PSO.Iterations,
		InertiaStart:      cfg.PSO.InertiaStart,
		InertiaEnd:        cfg.PSO.InertiaEnd,
		Cognitive:         cfg.PSO.Cognitive,
		Social:            cfg.PSO.Social,
		VelocityClampFrac: cfg.PSO.VelocityClamp,
		Bounds:            cfg.SearchBounds(typ),
		Seed:              cfg.PSO.Seed,
	}

	tuner, err := pso.NewTuner(tunerCfg, evaluator)
	if err != nil {
		return err
	}

	fmt.Printf("tuning %s: %d particles, %d iterations, %d evaluation states\n",
		typ, tunerCfg.Particles, tunerCfg.Iterations, len(x0s))

	var best []float64
	var cost float64
	var history []pso.IterationStats

	if noProgress {
		start := time.Now()
		best, cost, history, err = tuner.Optimize(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("completed in %v\n", time.Since(start))
	} else {
		best, cost, history, err = tuneWithProgress(typ.String(), tunerCfg.Iterations, tuner)
		if err != nil {
			return err
		}
	}

	fmt.Printf("\nbest cost: %.6g\n", cost)
	fmt.Println("best gains:")
	spec := smc.SpecFor(typ)
	for i, g := range best {
		fmt.Printf("  %s = %.4f\n", spec.Names[i], g)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.SaveTuning(typ.String(), cfg.PSO.Seed, best, cost, history)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved as %s\n", id)
	fmt.Printf("replay with: dipsim run %s --gains %s\n", typ, formatGains(best))

	return nil
}

// tuneWithProgress runs the tuner in the background and streams iteration
// stats into the progress view.
func tuneWithProgress(controller string, total int, tuner *pso.Tuner) ([]float64, float64, []pso.IterationStats, error) {
	updates := make(chan tea.Msg, 16)

	var best []float64
	var cost float64
	var history []pso.IterationStats
	var tuneErr error

	go func() {
		defer close(updates)
		best, cost, history, tuneErr = tuner.Optimize(context.Background())
		if tuneErr == nil {
			sent := 0
			for _, stats := range history {
				if sent >= total {
					break
				}
				updates <- tui.StatsMsg(stats)
				sent++
			}
			updates <- tui.DoneMsg{BestGains: best, BestCost: cost}
		}
	}()

	p := tea.NewProgram(tui.NewTuningView(controller, total, updates))
	if _, err := p.Run(); err != nil {
		return nil, 0, nil, err
	}
	if tuneErr != nil {
		return nil, 0, nil, tuneErr
	}
	return best, cost, history, nil
}

func evaluationStates(cfg *config.Config, n int, spread float64) []dynamo.State {
	base := cfg.InitState.ToState()
	if n <= 1 || spread <= 0 {
		return []dynamo.State{base}
	}

	scale := []float64{spread, spread, spread, 0, 0, 0}
	return sim.DrawPerturbed(base, scale, n, cfg.PSO.Seed)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	gains, err := parseGains(gainsFlag)
	if err != nil {
		return err
	}

	runner, _, _, err := buildRunner(cfg, gains)
	if err != nil {
		return err
	}

	renderer := tui.NewLiveRenderer(frameRate)
	runner.AddObserver(renderer)
	if realtime {
		runner.AddObserver(pacer{dt: cfg.Dt})
	}

	renderer.Start()
	defer renderer.Stop()

	result, err := runner.Run(context.Background(), cfg.InitState.ToState(), simOptions(cfg))
	if err != nil {
		return err
	}
	if result.Failed {
		fmt.Printf("\nstopped: %s\n", result.FailReason)
	}
	return nil
}

// pacer slows the loop to wall time for live rendering.
type pacer struct {
	dt float64
}

func (p pacer) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	time.Sleep(time.Duration(p.dt * float64(time.Second)))
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tCTRL\tTIME\tDURATION\tDT\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Failed {
			status = "failed: " + run.FailReason
		} else if run.Settled {
			status = "settled"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%s\n",
			run.ID,
			run.Model,
			run.Controller,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			status,
		)
	}

	return w.Flush()
}

var plotCaptions = map[int]string{
	dynamo.IdxCartPos: "cart position",
	dynamo.IdxAngle1:  "link 1 angle",
	dynamo.IdxAngle2:  "link 2 angle",
	dynamo.IdxCartVel: "cart velocity",
	dynamo.IdxRate1:   "link 1 rate",
	dynamo.IdxRate2:   "link 2 rate",
	dynamo.StateSize:  "control force",
	dynamo.StateSize + 1: "sliding surface",
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s, controller: %s\n", meta.Model, meta.Controller)
	fmt.Printf("samples: %d\n\n", len(states))

	for varIdx := 0; varIdx < len(states[0]); varIdx++ {
		data := make([]float64, len(states))
		for i := range states {
			if varIdx < len(states[i]) {
				data[i] = states[i][varIdx]
			}
		}

		caption, ok := plotCaptions[varIdx]
		if !ok {
			caption = fmt.Sprintf("x%d vs time", varIdx)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}
	if len(states[0]) <= xAxis || len(states[0]) <= yAxis {
		return fmt.Errorf("state dimension too small for selected axes")
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("x-axis: x%d, y-axis: x%d\n\n", xAxis, yAxis)

	xData := make([]float64, len(states))
	yData := make([]float64, len(states))
	for i := range states {
		xData[i] = states[i][xAxis]
		yData[i] = states[i][yAxis]
	}

	xMin, xMax := xData[0], xData[0]
	yMin, yMax := yData[0], yData[0]
	for i := range xData {
		if xData[i] < xMin {
			xMin = xData[i]
		}
		if xData[i] > xMax {
			xMax = xData[i]
		}
		if yData[i] < yMin {
			yMin = yData[i]
		}
		if yData[i] > yMax {
			yMax = yData[i]
		}
	}

	xRange := xMax - xMin
	yRange := yMax - yMin
	if xRange == 0 {
		xRange = 1
	}
	if yRange == 0 {
		yRange = 1
	}

	const width, height = 70, 20
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for i := range xData {
		px := int(float64(width-1) * (xData[i] - xMin) / xRange)
		py := int(float64(height-1) * (yData[i] - yMin) / yRange)
		py = height - 1 - py
		if px >= 0 && px < width && py >= 0 && py < height {
			if i < len(xData)/3 {
				canvas[py][px] = '.'
			} else if i < 2*len(xData)/3 {
				canvas[py][px] = 'o'
			} else {
				canvas[py][px] = '*'
			}
		}
	}

	fmt.Printf("  %.2f +%s+\n", yMax, strings.Repeat("-", width))
	for i := range canvas {
		if i == height/2 {
			fmt.Printf("  %.2f |", (yMax+yMin)/2)
		} else {
			fmt.Print("       |")
		}
		fmt.Print(string(canvas[i]))
		fmt.Println("|")
	}
	fmt.Printf("  %.2f +%s+\n", yMin, strings.Repeat("-", width))
	fmt.Printf("       %.2f%s%.2f\n", xMin, strings.Repeat(" ", width-16), xMax)
	fmt.Println("\nlegend: . = early, o = middle, * = late")

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time"}
	for i := 0; i < dynamo.StateSize; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	header = append(header, "u", "sigma")
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range states {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, val := range states[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func benchController(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	cfg.Controller = args[0]
	if err := cfg.Validate(); err != nil {
		return err
	}

	durations := []float64{1.0, 5.0, 10.0}
	dts := []float64{0.001, 0.01}

	fmt.Printf("benchmarking %s\n\n", cfg.Controller)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, step := range dts {
			cfg.Duration = dur
			cfg.Dt = step

			runner, _, _, err := buildRunner(cfg, nil)
			if err != nil {
				return err
			}

			start := time.Now()
			result, err := runner.Run(context.Background(), cfg.InitState.ToState(), sim.Options{
				Dt:    step,
				Steps: cfg.Steps(),
			})
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			stepsPerSec := float64(result.StepsTaken) / elapsed.Seconds()
			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\n",
				dur, step, result.StepsTaken, elapsed, stepsPerSec)
		}
	}

	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	cfg.Controller = args[0]
	cfg.Dt = dt
	cfg.Duration = duration
	cfg.InitState.Theta1 = theta1
	cfg.InitState.Theta2 = theta2
	if err := cfg.Validate(); err != nil {
		return err
	}

	fmt.Printf("comparing integrators for %s (dt=%.4f, duration=%.1fs)\n\n", cfg.Controller, dt, duration)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s\n", "integrator", "final_th1", "energy_drift", "time_ms")
	fmt.Println(strings.Repeat("-", 54))

	for _, name := range args[1:] {
		cfg.Integrator = name
		if err := cfg.Validate(); err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		runner, _, _, err := buildRunner(cfg, nil)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := runner.Run(context.Background(), cfg.InitState.ToState(), sim.Options{
			Dt:    dt,
			Steps: cfg.Steps(),
		})
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		finalTh1 := 0.0
		if len(result.States) > 0 {
			finalTh1 = result.States[len(result.States)-1][dynamo.IdxAngle1]
		}

		fmt.Printf("%-12s  %12.6f  %12.2e  %12.2f\n",
			name, finalTh1, result.EnergyDrift, float64(elapsed.Microseconds())/1000)
	}

	return nil
}

func formatGains(gains []float64) string {
	parts := make([]string, len(gains))
	for i, g := range gains {
		parts[i] = strconv.FormatFloat(g, 'f', 4, 64)
	}
	return strings.Join(parts, ",")
}
