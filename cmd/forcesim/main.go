package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/forcesim/internal/analysis"
	"github.com/san-kum/forcesim/internal/automation"
	"github.com/san-kum/forcesim/internal/config"
	"github.com/san-kum/forcesim/internal/experiment"
	"github.com/san-kum/forcesim/internal/export"
	"github.com/san-kum/forcesim/internal/graph"
	"github.com/san-kum/forcesim/internal/integrators"
	"github.com/san-kum/forcesim/internal/optim"
	"github.com/san-kum/forcesim/internal/server"
	"github.com/san-kum/forcesim/internal/sim"
	"github.com/san-kum/forcesim/internal/storage"
	"github.com/san-kum/forcesim/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	integrator string
	theta      float64
	charge     float64
	restLength float64
	seed       uint64
	placement  string
	maxTicks   int
	noSave     bool
	output     string
	// export-svg
	svgWidth  int
	svgHeight int
	labels    bool
	// export-dot
	render       bool
	unitsPerInch float64
	// live
	ticksPerFrame int
	// bench
	benchSizes []int
	benchKind  string
	benchTicks int
	// tune
	tuneParams []string
	objective  string
	// serve
	addr    string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "forcesim",
		Short:        "force-directed graph layout engine",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".forcesim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run [graph.json | gen:kind:n]",
		Short: "lay out a graph until it settles and store the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runLayout,
	}
	addLayoutFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live [graph.json | gen:kind:n]",
		Short: "watch a layout settle in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addLayoutFlags(liveCmd)
	liveCmd.Flags().IntVar(&ticksPerFrame, "speed", 1, "ticks per frame")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot alpha and kinetic energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a stored layout as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", 800, "image height")
	svgCmd.Flags().BoolVar(&labels, "labels", false, "draw node ids")

	dotCmd := &cobra.Command{
		Use:   "export-dot [run_id]",
		Short: "write a stored layout as Graphviz DOT with pinned positions",
		Args:  cobra.ExactArgs(1),
		RunE:  exportDOT,
	}
	dotCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	dotCmd.Flags().BoolVar(&render, "render", false, "render to SVG with Graphviz neato")
	dotCmd.Flags().Float64Var(&unitsPerInch, "scale", export.PointsPerInch, "layout units per inch")

	jsonCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a stored layout as node-link JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	jsonCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure tick cost for growing graphs",
		RunE:  benchTick,
	}
	benchCmd.Flags().IntSliceVar(&benchSizes, "n", []int{100, 1000, 5000}, "graph sizes")
	benchCmd.Flags().StringVar(&benchKind, "kind", "random", "graph generator ("+strings.Join(graph.Generators(), ", ")+")")
	benchCmd.Flags().IntVar(&benchTicks, "ticks", 50, "ticks per size")
	benchCmd.Flags().Float64Var(&theta, "theta", 0.9, "Barnes-Hut accuracy")

	tuneCmd := &cobra.Command{
		Use:   "tune [graph.json | gen:kind:n]",
		Short: "grid search configuration parameters for the best layout",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneLayout,
	}
	addLayoutFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVarP(&tuneParams, "param", "p", nil, "grid axis as key=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&objective, "objective", "combined", "objective to minimize ("+strings.Join(analysis.Objectives(), ", ")+" or a metric name)")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted sequence of layouts",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve layouts over HTTP",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	serveCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "per-request limit")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, svgCmd, dotCmd, jsonCmd,
		presetsCmd, benchCmd, tuneCmd, batchCmd, serveCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "configuration preset")
	cmd.Flags().StringVar(&integrator, "integrator", "verlet", "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	cmd.Flags().Float64Var(&theta, "theta", 0.9, "Barnes-Hut accuracy, 0 for exact")
	cmd.Flags().Float64Var(&charge, "charge", config.DefaultChargeConstant, "charge constant, negative repels")
	cmd.Flags().Float64Var(&restLength, "rest-length", config.DefaultRestLength, "default spring rest length")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "placement seed")
	cmd.Flags().StringVar(&placement, "placement", "phyllotaxis", "initial placement ("+strings.Join(graph.Strategies(), ", ")+")")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "tick limit, 0 for the configured limit")
}

// loadConfig applies the preset, then the config file, then any flag the
// user changed.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("theta") {
		cfg.Simulation.Theta = theta
	}
	if flags.Changed("charge") {
		cfg.Charge.Constant = charge
	}
	if flags.Changed("rest-length") {
		cfg.Spring.RestLength = restLength
	}
	if flags.Changed("seed") {
		cfg.Placement.Seed = seed
	}
	if flags.Changed("placement") {
		cfg.Placement.Strategy = placement
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadGraph reads a JSON file, or generates a graph for "gen:kind:n".
func loadGraph(arg string, seed uint64) (*graph.Graph, error) {
	if rest, ok := strings.CutPrefix(arg, "gen:"); ok {
		kind, size, _ := strings.Cut(rest, ":")
		n := 50
		if size != "" {
			var err error
			if n, err = strconv.Atoi(size); err != nil {
				return nil, fmt.Errorf("bad graph size %q: %w", size, err)
			}
		}
		return graph.Generate(kind, n, seed)
	}
	return graph.ImportJSON(arg)
}

func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

func runLayout(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	g, err := loadGraph(args[0], cfg.Placement.Seed)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, g, sim.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := interruptible(cmd.Context())
	defer cancel()

	logger.Info("running layout", "source", args[0], "nodes", len(g.Nodes), "links", len(g.Links))
	prog := newProgress(logger)
	result, err := exp.Run(ctx, maxTicks)
	if err != nil {
		return err
	}
	prog.done("layout finished", "ticks", result.Ticks, "settled", result.Settled)

	layout := exp.Snapshot()
	report, err := analysis.Analyze(layout, cfg.Spring.RestLength)
	if err != nil {
		return err
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(args[0], cfg, layout, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Printf("ticks: %d (settled: %v)\n", result.Ticks, result.Settled)
	fmt.Printf("edges: mean %.2f, sd %.2f, strain %.4f\n", report.Edges.Mean, report.Edges.StdDev, report.Edges.Strain)
	fmt.Printf("min separation: %.2f\n", report.MinSeparation)
	fmt.Printf("crossings: %d\n", report.Crossings)
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, metrics[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var m tea.Model
	if len(args) == 0 {
		m = viz.NewApp(cfg)
	} else {
		g, err := loadGraph(args[0], cfg.Placement.Seed)
		if err != nil {
			return err
		}
		exp, err := experiment.New(cfg, g)
		if err != nil {
			return err
		}
		live := viz.NewModel(exp.Simulation(), filepath.Base(args[0]))
		live.TicksPerFrame = ticksPerFrame
		m = live
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
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
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tNODES\tLINKS\tTICKS\tSETTLED\tINTEG")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%v\t%s\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Nodes,
			run.Links,
			run.Ticks,
			run.Settled,
			run.Integrator,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	alpha, energy, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}
	if len(alpha) == 0 {
		return fmt.Errorf("run %s has no history", args[0])
	}

	fmt.Println(analysis.Plot(alpha, "alpha", 80, 10))
	fmt.Println()
	fmt.Println(analysis.Plot(energy, "kinetic energy", 80, 10))

	layout, err := st.LoadLayout(args[0])
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(analysis.Scatter(layout, 80, 30))
	return nil
}

func writeOutput(data []byte) error {
	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(output, data, 0644)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	layout, err := storage.New(dataDir).LoadLayout(args[0])
	if err != nil {
		return err
	}
	svg := export.LayoutToSVG(layout, export.SVGOptions{Width: svgWidth, Height: svgHeight, Labels: labels})

	path := output
	if path == "" {
		path = args[0] + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Info("wrote svg", "path", path)
	return nil
}

func exportDOT(cmd *cobra.Command, args []string) error {
	layout, err := storage.New(dataDir).LoadLayout(args[0])
	if err != nil {
		return err
	}
	dot := export.ToDOT(layout, unitsPerInch)
	if !render {
		return writeOutput([]byte(dot))
	}

	svg, err := export.RenderSVG(cmd.Context(), dot)
	if err != nil {
		return err
	}
	return writeOutput(svg)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	layout, err := storage.New(dataDir).LoadLayout(args[0])
	if err != nil {
		return err
	}
	if output == "" {
		return graph.WriteJSON(layout, os.Stdout)
	}
	return graph.ExportJSON(layout, output)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tINTEG\tTHETA\tDECAY\tCHARGE\tDRAG\tREST\tCONSTRAINTS")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.3f\t%.1f\t%.2f\t%.1f\t%s\n",
			name,
			c.Integrator,
			c.Simulation.Theta,
			c.Simulation.AlphaDecay,
			c.Charge.Constant,
			c.Drag.Coefficient,
			c.Spring.RestLength,
			strings.Join(c.Constraints, ","),
		)
	}
	return w.Flush()
}

func benchTick(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tLINKS\tTICKS\tTOTAL\tPER TICK")

	for _, n := range benchSizes {
		g, err := graph.Generate(benchKind, n, 1)
		if err != nil {
			return err
		}
		cfg := config.DefaultConfig()
		cfg.Simulation.Theta = theta
		cfg.Simulation.MinTicks = benchTicks
		exp, err := experiment.New(cfg, g)
		if err != nil {
			return err
		}

		s := exp.Simulation()
		start := time.Now()
		for i := 0; i < benchTicks; i++ {
			s.Tick()
		}
		elapsed := time.Since(start)
		logger.Debug("bench size done", "n", n, "elapsed", elapsed)

		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%v\n",
			n, len(g.Links), benchTicks,
			elapsed.Round(time.Millisecond),
			(elapsed / time.Duration(max(benchTicks, 1))).Round(time.Microsecond),
		)
	}
	return w.Flush()
}

// parseAxis reads "key=v1,v2,...".
func parseAxis(s string) (string, []float64, error) {
	key, list, ok := strings.Cut(s, "=")
	if !ok || key == "" || list == "" {
		return "", nil, fmt.Errorf("bad grid axis %q, want key=v1,v2", s)
	}
	var vals []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("bad value in %q: %w", s, err)
		}
		vals = append(vals, v)
	}
	return key, vals, nil
}

func tuneLayout(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())
	if len(tuneParams) == 0 {
		return fmt.Errorf("no grid given, use --param key=v1,v2 (keys: %s)", strings.Join(paramKeys(), ", "))
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	g, err := loadGraph(args[0], cfg.Placement.Seed)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tuneParams))
	ranges := make([][]float64, 0, len(tuneParams))
	for _, p := range tuneParams {
		key, vals, err := parseAxis(p)
		if err != nil {
			return err
		}
		names = append(names, key)
		ranges = append(ranges, vals)
	}

	ctx, cancel := interruptible(cmd.Context())
	defer cancel()

	prog := newProgress(logger)
	gs := optim.NewGridSearch(names, ranges)
	best, trials, err := gs.Search(ctx, optim.ConfigBuilder(cfg, g), optim.ObjectiveFor(objective), maxTicks)
	if err != nil {
		return err
	}
	prog.done("grid search finished", "trials", len(trials))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTICKS\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(objective))
	for _, tr := range trials {
		cols := make([]string, len(names))
		for i, name := range names {
			cols[i] = strconv.FormatFloat(tr.Params[name], 'g', -1, 64)
		}
		score := fmt.Sprintf("%.6g", tr.Score)
		if tr.Err != nil {
			score = "error: " + tr.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", strings.Join(cols, "\t"), tr.Ticks, score)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest (%s = %.6g):\n", objective, best.Score)
	printMetrics(best.Params)
	return nil
}

func paramKeys() []string {
	keys := make([]string, 0)
	for k := range config.DefaultConfig().Params() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := interruptible(cmd.Context())
	defer cancel()

	logger := loggerFromContext(cmd.Context())
	logger.Info("running scenario", "name", sc.Name, "steps", len(sc.Steps))
	results, err := automation.NewRunner(st, logger).RunScenario(ctx, sc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tRUN\tTICKS\tSETTLED\tCROSSINGS\tSTRAIN")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%d\t%.4f\n",
			r.Source, r.RunID, r.Result.Ticks, r.Result.Settled, r.Report.Crossings, r.Report.Edges.Strain)
	}
	return w.Flush()
}

func serve(cmd *cobra.Command, args []string) error {
	return server.New(loggerFromContext(cmd.Context()), timeout).ListenAndServe(addr)
}
