package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/coverage-sim/sim"
	"github.com/inference-sim/coverage-sim/sim/export"
	"github.com/inference-sim/coverage-sim/sim/scenario"
	"github.com/inference-sim/coverage-sim/sim/store"
	"github.com/inference-sim/coverage-sim/sim/telemetry"
	"github.com/inference-sim/coverage-sim/sim/trace"
)

var (
	// CLI flags for the run command
	scenarioPath string  // Scenario YAML file
	seed         int64   // Seed for attrition and point jitter
	ticks        int     // Number of ticks to run
	maxStep      float64 // Per-tick agent travel limit
	minAlive     int     // Attrition floor
	logLevel     string  // Log verbosity level
	traceLevel   string  // Trace verbosity level

	// CLI flags for observers
	dbPath       string // SQLite database for tick snapshots
	geojsonDir   string // Directory for per-tick GeoJSON frames
	geojsonEvery int    // Export every Nth tick
	priorityGrid string // Priority grid resolution written next to each frame
	metricsAddr  string // Listen address for the Prometheus endpoint
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "coverage-sim",
	Short: "Voronoi coverage control simulator for quadcopter fleets",
}

// runCmd executes the simulation of a scenario file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a coverage scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(logLevel)

		if scenarioPath == "" {
			logrus.Fatalf("--scenario not provided. Exiting simulation.")
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s; valid: none, ticks", traceLevel)
		}

		sc, err := scenario.Load(scenarioPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
		applyOverrides(cmd, sc)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		opts := runOptions{
			Trace:        trace.TraceLevel(traceLevel),
			DBPath:       dbPath,
			GeoJSONDir:   geojsonDir,
			GeoJSONEvery: geojsonEvery,
			PriorityGrid: priorityGrid,
		}
		if metricsAddr != "" {
			reg := prometheus.NewRegistry()
			opts.Registerer = reg
			srv := serveMetrics(metricsAddr, reg)
			defer srv.Close()
		}

		if err := runScenario(ctx, sc, opts, os.Stdout); err != nil {
			if errors.Is(err, context.Canceled) {
				logrus.Warn("Simulation interrupted.")
				return
			}
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// setLogLevel configures logrus from a flag value.
func setLogLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", name)
	}
	logrus.SetLevel(level)
}

// applyOverrides copies run flags onto the scenario, but only flags the user
// explicitly set, so file values win over flag defaults.
func applyOverrides(cmd *cobra.Command, sc *scenario.Scenario) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		logrus.Infof("CLI --seed %d overrides scenario seed %d", seed, sc.Seed)
		sc.Seed = seed
	}
	if flags.Changed("ticks") {
		n := ticks
		sc.Ticks = &n
	}
	if flags.Changed("max-step") {
		sc.MaxStep = maxStep
	}
	if flags.Changed("min-alive") {
		n := minAlive
		sc.MinAlive = &n
	}
}

// runOptions selects the observers attached to a run.
type runOptions struct {
	Trace        trace.TraceLevel
	DBPath       string
	GeoJSONDir   string
	GeoJSONEvery int
	PriorityGrid string                // "<cols>x<rows>", empty disables grids
	Registerer   prometheus.Registerer // nil disables telemetry
}

// runScenario builds the simulator, attaches observers, runs it to completion
// and prints the end-of-run report to w.
func runScenario(ctx context.Context, sc *scenario.Scenario, opts runOptions, w io.Writer) error {
	var gridCols, gridRows int
	if opts.PriorityGrid != "" {
		if opts.GeoJSONDir == "" {
			return errors.New("--priority-grid requires --geojson-dir")
		}
		var err error
		if gridCols, gridRows, err = export.ParseGridSize(opts.PriorityGrid); err != nil {
			return err
		}
	}

	s, err := sc.Build()
	if err != nil {
		return fmt.Errorf("building scenario: %w", err)
	}
	if opts.Trace != "" {
		s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: opts.Trace})
	}

	logrus.Infof("Starting simulation with %d agents, %d sources, %gx%g domain, %d ticks, seed=%d",
		len(s.Agents), len(s.Sources()), sc.Bounds.Width, sc.Bounds.Height, s.Config.Ticks, sc.Seed)
	startTime := time.Now()

	var rec *store.Recorder
	if opts.DBPath != "" {
		db, err := store.Open(opts.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if rec, err = db.StartRun(s); err != nil {
			return err
		}
		s.AddObserver(rec)
	}
	if opts.GeoJSONDir != "" {
		dw, err := export.NewDirWriter(opts.GeoJSONDir, opts.GeoJSONEvery)
		if err != nil {
			return err
		}
		dw.GridCols, dw.GridRows = gridCols, gridRows
		s.AddObserver(dw)
	}
	if opts.Registerer != nil {
		s.AddObserver(telemetry.NewCollector(opts.Registerer))
	}

	runErr := s.Run(ctx)
	if rec != nil {
		if err := rec.Finish(s.Metrics); err != nil {
			return err
		}
	}

	s.Metrics.Print(w)
	if s.Trace.Config.Level == trace.TraceLevelTicks {
		printTraceSummary(w, trace.Summarize(s.Trace))
	}
	logrus.Infof("Wall time: %v", time.Since(startTime))
	return runErr
}

func printTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Traced Ticks         : %d\n", ts.TotalTicks)
	fmt.Fprintf(w, "Traced Failures      : %d\n", ts.TotalDeaths)
	fmt.Fprintf(w, "Minimum Coverage Cost: %.3f\n", ts.MinCost)
	fmt.Fprintf(w, "Diagnostics          : %d\n", ts.Diagnostics)
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("metrics server: %v", err)
		}
	}()
	logrus.Infof("Serving metrics on %s/metrics", addr)
	return srv
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Seed for attrition and point jitter (overrides scenario seed)")
	runCmd.Flags().IntVar(&ticks, "ticks", scenario.DefaultTicks, "Number of ticks to run (overrides scenario)")
	runCmd.Flags().Float64Var(&maxStep, "max-step", sim.DefaultMaxStep, "Maximum agent travel per tick (overrides scenario)")
	runCmd.Flags().IntVar(&minAlive, "min-alive", sim.DefaultMinAlive, "Attrition floor (overrides scenario)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, ticks)")

	// Observers
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to record every tick into")
	runCmd.Flags().StringVar(&geojsonDir, "geojson-dir", "", "Directory to write per-tick GeoJSON frames into")
	runCmd.Flags().IntVar(&geojsonEvery, "geojson-every", 1, "Write a GeoJSON frame every N ticks")
	runCmd.Flags().StringVar(&priorityGrid, "priority-grid", "", "Also write the priority intensity grid of each frame at this resolution (e.g. 40x40)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
