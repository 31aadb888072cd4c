//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ja7ad/energybench/pkg/aggregate"
	"github.com/ja7ad/energybench/pkg/command"
	"github.com/ja7ad/energybench/pkg/config"
	"github.com/ja7ad/energybench/pkg/monitor"
	"github.com/ja7ad/energybench/pkg/rapl"
	"github.com/ja7ad/energybench/pkg/report"
	"github.com/ja7ad/energybench/pkg/system/util"
	"github.com/ja7ad/energybench/pkg/types"
)

type opts struct {
	configPath string
	logLevel   string
	keepGoing  bool

	// flag targets; copied into config.Config only when explicitly set
	core           int
	sampleRate     float64
	iterations     int
	timeout        time.Duration
	pause          time.Duration
	requireSuccess bool
	benchmarks     []string
	languages      []string
	params         string
	benchDir       string
	outputDir      string
	textfile       string
}

func main() {
	if err := newRootCmd(&opts{}).Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd(o *opts) *cobra.Command {
	def := config.Default()

	root := &cobra.Command{
		Use:   "energybench",
		Short: "Measure the energy consumption of benchmark programs with Intel RAPL",
		Long: `energybench runs benchmark programs across languages, samples the CPU
package and DRAM energy counters through /dev/cpu/<core>/msr while each
program runs, and reports mean and standard deviation of duration and
energy over repeated iterations.

Requires the msr kernel module (modprobe msr) and read access to the MSR
device, usually root.

Examples:
  energybench --benchmark n-body --language c --params 50000000
  energybench -n 5 --sample-rate 10 --textfile /var/lib/node_exporter/energybench.prom
  energybench --config energybench.yaml --language rust`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogger(o.logLevel)
			cfg, err := loadConfig(cmd.Flags(), *o)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, o.keepGoing)
		},
	}

	f := root.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "YAML config file; explicitly set flags override it")
	f.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.BoolVar(&o.keepGoing, "skip-missing", true, "skip benchmark/language pairs whose source file is missing")

	f.IntVar(&o.core, "core", def.Core, "CPU core whose MSR device is read")
	f.Float64Var(&o.sampleRate, "sample-rate", def.SampleRate, "energy samples per second while a benchmark runs")
	f.IntVarP(&o.iterations, "iterations", "n", def.Iterations, "runs per benchmark/language pair")
	f.DurationVar(&o.timeout, "timeout", def.Timeout, "kill a benchmark run after this long (0 = no limit)")
	f.DurationVar(&o.pause, "pause", def.Pause, "pause between iterations to let power draw settle")
	f.BoolVar(&o.requireSuccess, "require-success", def.RequireSuccess, "treat a non-zero benchmark exit code as a failed iteration")
	f.StringSliceVarP(&o.benchmarks, "benchmark", "b", nil, "benchmark(s) to run (default all)")
	f.StringSliceVarP(&o.languages, "language", "l", nil, "language(s) to run (default all)")
	f.StringVarP(&o.params, "params", "p", def.Params, "parameters passed to every benchmark")
	f.StringVar(&o.benchDir, "benchmarks-dir", def.BenchmarksDir, "directory holding one sub-directory per benchmark")
	f.StringVarP(&o.outputDir, "output", "o", def.OutputDir, "directory for CSV/JSON results")
	f.StringVar(&o.textfile, "textfile", def.Textfile, "also write Prometheus textfile-collector output to this path")

	return root
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// loadConfig layers defaults, the optional YAML file and explicitly set flags.
func loadConfig(fs *pflag.FlagSet, o opts) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("core", func() { cfg.Core = o.core })
	set("sample-rate", func() { cfg.SampleRate = o.sampleRate })
	set("iterations", func() { cfg.Iterations = o.iterations })
	set("timeout", func() { cfg.Timeout = o.timeout })
	set("pause", func() { cfg.Pause = o.pause })
	set("require-success", func() { cfg.RequireSuccess = o.requireSuccess })
	set("benchmark", func() { cfg.Benchmarks = o.benchmarks })
	set("language", func() { cfg.Languages = o.languages })
	set("params", func() { cfg.Params = o.params })
	set("benchmarks-dir", func() { cfg.BenchmarksDir = o.benchDir })
	set("output", func() { cfg.OutputDir = o.outputDir })
	set("textfile", func() { cfg.Textfile = o.textfile })

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, skipMissing bool) error {
	if err := rapl.Available(cfg.Core); err != nil {
		return err
	}

	host, kernel, cpus, mem := util.SystemSummary()
	fmt.Printf(_console, host, kernel, cpus, mem, cfg.Core, cfg.SampleRate, cfg.Iterations,
		time.Now().Format("2006-01-02 15:04:05"))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mon, err := monitor.New(monitor.Config{
		Core:       cfg.Core,
		SampleRate: cfg.SampleRate,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return err
	}

	table := command.Table{Dir: cfg.BenchmarksDir}
	resolve := func(t aggregate.Tuple) (string, error) {
		lang, err := command.ParseLanguage(t.Language)
		if err != nil {
			return "", err
		}
		return table.Command(t.Benchmark, lang, t.Params)
	}
	agg := aggregate.New(mon, resolve,
		aggregate.WithPause(cfg.Pause),
		aggregate.WithRequireSuccess(cfg.RequireSuccess),
	)

	tuples := cfg.Tuples()
	if skipMissing {
		tuples = present(table, tuples)
	}
	if len(tuples) == 0 {
		return errors.New("nothing to run: no benchmark sources found under " + cfg.BenchmarksDir)
	}

	results, errs := agg.Matrix(ctx, tuples, cfg.Iterations, printResult)
	if len(results) == 0 {
		return fmt.Errorf("all %d benchmark runs failed: %w", len(tuples), errors.Join(errs...))
	}

	printSummary(results)

	paths, err := report.Save(cfg.OutputDir, results, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Results saved to %s and %s\n", paths.CSV, paths.JSON)

	if cfg.Textfile != "" {
		if err := report.WriteTextfile(cfg.Textfile, results); err != nil {
			return fmt.Errorf("textfile: %w", err)
		}
		fmt.Printf("Prometheus textfile written to %s\n", cfg.Textfile)
	}

	if len(errs) > 0 {
		slog.Warn("some benchmark runs failed", "failed", len(errs), "succeeded", len(results))
	}
	return nil
}

// present drops tuples whose source file does not exist.
func present(table command.Table, tuples []aggregate.Tuple) []aggregate.Tuple {
	out := tuples[:0:0]
	for _, t := range tuples {
		lang, err := command.ParseLanguage(t.Language)
		if err != nil || !table.Exists(t.Benchmark, lang) {
			slog.Warn("skipping: no source", "benchmark", t.Benchmark, "language", t.Language)
			continue
		}
		out = append(out, t)
	}
	return out
}

func printResult(r *aggregate.Result) {
	fmt.Printf("Results for %s in %s:\n", r.Benchmark, r.Language)
	fmt.Printf("  Duration: %.4f seconds (±%.4f)\n", r.MeanDuration, r.StdDuration)
	fmt.Printf("  Energy: %.4f joules (±%.4f)\n", r.MeanTotalEnergy, r.StdTotalEnergy)
	fmt.Printf("  Package: %s, DRAM: %s\n",
		types.Joules(r.MeanPkgEnergy).Humanized(), types.Joules(r.MeanDRAMEnergy).Humanized())
	fmt.Println()
}

func printSummary(results []*aggregate.Result) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BENCHMARK\tLANGUAGE\tN\tDURATION (s)\t±\tPKG (J)\tDRAM (J)\tTOTAL (J)\t±\tAVG (W)\tCPU (s)\tPEAK RSS")
	fmt.Fprintln(tw, "---------\t--------\t-\t------------\t-\t-------\t--------\t---------\t-\t-------\t-------\t--------")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.4f\t%.3f\t%.3f\t%.3f\t%.3f\t%.2f\t%.3f\t%s\n",
			r.Benchmark, r.Language, r.Iterations,
			r.MeanDuration, r.StdDuration,
			r.MeanPkgEnergy, r.MeanDRAMEnergy, r.MeanTotalEnergy, r.StdTotalEnergy,
			util.SafeDiv(r.MeanTotalEnergy, r.MeanDuration),
			r.MeanCPUTime, types.Bytes(r.MeanPeakRSS).Humanized(),
		)
	}
	tw.Flush()
	fmt.Println()
}

const _console = `energybench - RAPL energy measurement for benchmark programs

       Host: %s
       Kernel: %s
       CPUs: %s
       Mem: %s
       MSR core: %d, sample rate: %g/s, iterations: %d

Run started %s:

`
