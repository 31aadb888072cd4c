// Package aggregate repeats a monitored benchmark run and reduces the
// measurements into mean and population standard deviation.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ja7ad/energybench/pkg/monitor"
	"github.com/ja7ad/energybench/pkg/system/util"
)

// DefaultPause lets transient power draw settle between iterations.
const DefaultPause = time.Second

// Runner runs one shell command under measurement.
type Runner interface {
	RunShell(ctx context.Context, command string) (*monitor.Result, error)
}

// Resolver maps a tuple to the shell command to run.
type Resolver func(Tuple) (string, error)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithPause sets the pause between iterations; 0 disables it.
func WithPause(d time.Duration) Option { return func(a *Aggregator) { a.pause = d } }

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option { return func(a *Aggregator) { a.now = now } }

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option { return func(a *Aggregator) { a.logger = l } }

// WithRequireSuccess makes a non-zero exit code fail the iteration.
func WithRequireSuccess(v bool) Option { return func(a *Aggregator) { a.requireSuccess = v } }

// Aggregator drives a Runner sequentially; iterations never overlap
// because they would share the same energy counters.
type Aggregator struct {
	runner         Runner
	resolve        Resolver
	pause          time.Duration
	now            func() time.Time
	logger         *slog.Logger
	requireSuccess bool
}

// New returns an Aggregator.
func New(runner Runner, resolve Resolver, opts ...Option) *Aggregator {
	a := &Aggregator{
		runner:  runner,
		resolve: resolve,
		pause:   DefaultPause,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate runs the tuple's command iterations times and reduces the
// results. Any failed iteration fails the whole aggregate.
func (a *Aggregator) Aggregate(ctx context.Context, tuple Tuple, iterations int) (*Result, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoIterations, iterations)
	}
	cmd, err := a.resolve(tuple)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAggregationIncomplete, tuple, err)
	}

	results := make([]*monitor.Result, 0, iterations)
	for i := 1; i <= iterations; i++ {
		if i > 1 {
			if err := a.sleep(ctx); err != nil {
				return nil, fmt.Errorf("%w: %s: iteration %d/%d: %w", ErrAggregationIncomplete, tuple, i, iterations, err)
			}
		}
		a.logger.Info("running iteration", "tuple", tuple.String(), "iteration", i, "of", iterations)

		res, err := a.runner.RunShell(ctx, cmd)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: iteration %d/%d: %w", ErrAggregationIncomplete, tuple, i, iterations, err)
		}
		if a.requireSuccess && res.ExitCode != 0 {
			return nil, fmt.Errorf("%w: %s: iteration %d/%d: exit code %d: %s",
				ErrAggregationIncomplete, tuple, i, iterations, res.ExitCode, firstLine(res.Stderr))
		}
		if res.ExitCode != 0 {
			a.logger.Warn("benchmark exited non-zero", "tuple", tuple.String(), "iteration", i, "exit_code", res.ExitCode)
		}
		results = append(results, res)
	}
	return Reduce(tuple, results, a.now())
}

// Reduce computes the aggregate of results, which must not be empty.
func Reduce(tuple Tuple, results []*monitor.Result, ts time.Time) (*Result, error) {
	if len(results) == 0 {
		return nil, ErrNoIterations
	}
	n := len(results)
	dur := make([]float64, n)
	pkg := make([]float64, n)
	dram := make([]float64, n)
	total := make([]float64, n)
	cpu := make([]float64, n)
	rss := make([]float64, n)
	for i, r := range results {
		dur[i] = r.Seconds()
		pkg[i] = r.PkgEnergy.Float64()
		dram[i] = r.DRAMEnergy.Float64()
		total[i] = r.TotalEnergy.Float64()
		cpu[i] = r.CPUTime.Seconds()
		rss[i] = float64(r.PeakRSS)
	}
	return &Result{
		Tuple:           tuple,
		RunID:           uuid.NewString(),
		Iterations:      n,
		MeanDuration:    util.Mean(dur),
		StdDuration:     util.PStdDev(dur),
		MeanPkgEnergy:   util.Mean(pkg),
		MeanDRAMEnergy:  util.Mean(dram),
		MeanTotalEnergy: util.Mean(total),
		StdTotalEnergy:  util.PStdDev(total),
		MeanCPUTime:     util.Mean(cpu),
		MeanPeakRSS:     util.Mean(rss),
		Timestamp:       ts,
	}, nil
}

// Matrix aggregates each tuple in order. A failed tuple is logged and
// skipped; its error is collected and the next tuple runs. onResult, if
// set, is called after every successful tuple.
func (a *Aggregator) Matrix(ctx context.Context, tuples []Tuple, iterations int, onResult func(*Result)) ([]*Result, []error) {
	var (
		out  []*Result
		errs []error
	)
	for _, t := range tuples {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t, ctx.Err()))
			break
		}
		res, err := a.Aggregate(ctx, t, iterations)
		if err != nil {
			a.logger.Error("tuple failed", "tuple", t.String(), "err", err)
			errs = append(errs, err)
			continue
		}
		out = append(out, res)
		if onResult != nil {
			onResult(res)
		}
	}
	return out, errs
}

func (a *Aggregator) sleep(ctx context.Context) error {
	if a.pause <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(a.pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
