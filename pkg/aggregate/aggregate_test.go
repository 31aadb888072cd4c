package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/energybench/pkg/command"
	"github.com/ja7ad/energybench/pkg/monitor"
	"github.com/ja7ad/energybench/pkg/types"
)

// fakeRunner returns canned results in order; an error entry fails that call.
type fakeRunner struct {
	results  []*monitor.Result
	errs     map[int]error
	commands []string
}

func (f *fakeRunner) RunShell(_ context.Context, cmd string) (*monitor.Result, error) {
	i := len(f.commands)
	f.commands = append(f.commands, cmd)
	if err := f.errs[i]; err != nil {
		return nil, err
	}
	return f.results[i], nil
}

func result(seconds, pkg, dram float64) *monitor.Result {
	return &monitor.Result{
		Duration:    time.Duration(seconds * float64(time.Second)),
		PkgEnergy:   types.Joules(pkg),
		DRAMEnergy:  types.Joules(dram),
		TotalEnergy: types.Joules(pkg + dram),
	}
}

func staticResolver(cmd string) Resolver {
	return func(Tuple) (string, error) { return cmd, nil }
}

var tuple = Tuple{Benchmark: "n-body", Language: "c", Params: "1000"}

func TestAggregate_MeanAndPopulationStd(t *testing.T) {
	r := &fakeRunner{results: []*monitor.Result{
		result(1.0, 8.0, 2.0),
		result(2.0, 9.0, 3.0),
		result(3.0, 10.0, 1.0),
	}}
	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	a := New(r, staticResolver("./n_body 1000"), WithPause(0), WithClock(func() time.Time { return ts }))

	got, err := a.Aggregate(context.Background(), tuple, 3)
	require.NoError(t, err)

	assert.Equal(t, tuple, got.Tuple)
	assert.Equal(t, 3, got.Iterations)
	assert.Equal(t, ts, got.Timestamp)
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, []string{"./n_body 1000", "./n_body 1000", "./n_body 1000"}, r.commands)

	// totals 10, 12, 11
	assert.InDelta(t, 11.0, got.MeanTotalEnergy, 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), got.StdTotalEnergy, 1e-12)
	assert.InDelta(t, 9.0, got.MeanPkgEnergy, 1e-12)
	assert.InDelta(t, 2.0, got.MeanDRAMEnergy, 1e-12)
	assert.InDelta(t, 2.0, got.MeanDuration, 1e-9)
	assert.InDelta(t, math.Sqrt(2.0/3.0), got.StdDuration, 1e-9)
}

func TestAggregate_SingleIteration(t *testing.T) {
	r := &fakeRunner{results: []*monitor.Result{result(0.5, 4.0, 1.0)}}
	got, err := New(r, staticResolver("x"), WithPause(0)).Aggregate(context.Background(), tuple, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Iterations)
	assert.InDelta(t, 5.0, got.MeanTotalEnergy, 1e-12)
	assert.Equal(t, 0.0, got.StdTotalEnergy)
	assert.Equal(t, 0.0, got.StdDuration)
}

func TestAggregate_FailedIterationDiscardsAll(t *testing.T) {
	cause := fmt.Errorf("%w: injected", monitor.ErrProcessSpawn)
	r := &fakeRunner{
		results: []*monitor.Result{result(1, 1, 1), nil, result(1, 1, 1)},
		errs:    map[int]error{1: cause},
	}
	got, err := New(r, staticResolver("x"), WithPause(0)).Aggregate(context.Background(), tuple, 3)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrAggregationIncomplete)
	assert.ErrorIs(t, err, monitor.ErrProcessSpawn)
	assert.Contains(t, err.Error(), "iteration 2/3")
	assert.Len(t, r.commands, 2, "no further iterations after a failure")
}

func TestAggregate_RequireSuccess(t *testing.T) {
	bad := result(1, 1, 1)
	bad.ExitCode = 2
	bad.Stderr = "Segmentation fault\ncore dumped"

	t.Run("default_keeps_non_zero_exit", func(t *testing.T) {
		r := &fakeRunner{results: []*monitor.Result{bad}}
		got, err := New(r, staticResolver("x"), WithPause(0)).Aggregate(context.Background(), tuple, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Iterations)
	})
	t.Run("strict_fails", func(t *testing.T) {
		r := &fakeRunner{results: []*monitor.Result{bad}}
		_, err := New(r, staticResolver("x"), WithPause(0), WithRequireSuccess(true)).
			Aggregate(context.Background(), tuple, 1)
		require.ErrorIs(t, err, ErrAggregationIncomplete)
		assert.Contains(t, err.Error(), "exit code 2: Segmentation fault")
		assert.NotContains(t, err.Error(), "core dumped")
	})
}

func TestAggregate_InvalidIterations(t *testing.T) {
	a := New(&fakeRunner{}, staticResolver("x"))
	for _, n := range []int{0, -3} {
		_, err := a.Aggregate(context.Background(), tuple, n)
		assert.ErrorIs(t, err, ErrNoIterations)
	}
}

func TestAggregate_ResolverError(t *testing.T) {
	r := &fakeRunner{}
	tbl := command.Table{Dir: "/srv"}
	resolve := func(tp Tuple) (string, error) {
		return tbl.Command(tp.Benchmark, command.Language(tp.Language), tp.Params)
	}
	_, err := New(r, resolve).Aggregate(context.Background(), Tuple{Benchmark: "n-body", Language: "cobol"}, 2)
	assert.ErrorIs(t, err, ErrAggregationIncomplete)
	assert.ErrorIs(t, err, command.ErrUnsupportedLanguage)
	assert.Empty(t, r.commands)
}

func TestAggregate_PauseBetweenIterations(t *testing.T) {
	r := &fakeRunner{results: []*monitor.Result{result(1, 1, 0), result(1, 1, 0), result(1, 1, 0)}}
	start := time.Now()
	_, err := New(r, staticResolver("x"), WithPause(40*time.Millisecond)).Aggregate(context.Background(), tuple, 3)
	require.NoError(t, err)
	// two pauses, none after the last iteration
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestAggregate_CancelDuringPause(t *testing.T) {
	r := &fakeRunner{results: []*monitor.Result{result(1, 1, 0), result(1, 1, 0)}}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := New(r, staticResolver("x"), WithPause(time.Minute)).Aggregate(ctx, tuple, 2)
	require.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrAggregationIncomplete)
	assert.Len(t, r.commands, 1)
}

func TestReduce(t *testing.T) {
	_, err := Reduce(tuple, nil, time.Now())
	assert.ErrorIs(t, err, ErrNoIterations)

	got, err := Reduce(tuple, []*monitor.Result{result(1, 10, 0), result(1, 12, 0), result(1, 11, 0)}, time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, 11.0, got.MeanTotalEnergy, 1e-12)
	assert.InDelta(t, 0.816496580927726, got.StdTotalEnergy, 1e-12)
}

func TestReduce_ResourceUsage(t *testing.T) {
	a, b := result(1, 1, 0), result(1, 1, 0)
	a.CPUTime, a.PeakRSS = 500*time.Millisecond, 4<<20
	b.CPUTime, b.PeakRSS = 1500*time.Millisecond, 8<<20

	got, err := Reduce(tuple, []*monitor.Result{a, b}, time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.MeanCPUTime, 1e-12)
	assert.InDelta(t, float64(6<<20), got.MeanPeakRSS, 1e-6)
}

func TestMatrix_ContinuesAfterFailure(t *testing.T) {
	tuples := []Tuple{
		{Benchmark: "a", Language: "c"},
		{Benchmark: "b", Language: "c"},
		{Benchmark: "c", Language: "c"},
	}
	r := &fakeRunner{
		results: []*monitor.Result{result(1, 1, 0), nil, result(2, 2, 0)},
		errs:    map[int]error{1: errors.New("boom")},
	}
	resolve := func(tp Tuple) (string, error) { return "run " + tp.Benchmark, nil }

	var seen []string
	out, errs := New(r, resolve, WithPause(0)).Matrix(context.Background(), tuples, 1, func(res *Result) {
		seen = append(seen, res.Benchmark)
	})
	require.Len(t, out, 2)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrAggregationIncomplete)
	assert.Equal(t, []string{"a", "c"}, seen)
	assert.Equal(t, []string{"run a", "run b", "run c"}, r.commands)
}

func TestMatrix_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeRunner{}
	out, errs := New(r, staticResolver("x")).Matrix(ctx, []Tuple{tuple, tuple}, 1, nil)
	assert.Empty(t, out)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.Empty(t, r.commands)
}

func TestTuple_String(t *testing.T) {
	assert.Equal(t, "n-body/c[1000]", tuple.String())
	assert.Equal(t, "n-body/c", Tuple{Benchmark: "n-body", Language: "c"}.String())
}
