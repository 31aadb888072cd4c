package aggregate

import (
	"fmt"
	"time"
)

// Tuple identifies one cell of the benchmark matrix.
type Tuple struct {
	Benchmark string
	Language  string
	Params    string
}

func (t Tuple) String() string {
	if t.Params == "" {
		return fmt.Sprintf("%s/%s", t.Benchmark, t.Language)
	}
	return fmt.Sprintf("%s/%s[%s]", t.Benchmark, t.Language, t.Params)
}

// Result is the statistical reduction of repeated runs of one Tuple.
// Durations are in seconds, energies in joules; standard deviations use
// the population formula.
type Result struct {
	Tuple
	RunID      string
	Iterations int

	MeanDuration float64
	StdDuration  float64

	MeanPkgEnergy   float64
	MeanDRAMEnergy  float64
	MeanTotalEnergy float64
	StdTotalEnergy  float64

	MeanCPUTime float64 // seconds of user+system time
	MeanPeakRSS float64 // bytes

	Timestamp time.Time
}
