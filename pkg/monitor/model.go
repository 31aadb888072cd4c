package monitor

import (
	"time"

	"github.com/ja7ad/energybench/pkg/types"
)

// Result is the outcome of one monitored run.
type Result struct {
	SessionID string
	Command   string

	Duration    time.Duration
	PkgEnergy   types.Joules
	DRAMEnergy  types.Joules
	TotalEnergy types.Joules
	Samples     int // energy samples summed, including the final one

	ExitCode int // -1 when the process was terminated by a signal
	Stdout   string
	Stderr   string

	CPUTime time.Duration // user + system time of the process and its reaped children
	PeakRSS types.Bytes   // largest observed RSS of the process tree
}

// Seconds returns the wall-clock duration in seconds.
func (r *Result) Seconds() float64 { return r.Duration.Seconds() }

// AvgPower returns the mean power draw over the run in watts.
func (r *Result) AvgPower() float64 { return r.TotalEnergy.Watts(r.Seconds()) }

func joules(v float64) types.Joules { return types.Joules(v) }
