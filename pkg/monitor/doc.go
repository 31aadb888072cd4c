// Package monitor runs one external command under RAPL energy sampling.
//
// A Monitor owns the configuration (core, sample rate, optional timeout);
// every Run call opens a fresh register reader, calibrates the energy unit
// and drives a session through Idle -> Running -> Stopped:
//
//	Idle    -> Running : baseline snapshot, start time, spawn the command
//	Running            : poll for exit; if alive, sample and sleep 1/rate
//	Running -> Stopped : on process exit: final sample, end time, sum samples
//
// The stop does not wait for the output pipes: whatever the command left
// running in its process group is killed afterwards and the output drained.
//
// The command's stdout and stderr are buffered, never inherited. A
// non-zero exit status is reported in Result.ExitCode and is not an error.
// Register failures, spawn failures, timeouts and cancellation abort the
// run without a Result; the child's process group is killed and reaped and
// the register handle closed on every path.
package monitor
