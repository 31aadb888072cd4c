// Package proc reads per-process resource figures from /proc on Linux for
// the process tree of a benchmark under measurement.
//
// A benchmark is usually launched through a shell, so the interesting work
// happens in descendants of the spawned PID. Tree walks the
// /proc/<pid>/task/*/children files (kernel 3.5+) breadth-first and
// ReadTreeUsage sums RSS and CPU ticks over every live member.
//
// PeakTracker is what the measurement loop uses: Observe is called once per
// sampling tick and keeps the largest tree RSS seen. All readers are
// best-effort with respect to races: a process may exit between being
// listed and being read, in which case it is skipped.
//
// Errors (errs.go):
//
//	ErrNoStat     : /proc/<pid>/stat empty or malformed
//	ErrShortStat  : /proc/<pid>/stat had fewer fields than expected
//	ErrNoRSS      : neither smaps_rollup nor statm could be read
//	ErrNoChildren : no children listed for the pid
//	ErrNotRunning : the root of a tree is gone
package proc
