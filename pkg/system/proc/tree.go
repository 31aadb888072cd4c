//go:build linux

package proc

import (
	"fmt"

	"github.com/ja7ad/energybench/pkg/types"
)

// Usage is the summed resource usage of a process tree at one instant.
type Usage struct {
	Procs    int
	RSS      types.Bytes
	CPUTicks uint64 // utime + stime, in clock ticks
}

// Tree returns pid followed by all of its live descendants, breadth-first.
func Tree(pid int) ([]int, error) {
	if !Exists(pid) {
		return nil, fmt.Errorf("%w: pid %d", ErrNotRunning, pid)
	}
	seen := map[int]struct{}{pid: {}}
	out := []int{pid}
	for i := 0; i < len(out); i++ {
		children, err := ReadProcChildren(out[i])
		if err != nil {
			continue
		}
		for _, c := range children {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out, nil
}

// ReadTreeUsage sums RSS and CPU ticks over pid and its descendants.
// Members that vanish while being read are skipped.
func ReadTreeUsage(pid int) (Usage, error) {
	pids, err := Tree(pid)
	if err != nil {
		return Usage{}, err
	}
	var u Usage
	for _, p := range pids {
		rss, err := ReadProcRSS(p)
		if err != nil {
			continue
		}
		u.Procs++
		u.RSS += types.ToBytes(rss)
		if ut, st, err := ReadProcStat(p); err == nil {
			u.CPUTicks += ut + st
		}
	}
	return u, nil
}

// PeakTracker keeps the largest tree RSS observed across samples.
type PeakTracker struct {
	peak types.Bytes
}

// Observe reads the tree rooted at pid once. Errors are ignored: the tree
// may legitimately be gone by the time it is read.
func (t *PeakTracker) Observe(pid int) {
	u, err := ReadTreeUsage(pid)
	if err != nil || u.Procs == 0 {
		return
	}
	t.peak = max(t.peak, u.RSS)
}

// PeakRSS returns the largest observed tree RSS, 0 if nothing was observed.
func (t *PeakTracker) PeakRSS() types.Bytes { return t.peak }
