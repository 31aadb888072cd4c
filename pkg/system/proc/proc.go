//go:build linux

package proc

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// procRoot is the procfs mount point; tests point it at a fake tree.
var procRoot = "/proc"

func pidPath(pid int, elem ...string) string {
	return filepath.Join(append([]string{procRoot, strconv.Itoa(pid)}, elem...)...)
}

// PageSize returns the system memory page size in bytes.
// It first checks an env override (PAGE_SIZE) to ease testing, then falls
// back to os.Getpagesize().
func PageSize() int {
	if ps := os.Getenv("PAGE_SIZE"); ps != "" {
		if v, _ := strconv.Atoi(ps); v > 0 {
			return v
		}
	}
	return os.Getpagesize()
}

// Exists reports whether a given PID currently exists in /proc.
func Exists(pid int) bool {
	_, err := os.Stat(pidPath(pid))
	return err == nil
}

// ReadProcStat parses /proc/<pid>/stat and returns the user and system CPU
// time of the process in clock ticks.
//
// comm (2nd field) is in parens and may contain spaces, so everything up
// to the last ") " is skipped.
func ReadProcStat(pid int) (utime, stime uint64, err error) {
	f, err := os.Open(pidPath(pid, "stat"))
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return 0, 0, ErrNoStat
	}
	line := sc.Text()

	i := strings.LastIndex(line, ") ")
	if i < 0 {
		return 0, 0, ErrNoStat
	}
	fields := strings.Fields(line[i+2:])

	// utime and stime are the 14th and 15th fields overall; fields[0] is
	// the 3rd (state).
	if len(fields) < 13 {
		return 0, 0, ErrShortStat
	}
	if utime, err = strconv.ParseUint(fields[11], 10, 64); err != nil {
		return 0, 0, ErrNoStat
	}
	if stime, err = strconv.ParseUint(fields[12], 10, 64); err != nil {
		return 0, 0, ErrNoStat
	}
	return utime, stime, nil
}

// ReadProcRSS returns the resident memory of pid in bytes: the Rss line of
// smaps_rollup when the kernel provides it, statm's resident pages otherwise.
func ReadProcRSS(pid int) (uint64, error) {
	if kb, ok := rollupRSS(pid); ok {
		return kb << 10, nil
	}
	b, err := os.ReadFile(pidPath(pid, "statm"))
	if err != nil {
		return 0, ErrNoRSS
	}
	fs := strings.Fields(string(b))
	if len(fs) < 2 {
		return 0, ErrNoRSS
	}
	pages, err := strconv.ParseUint(fs[1], 10, 64)
	if err != nil {
		return 0, ErrNoRSS
	}
	return pages * uint64(PageSize()), nil
}

// rollupRSS reads the "Rss: N kB" line of smaps_rollup (linux 4.14+).
func rollupRSS(pid int) (kb uint64, ok bool) {
	f, err := os.Open(pidPath(pid, "smaps_rollup"))
	if err != nil {
		return 0, false
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		rest, found := strings.CutPrefix(sc.Text(), "Rss:")
		if !found {
			continue
		}
		kb, err = strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(rest), " kB"), 10, 64)
		return kb, err == nil
	}
	return 0, false
}

// ReadProcChildren returns the direct child PIDs of a process by reading
// /proc/<pid>/task/*/children. Children are deduplicated across threads.
func ReadProcChildren(pid int) ([]int, error) {
	paths, _ := filepath.Glob(pidPath(pid, "task", "*", "children"))
	set := map[int]struct{}{}
	var out []int
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		for _, s := range strings.Fields(string(b)) {
			id, err := strconv.Atoi(s)
			if err != nil {
				continue
			}
			if _, dup := set[id]; !dup {
				set[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoChildren
	}
	return out, nil
}
