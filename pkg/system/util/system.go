//go:build linux

package util

import (
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/ja7ad/energybench/pkg/types"
)

// SystemSummary returns host name, kernel release, CPU count and total
// memory for the console header. Unknown values are reported as "unknown".
func SystemSummary() (host, kernel, cpus, mem string) {
	host, kernel, mem = "unknown", "unknown", "unknown"
	if h, err := os.Hostname(); err == nil {
		host = h
	}

	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		kernel = unix.ByteSliceToString(uts.Release[:])
	}

	cpus = strconv.Itoa(runtime.NumCPU())

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err == nil {
		mem = types.ToBytes(uint64(si.Totalram) * uint64(si.Unit)).Humanized()
	}
	return host, kernel, cpus, mem
}
