package types

import "fmt"

// Bytes is a memory size, e.g. the peak RSS of a benchmark's process tree.
type Bytes uint64

// ToBytes converts a raw byte count.
func ToBytes(v uint64) Bytes { return Bytes(v) }

var byteUnits = [...]string{"KB", "MB", "GB", "TB"}

// Humanized prints b in 1024-based units with two decimals; sizes under
// 1 KB are printed as a whole number of bytes.
func (b Bytes) Humanized() string {
	if b < 1<<10 {
		return fmt.Sprintf("%d B", uint64(b))
	}
	v, u := float64(b)/(1<<10), 0
	for v >= 1<<10 && u < len(byteUnits)-1 {
		v /= 1 << 10
		u++
	}
	return fmt.Sprintf("%.2f %s", v, byteUnits[u])
}
