package rapl

// CounterMask keeps the 32 bits of an energy status register that hold
// the running count.
const CounterMask = 0xFFFFFFFF

// Snapshot is a pair of raw energy counters taken at one instant.
type Snapshot struct {
	Pkg  uint32
	DRAM uint32
}

// Sample is the energy drawn between two snapshots, in joules.
type Sample struct {
	Pkg  float64
	DRAM float64
}

// Total returns package plus DRAM energy.
func (s Sample) Total() float64 { return s.Pkg + s.DRAM }

// ReadSnapshot reads the package and DRAM energy status registers.
func ReadSnapshot(r Reader) (Snapshot, error) {
	pkg, err := r.ReadRegister(RegPkgEnergy)
	if err != nil {
		return Snapshot{}, err
	}
	dram, err := r.ReadRegister(RegDRAMEnergy)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Pkg: uint32(pkg & CounterMask), DRAM: uint32(dram & CounterMask)}, nil
}

// DeltaRaw returns the number of counts between prev and curr. A current
// value below the previous one means the counter wrapped through its
// 32-bit range.
func DeltaRaw(prev, curr uint32) uint64 {
	if curr < prev {
		return (CounterMask - uint64(prev)) + uint64(curr)
	}
	return uint64(curr - prev)
}

// Delta converts two consecutive snapshots into joules per domain.
func Delta(prev, curr Snapshot, scale Scale) Sample {
	return Sample{
		Pkg:  scale.Joules(DeltaRaw(prev.Pkg, curr.Pkg)),
		DRAM: scale.Joules(DeltaRaw(prev.DRAM, curr.DRAM)),
	}
}

// Sum adds up a sequence of samples per domain.
func Sum(samples []Sample) Sample {
	var out Sample
	for _, s := range samples {
		out.Pkg += s.Pkg
		out.DRAM += s.DRAM
	}
	return out
}
