package rapl

const (
	// DevicePathTemplate is the per-core MSR device exposed by the msr module.
	DevicePathTemplate = "/dev/cpu/%d/msr"

	RegPowerUnit  int64 = 0x606 // MSR_RAPL_POWER_UNIT
	RegPkgEnergy  int64 = 0x611 // MSR_PKG_ENERGY_STATUS
	RegDRAMEnergy int64 = 0x619 // MSR_DRAM_ENERGY_STATUS
)

// Reader reads 64-bit model-specific registers at fixed byte offsets.
type Reader interface {
	ReadRegister(offset int64) (uint64, error)
	Close() error
}
