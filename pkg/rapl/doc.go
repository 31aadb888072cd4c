// Package rapl reads Intel RAPL energy counters through the Linux MSR
// device (/dev/cpu/<n>/msr) and turns raw counter readings into joules.
//
// The package is split into three small pieces:
//
//   - Reader / MSR: fixed-offset 64-bit register reads from one core's
//     register file. The device is opened lazily on the first read and the
//     handle is reused until Close.
//
//   - Calibrate: derives the joules-per-count Scale from the power unit
//     register (bits 8..12 of MSR 0x606), once per session.
//
//   - ReadSnapshot / Delta: take the low 32 bits of the package and DRAM
//     energy status registers and convert two consecutive snapshots into
//     an energy Sample, accounting for 32-bit counter wraparound.
//
// Requirements
//
// The msr kernel module must be loaded (modprobe msr) and the calling user
// needs read access to /dev/cpu/*/msr (usually root or CAP_SYS_RAWIO).
// Failures are reported as ErrRegisterUnavailable (cannot open) or
// ErrRegisterRead (open succeeded, read failed); a zero is never returned
// in place of an error.
package rapl
