package rapl

import "errors"

var (
	// ErrRegisterUnavailable indicates that the MSR device for a core is
	// missing or not readable (module not loaded, no permission).
	ErrRegisterUnavailable = errors.New("rapl: register interface unavailable")

	// ErrRegisterRead indicates that a register read failed after the
	// device was opened (I/O error, revoked permission, short read).
	ErrRegisterRead = errors.New("rapl: register read failed")
)
