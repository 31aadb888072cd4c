//go:build linux

package rapl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const registerSize = 8

// Option configures an MSR.
type Option func(*MSR)

// WithPath overrides the device path template. The template receives the
// core index as its only verb.
func WithPath(template string) Option {
	return func(m *MSR) { m.path = fmt.Sprintf(template, m.core) }
}

// MSR reads registers from one core's MSR device file.
// It is not safe for concurrent use; one measurement session owns it.
type MSR struct {
	core int
	path string
	fd   int
	open bool
}

// NewMSR returns an MSR for the given core. The device is not opened
// until the first ReadRegister call.
func NewMSR(core int, opts ...Option) *MSR {
	m := &MSR{core: core, fd: -1}
	m.path = fmt.Sprintf(DevicePathTemplate, core)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the device file this MSR reads from.
func (m *MSR) Path() string { return m.path }

// ReadRegister returns the 8-byte little-endian value stored at offset.
func (m *MSR) ReadRegister(offset int64) (uint64, error) {
	if err := m.ensureOpen(); err != nil {
		return 0, err
	}

	buf := make([]byte, registerSize)
	n, err := unix.Pread(m.fd, buf, offset)
	if err != nil {
		return 0, fmt.Errorf("%w: %s at %#x: %w", ErrRegisterRead, m.path, offset, err)
	}
	if n != registerSize {
		return 0, fmt.Errorf("%w: %s at %#x: short read of %d bytes", ErrRegisterRead, m.path, offset, n)
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// Close releases the device handle. It is safe to call more than once.
func (m *MSR) Close() error {
	if !m.open {
		return nil
	}
	m.open = false
	fd := m.fd
	m.fd = -1
	return unix.Close(fd)
}

func (m *MSR) ensureOpen() error {
	if m.open {
		return nil
	}
	fd, err := unix.Open(m.path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return unavailable(m.path, err)
	}
	m.fd, m.open = fd, true
	return nil
}

func unavailable(path string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s does not exist (load the msr module: modprobe msr): %w",
			ErrRegisterUnavailable, path, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %s is not readable (chmod +r /dev/cpu/*/msr or run as root): %w",
			ErrRegisterUnavailable, path, err)
	default:
		return fmt.Errorf("%w: open %s: %w", ErrRegisterUnavailable, path, err)
	}
}

// Available opens and closes the MSR device of core, returning
// ErrRegisterUnavailable when it cannot be read.
func Available(core int, opts ...Option) error {
	m := NewMSR(core, opts...)
	if _, err := m.ReadRegister(RegPowerUnit); err != nil {
		_ = m.Close()
		return err
	}
	return m.Close()
}
