//go:build linux

package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ja7ad/energybench/pkg/rapl"
	"github.com/ja7ad/energybench/pkg/system/proc"
)

// Shell is the interpreter used by RunShell.
const Shell = "/bin/sh"

// Bounds on the sampling interval. Rates outside them are rejected.
const (
	MinInterval = time.Millisecond
	MaxInterval = time.Hour
)

// Config holds the per-monitor measurement parameters.
type Config struct {
	Core       int           // CPU whose MSR device is read
	SampleRate float64       // samples per second, > 0
	Timeout    time.Duration // 0 disables the deadline
	Dir        string        // working directory of the command; empty inherits
	Env        []string      // environment of the command; nil inherits
}

// Validate checks the scalar parameters for positivity.
func (c Config) Validate() error {
	if c.Core < 0 {
		return fmt.Errorf("%w: core must be >= 0, got %d", ErrBadConfig, c.Core)
	}
	if !(c.SampleRate > 0) {
		return fmt.Errorf("%w: sample rate must be > 0, got %v", ErrBadConfig, c.SampleRate)
	}
	if iv := float64(time.Second) / c.SampleRate; iv < float64(MinInterval) || iv > float64(MaxInterval) {
		return fmt.Errorf("%w: sample rate %v/s gives an interval outside [%s, %s]",
			ErrBadConfig, c.SampleRate, MinInterval, MaxInterval)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must be >= 0, got %s", ErrBadConfig, c.Timeout)
	}
	return nil
}

// Interval returns the sleep between samples, 1/SampleRate, clamped to
// [MinInterval, MaxInterval].
func (c Config) Interval() time.Duration {
	iv := float64(time.Second) / c.SampleRate
	switch {
	case !(iv >= float64(MinInterval)): // also NaN
		return MinInterval
	case iv > float64(MaxInterval):
		return MaxInterval
	}
	return time.Duration(iv)
}

// Opener returns a register reader for a core.
type Opener func(core int) (rapl.Reader, error)

// Option configures a Monitor.
type Option func(*Monitor)

// WithOpener replaces the default MSR device opener.
func WithOpener(o Opener) Option { return func(m *Monitor) { m.open = o } }

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option { return func(m *Monitor) { m.logger = l } }

// Monitor runs commands under energy sampling, one session at a time.
type Monitor struct {
	mu     sync.Mutex
	cfg    Config
	open   Opener
	logger *slog.Logger
	now    func() time.Time
}

// New validates cfg and returns a Monitor.
func New(cfg Config, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Monitor{
		cfg: cfg,
		open: func(core int) (rapl.Reader, error) {
			return rapl.NewMSR(core), nil
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// RunShell runs command through /bin/sh -c.
func (m *Monitor) RunShell(ctx context.Context, command string) (*Result, error) {
	return m.Run(ctx, Shell, "-c", command)
}

// Run starts name with args, samples the energy counters until it exits
// and returns the measurement. No Result is returned alongside an error.
func (m *Monitor) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reader, err := m.open(m.cfg.Core)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			m.logger.Warn("close register reader", "core", m.cfg.Core, "err", cerr)
		}
	}()

	scale, err := rapl.Calibrate(reader)
	if err != nil {
		return nil, err
	}

	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	cmdline := commandLine(name, args)
	s := newSession(reader, scale, m.now)
	log := m.logger.With("session", s.id)
	log.Info("running command", "command", cmdline, "core", m.cfg.Core, "energy_unit_j", float64(scale))

	if err := s.start(); err != nil {
		return nil, err
	}
	c, err := spawn(name, args, m.cfg.Dir, m.cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProcessSpawn, cmdline, err)
	}

	defer c.release()

	var peak proc.PeakTracker
	if err := m.poll(ctx, s, c, &peak); err != nil {
		c.release()
		log.Warn("run aborted", "command", cmdline, "err", err)
		return nil, err
	}

	// the shell has exited: close the measurement before anything it left
	// behind in the process group is killed and its output drained
	total, err := s.stop()
	if err != nil {
		return nil, err
	}
	c.release()
	if c.waitErr != nil && !isExit(c.waitErr) {
		return nil, fmt.Errorf("wait %s: %w", cmdline, c.waitErr)
	}

	res := &Result{
		SessionID:   s.id,
		Command:     cmdline,
		Duration:    s.elapsed(),
		PkgEnergy:   joules(total.Pkg),
		DRAMEnergy:  joules(total.DRAM),
		TotalEnergy: joules(total.Total()),
		Samples:     len(s.samples),
		ExitCode:    c.exitCode(),
		Stdout:      strings.ToValidUTF8(c.stdout.String(), "\uFFFD"),
		Stderr:      strings.ToValidUTF8(c.stderr.String(), "\uFFFD"),
		CPUTime:     c.cpuTime(),
		PeakRSS:     peak.PeakRSS(),
	}
	log.Debug("run finished",
		"exit_code", res.ExitCode,
		"duration_s", res.Seconds(),
		"samples", res.Samples,
		"total_j", res.TotalEnergy.Float64(),
		"avg_power_w", res.AvgPower(),
		"peak_rss", res.PeakRSS.Humanized(),
	)
	return res, nil
}

// poll alternates a non-blocking exit check with sampling and a timed
// sleep. It returns nil once the child has exited.
func (m *Monitor) poll(ctx context.Context, s *session, c *child, peak *proc.PeakTracker) error {
	interval := m.cfg.Interval()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for !c.exited() {
		if err := s.sample(); err != nil {
			return err
		}
		peak.Observe(c.pid())

		timer.Reset(interval)
		select {
		case <-c.done:
		case <-timer.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: killed after %s", ErrProcessTimeout, m.now().Sub(s.started).Round(time.Millisecond))
			}
			return ctx.Err()
		}
	}
	return nil
}

func isExit(err error) bool {
	var ee *exec.ExitError
	return errors.As(err, &ee)
}

func commandLine(name string, args []string) string {
	if name == Shell && len(args) == 2 && args[0] == "-c" {
		return args[1]
	}
	return strings.Join(append([]string{name}, args...), " ")
}
