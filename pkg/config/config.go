// Package config holds the measurement settings of an energybench run.
// Values come from Default, optionally overlaid by a YAML file, and are
// finally overridden by explicitly set command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/energybench/pkg/aggregate"
	"github.com/ja7ad/energybench/pkg/command"
)

// ErrInvalid indicates a configuration value out of range.
var ErrInvalid = errors.New("config: invalid")

// DefaultOutputDir is where result files are written.
const DefaultOutputDir = "/home/ubuntu/results"

// Config is the full set of run settings.
type Config struct {
	Core           int           `yaml:"core"`
	SampleRate     float64       `yaml:"sample_rate"` // samples per second
	Iterations     int           `yaml:"iterations"`
	Timeout        time.Duration `yaml:"timeout"` // 0: no deadline
	Pause          time.Duration `yaml:"pause"`
	RequireSuccess bool          `yaml:"require_success"`

	BenchmarksDir string   `yaml:"benchmarks_dir"`
	Benchmarks    []string `yaml:"benchmarks"`
	Languages     []string `yaml:"languages"`
	Params        string   `yaml:"params"`

	OutputDir string `yaml:"output_dir"`
	Textfile  string `yaml:"textfile"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	langs := make([]string, 0, len(command.Languages))
	for _, l := range command.Languages {
		langs = append(langs, string(l))
	}
	return Config{
		Core:          0,
		SampleRate:    1.0,
		Iterations:    3,
		Pause:         aggregate.DefaultPause,
		BenchmarksDir: command.DefaultDir,
		Benchmarks:    append([]string(nil), command.Benchmarks...),
		Languages:     langs,
		OutputDir:     DefaultOutputDir,
	}
}

// Load reads a YAML file over Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over Default.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks positivity of the scalar settings and that every
// benchmark and language is known.
func (c Config) Validate() error {
	var errs []error
	if c.Core < 0 {
		errs = append(errs, fmt.Errorf("%w: core must be >= 0, got %d", ErrInvalid, c.Core))
	}
	if !(c.SampleRate > 0) {
		errs = append(errs, fmt.Errorf("%w: sample_rate must be > 0, got %v", ErrInvalid, c.SampleRate))
	}
	if c.Iterations < 1 {
		errs = append(errs, fmt.Errorf("%w: iterations must be >= 1, got %d", ErrInvalid, c.Iterations))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be >= 0, got %s", ErrInvalid, c.Timeout))
	}
	if c.Pause < 0 {
		errs = append(errs, fmt.Errorf("%w: pause must be >= 0, got %s", ErrInvalid, c.Pause))
	}
	if len(c.Benchmarks) == 0 || len(c.Languages) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one benchmark and one language are required", ErrInvalid))
	}
	for _, b := range c.Benchmarks {
		if _, err := command.SourceFile(b, command.C); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
		}
	}
	for _, l := range c.Languages {
		if _, err := command.ParseLanguage(l); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
		}
	}
	return errors.Join(errs...)
}

// Tuples expands Benchmarks × Languages in benchmark-major order.
func (c Config) Tuples() []aggregate.Tuple {
	out := make([]aggregate.Tuple, 0, len(c.Benchmarks)*len(c.Languages))
	for _, b := range c.Benchmarks {
		for _, l := range c.Languages {
			out = append(out, aggregate.Tuple{Benchmark: b, Language: l, Params: c.Params})
		}
	}
	return out
}
