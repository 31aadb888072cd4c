// Package command maps a benchmark and language to the shell command that
// builds (where needed) and runs it.
package command

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Language identifies a toolchain.
type Language string

const (
	C          Language = "c"
	Python     Language = "python"
	JavaScript Language = "javascript"
	Java       Language = "java"
	Rust       Language = "rust"
)

// Benchmarks lists the known benchmark programs.
var Benchmarks = []string{"binary-trees", "mandelbrot", "n-body", "regex-redux", "spectral-norm"}

// Languages lists the supported toolchains in matrix order.
var Languages = []Language{C, Python, JavaScript, Java, Rust}

// DefaultDir is where benchmark sources live, one directory per benchmark.
const DefaultDir = "/home/ubuntu/benchmarks"

// Table builds commands for benchmarks under Dir.
type Table struct {
	Dir string
}

// SourceFile returns the source file name of benchmark in lang:
// snake_case for most languages, CamelCase class names for Java.
func SourceFile(benchmark string, lang Language) (string, error) {
	if !slices.Contains(Benchmarks, benchmark) {
		return "", fmt.Errorf("%w: %q (available: %s)", ErrUnknownBenchmark, benchmark, strings.Join(Benchmarks, ", "))
	}
	stem := strings.ReplaceAll(benchmark, "-", "_")
	switch lang {
	case C:
		return stem + ".c", nil
	case Python:
		return stem + ".py", nil
	case JavaScript:
		return stem + ".js", nil
	case Java:
		return ClassName(benchmark) + ".java", nil
	case Rust:
		return stem + ".rs", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
}

// ClassName converts a dashed benchmark name to a Java class name,
// e.g. "n-body" -> "NBody".
func ClassName(benchmark string) string {
	var b strings.Builder
	for _, w := range strings.Split(benchmark, "-") {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(strings.ToLower(w[1:]))
	}
	return b.String()
}

// Command returns the shell command for the tuple. params are appended
// verbatim to the program's argument list.
func (t Table) Command(benchmark string, lang Language, params string) (string, error) {
	src, err := SourceFile(benchmark, lang)
	if err != nil {
		return "", err
	}
	bin := strings.TrimSuffix(src, filepath.Ext(src))

	var run string
	switch lang {
	case C:
		run = fmt.Sprintf("gcc -O3 -o %s %s && ./%s", bin, src, bin)
	case Python:
		run = "python3 " + src
	case JavaScript:
		run = "node " + src
	case Java:
		run = fmt.Sprintf("javac %s && java %s", src, bin)
	case Rust:
		run = fmt.Sprintf("rustc -O %s && ./%s", src, bin)
	}
	if params = strings.TrimSpace(params); params != "" {
		run += " " + params
	}
	return fmt.Sprintf("cd %s && %s", quote(t.dir(benchmark)), run), nil
}

// Exists reports whether the benchmark's source for lang is present.
func (t Table) Exists(benchmark string, lang Language) bool {
	src, err := SourceFile(benchmark, lang)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(t.dir(benchmark), src))
	return err == nil
}

func (t Table) dir(benchmark string) string {
	root := t.Dir
	if root == "" {
		root = DefaultDir
	}
	return filepath.Join(root, benchmark)
}

// ParseLanguage validates a language name.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Languages, l) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return l, nil
}

// quote single-quotes s for /bin/sh when it contains anything unsafe.
func quote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
