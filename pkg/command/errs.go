package command

import "errors"

var (
	ErrUnknownBenchmark    = errors.New("command: unknown benchmark")
	ErrUnsupportedLanguage = errors.New("command: unsupported language")
)
