package monitor

import "errors"

var (
	// ErrProcessSpawn indicates that the command could not be started.
	ErrProcessSpawn = errors.New("monitor: process spawn failed")

	// ErrProcessTimeout indicates that the command outlived the configured
	// timeout and was killed.
	ErrProcessTimeout = errors.New("monitor: process timed out")

	// ErrBadConfig indicates an invalid Config.
	ErrBadConfig = errors.New("monitor: invalid config")

	// ErrSessionState indicates a session transition from the wrong state.
	ErrSessionState = errors.New("monitor: invalid session state")
)
