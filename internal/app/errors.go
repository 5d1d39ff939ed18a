// Package app wires the grid engine's components together and runs the
// terminal demo's event loop.
package app

import (
	"errors"
	"fmt"
)

var (
	// ErrQuit signals that the application should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates the application is already running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNoTable indicates the document holds no table record.
	ErrNoTable = errors.New("no table record")
)

// InitError wraps a component initialization failure.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
