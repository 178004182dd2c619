package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoSession is returned when Edit or Print is called without a session.
	ErrNoSession = errors.New("tui: session is required")
)
