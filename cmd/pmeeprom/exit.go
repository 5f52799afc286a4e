package main

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	exitOK        = 0
	exitParse     = 29
	exitOperation = 30
	exitRange     = 31
	exitFile      = 32
	exitBatch     = 33
)

// exitError carries the process exit code of a failed run.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func exitWith(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

// exitCode maps the error returned by the root command to an exit code.
// Errors that carry no code come from cobra's own argument handling.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitParse
}
