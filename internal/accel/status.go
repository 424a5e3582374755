package accel

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Status is a non-success code returned by a Device call.
type Status int

const (
	StatusNotInitialized Status = iota + 1
	StatusAllocFailed
	StatusInvalidValue
	StatusExecutionFailed
	StatusNotSupported
	StatusInternalError
)

func (s Status) Error() string {
	switch s {
	case StatusNotInitialized:
		return "not initialized"
	case StatusAllocFailed:
		return "allocation failed"
	case StatusInvalidValue:
		return "invalid value"
	case StatusExecutionFailed:
		return "execution failed"
	case StatusNotSupported:
		return "not supported"
	case StatusInternalError:
		return "internal error"
	default:
		return fmt.Sprintf("status %d", int(s))
	}
}

// StatusError records which device call failed and where it was issued.
type StatusError struct {
	Op   string
	File string
	Line int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed at %s:%d: %v", e.Op, e.File, e.Line, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Check returns nil for a nil err, otherwise a *StatusError carrying the
// file and line of Check's caller.
func Check(op string, err error) error {
	if err == nil {
		return nil
	}
	_, file, line, _ := runtime.Caller(1)
	return &StatusError{Op: op, File: filepath.Base(file), Line: line, Err: err}
}
