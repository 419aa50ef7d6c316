package storage

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned by Load when nothing has been saved yet.
var ErrEmpty = errors.New("no board saved")

// OpError wraps a backend failure with the operation that hit it.
type OpError struct {
	Op      string
	Backend string
	Err     error
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Backend, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func wrapErr(op, backend string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Backend: backend, Err: err}
}
