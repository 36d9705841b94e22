// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by the bus, clocks and sessions. They are usually wrapped
// with more context; test them with errors.Is.
//
var (
	ErrUnknownSignal = errors.New("unknown signal")
	ErrDirection     = errors.New("wrong driver for signal direction")
	ErrWidth         = errors.New("value does not fit in signal")
	ErrNotBidir      = errors.New("signal is not bidirectional")
	ErrClockRunning  = errors.New("clock already running")
	ErrSessionDone   = errors.New("session already run")
	ErrTimeOverflow  = errors.New("simulated time overflow")
)

// A Fault is an unhandled error in a routine or in a device. Faults are fatal:
// the session stops and Run returns the fault.
//
type Fault struct {
	Routine string // routine or device name
	Time    Time   // simulated time of the fault
	Err     error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault in %s at %v: %v", f.Routine, f.Time, f.Err)
}

// Cause returns the underlying error. It is used by errors.Cause.
//
func (f *Fault) Cause() error { return f.Err }

// Unwrap returns the underlying error.
//
func (f *Fault) Unwrap() error { return f.Err }

// An AssertionError is returned by Proc.Require when a check fails on a
// resolved value. Returning it from the main routine ends the session with a
// FAIL verdict rather than a fault.
//
type AssertionError struct {
	Finding
}

func (e *AssertionError) Error() string {
	return e.Finding.String()
}

// IsAssertion returns true if err is, or wraps, an *AssertionError.
//
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// IsFault returns true if err is, or wraps, a *Fault.
//
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

// routineError carries an error out of a routine through a panic so that Proc
// methods do not need to return one. It is recovered by the routine wrapper.
//
type routineError struct {
	err error
}

// errStopped is the panic value used to unwind routines at session teardown.
//
var errStopped = errors.New("routine stopped")
