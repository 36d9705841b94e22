// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the kind of a Finding.
//
type Kind uint8

// Finding kinds.
//
const (
	AssertionMismatch Kind = iota + 1 // expected vs actual mismatch on a resolved value
	UnresolvedValue                   // a compared value had unknown bits; comparison skipped
	DriveConflict                     // both parties drove a bidirectional signal
	SchedulerFault                    // unhandled error in a routine or device
	Note                              // warning raised by a routine
)

var kindNames = [...]string{
	AssertionMismatch: "AssertionMismatch",
	UnresolvedValue:   "UnresolvedValue",
	DriveConflict:     "DriveConflict",
	SchedulerFault:    "SchedulerFault",
	Note:              "Note",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
//
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (k *Kind) UnmarshalText(text []byte) error {
	for i, n := range kindNames {
		if n != "" && n == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return errors.Errorf("unknown finding kind %q", text)
}

// A Finding is a failure or warning recorded during a session.
//
type Finding struct {
	Kind    Kind     `json:"kind"`
	Time    Time     `json:"time"`
	Routine string   `json:"routine,omitempty"`
	Signals []string `json:"signals,omitempty"`
	Label   string   `json:"label,omitempty"`
	Message string   `json:"message"`
}

func (f Finding) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v %s", f.Time, f.Kind)
	if f.Label != "" {
		fmt.Fprintf(&b, " %q", f.Label)
	}
	if len(f.Signals) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(f.Signals, ","))
	}
	b.WriteString(": ")
	b.WriteString(f.Message)
	return b.String()
}

// Verdict is the outcome of a session.
//
type Verdict uint8

// Verdicts.
//
const (
	Pass Verdict = iota
	Fail
	Faulted
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	}
	return "FAULT"
}

// MarshalText implements encoding.TextMarshaler.
//
func (v Verdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (v *Verdict) UnmarshalText(text []byte) error {
	switch string(text) {
	case "PASS":
		*v = Pass
	case "FAIL":
		*v = Fail
	case "FAULT":
		*v = Faulted
	default:
		return errors.Errorf("unknown verdict %q", text)
	}
	return nil
}

// Report is the result of a session.
//
type Report struct {
	SessionID string    `json:"session_id"`
	Device    string    `json:"device"`
	Verdict   Verdict   `json:"verdict"`
	EndTime   Time      `json:"end_time"`
	Failures  []Finding `json:"failures"`
	Warnings  []Finding `json:"warnings"`
	Trace     *Trace    `json:"-"`
}

// Passed returns true if the verdict is Pass.
//
func (r *Report) Passed() bool { return r.Verdict == Pass }

// Findings returns failures and warnings in chronological order.
//
func (r *Report) Findings() []Finding {
	out := make([]Finding, 0, len(r.Failures)+len(r.Warnings))
	i, j := 0, 0
	for i < len(r.Failures) || j < len(r.Warnings) {
		if j >= len(r.Warnings) || i < len(r.Failures) && r.Failures[i].Time <= r.Warnings[j].Time {
			out = append(out, r.Failures[i])
			i++
		} else {
			out = append(out, r.Warnings[j])
			j++
		}
	}
	return out
}

// WriteText writes a human readable summary of the report to w.
//
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "session %s\n", r.SessionID)
	fmt.Fprintf(&b, "device  %s\n", r.Device)
	fmt.Fprintf(&b, "verdict %v at %v\n", r.Verdict, r.EndTime)
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "FAIL %v\n", f)
	}
	for _, f := range r.Warnings {
		fmt.Fprintf(&b, "WARN %v\n", f)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
