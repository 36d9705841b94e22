// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"github.com/db47h/evsim/internal/hdl"
	"github.com/pkg/errors"
)

// Direction is the direction of a signal, as seen from the device.
//
type Direction uint8

// Signal directions.
//
const (
	Input  Direction = iota // driven by the test bench
	Output                  // driven by the device
	Bidir                   // driven by whichever party holds the owner token
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "in"
	case Output:
		return "out"
	case Bidir:
		return "inout"
	}
	return "invalid"
}

// WidthPolicy tells what to do with driven values that do not fit in a signal.
//
type WidthPolicy uint8

// Width policies.
//
const (
	Reject   WidthPolicy = iota // Drive returns ErrWidth
	Truncate                    // extra bits are dropped
)

// Party identifies who drives a signal.
//
type Party uint8

// Parties.
//
const (
	External Party = iota // the test bench
	DUT                   // the device under test
)

func (p Party) String() string {
	if p == DUT {
		return "device"
	}
	return "external"
}

// MarshalText implements encoding.TextMarshaler.
//
func (p Party) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (p *Party) UnmarshalText(text []byte) error {
	switch string(text) {
	case "external":
		*p = External
	case "device":
		*p = DUT
	default:
		return errors.Errorf("invalid party %q", text)
	}
	return nil
}

// Other returns the opposite party.
//
func (p Party) Other() Party { return 1 - p }

// SignalSpec describes a signal of a device.
//
type SignalSpec struct {
	Name   string
	Width  int
	Dir    Direction
	Policy WidthPolicy
}

// ParseSignals parses a signal declaration string like "clk, rst_n, in_a[8]"
// and returns the corresponding specs with the given direction.
//
func ParseSignals(dir Direction, spec string) ([]SignalSpec, error) {
	ds, err := hdl.ParseDecls(spec)
	if err != nil {
		return nil, errors.Wrap(err, "parse signals")
	}
	out := make([]SignalSpec, 0, len(ds))
	for _, d := range ds {
		if d.Width > MaxWidth {
			return nil, errors.Errorf("signal %s: width %d exceeds %d bits", d.Name, d.Width, MaxWidth)
		}
		out = append(out, SignalSpec{Name: d.Name, Width: d.Width, Dir: dir})
	}
	return out, nil
}

func mustParse(dir Direction, spec string) []SignalSpec {
	ss, err := ParseSignals(dir, spec)
	if err != nil {
		panic(err)
	}
	return ss
}

// In declares input signals. It panics if the spec is invalid.
//
//	evsim.In("clk, rst_n, in_a[8]")
//
func In(spec string) []SignalSpec { return mustParse(Input, spec) }

// Out declares output signals. It panics if the spec is invalid.
//
func Out(spec string) []SignalSpec { return mustParse(Output, spec) }

// InOut declares bidirectional signals. It panics if the spec is invalid.
//
func InOut(spec string) []SignalSpec { return mustParse(Bidir, spec) }

// Truncating sets the width policy of the given signals to Truncate.
//
func Truncating(ss []SignalSpec) []SignalSpec {
	for i := range ss {
		ss[i].Policy = Truncate
	}
	return ss
}

// Signals concatenates signal declarations.
//
func Signals(groups ...[]SignalSpec) []SignalSpec {
	var out []SignalSpec
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

type signal struct {
	SignalSpec
	cur    Value // committed value
	drv    [2]Value
	driven [2]bool
	owner  Party
	dirty  bool

	conflict uint64 // bits currently in contention
	reported uint64 // last reported conflict mask
}

// resolve computes the value that the current drivers put on the wire.
//
func (s *signal) resolve() (v Value, conflict uint64) {
	e, d := s.driven[External], s.driven[DUT]
	switch {
	case e && d:
		return s.drv[External].Resolve(s.drv[DUT])
	case e:
		return s.drv[External], 0
	case d:
		return s.drv[DUT], 0
	}
	return X(s.Width), 0
}

func (s *signal) canDrive(p Party) bool {
	switch s.Dir {
	case Input:
		return p == External
	case Output:
		return p == DUT
	}
	return true
}
