// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"github.com/db47h/evsim/internal/hdl"
	"github.com/pkg/errors"
)

// Bus holds the signals of a device and their values.
//
// Driven values are only pending until the next commit, which the scheduler
// runs at every settle point. Read always returns the last committed value.
//
// A Bus is not safe for concurrent use. Within a session, it is only ever
// accessed by the routine or device currently holding control.
//
type Bus struct {
	sigs  []*signal
	index map[string]*signal
}

// Change is a committed change of a signal value.
//
type Change struct {
	Signal string
	Old    Value
	New    Value
}

// Conflict describes bits of a bidirectional signal driven to different states
// by both parties at once.
//
type Conflict struct {
	Signal string
	Mask   uint64
	Values [2]Value // indexed by Party
}

// NewBus returns a new bus with the given signals. All signals start with an
// unknown value. Bidirectional signals start owned by the device.
//
func NewBus(specs []SignalSpec) (*Bus, error) {
	b := &Bus{index: make(map[string]*signal, len(specs))}
	for _, sp := range specs {
		if sp.Width < 1 || sp.Width > MaxWidth {
			return nil, errors.Errorf("signal %q: invalid width %d", sp.Name, sp.Width)
		}
		if _, ok := b.index[sp.Name]; ok {
			return nil, errors.Errorf("duplicate signal name %q", sp.Name)
		}
		s := &signal{SignalSpec: sp, cur: X(sp.Width), owner: DUT}
		b.sigs = append(b.sigs, s)
		b.index[sp.Name] = s
	}
	return b, nil
}

func (b *Bus) lookup(name string) (*signal, error) {
	s, ok := b.index[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSignal, "%q", name)
	}
	return s, nil
}

// Signals returns the specs of all signals on the bus, in declaration order.
//
func (b *Bus) Signals() []SignalSpec {
	out := make([]SignalSpec, len(b.sigs))
	for i, s := range b.sigs {
		out[i] = s.SignalSpec
	}
	return out
}

// Spec returns the spec of the named signal.
//
func (b *Bus) Spec(name string) (SignalSpec, error) {
	s, err := b.lookup(name)
	if err != nil {
		return SignalSpec{}, err
	}
	return s.SignalSpec, nil
}

// Drive sets the value driven by party p on the named signal. The value sticks
// until p drives a new value or releases the signal.
//
func (b *Bus) Drive(p Party, name string, v Value) error {
	s, err := b.lookup(name)
	if err != nil {
		return err
	}
	if !s.canDrive(p) {
		return errors.Wrapf(ErrDirection, "%s cannot drive %s signal %q", p, s.Dir, name)
	}
	if v.Width() != s.Width {
		if v.Width() == 0 {
			return errors.Errorf("drive %q: zero value", name)
		}
		if v.Width() > s.Width {
			over := v.Slice(s.Width, v.Width()-1)
			if (over.bits|over.x) != 0 && s.Policy == Reject {
				return errors.Wrapf(ErrWidth, "drive %q with %d bits value %s", name, v.Width(), v)
			}
		}
		v = v.Resize(s.Width)
	}
	s.drv[p], s.driven[p] = v, true
	s.dirty = true
	return nil
}

// DriveInt drives an integer value. Under the Reject policy, values that do
// not fit in the signal width are rejected with ErrWidth.
//
func (b *Bus) DriveInt(p Party, name string, v uint64) error {
	s, err := b.lookup(name)
	if err != nil {
		return err
	}
	if v&^mask(s.Width) != 0 {
		if s.Policy == Reject {
			return errors.Wrapf(ErrWidth, "drive %q with %#x", name, v)
		}
	}
	return b.Drive(p, name, V(s.Width, v))
}

// Release stops party p from driving the named signal.
//
func (b *Bus) Release(p Party, name string) error {
	s, err := b.lookup(name)
	if err != nil {
		return err
	}
	if s.driven[p] {
		s.driven[p] = false
		s.dirty = true
	}
	return nil
}

// Read returns the committed value of the named signal.
//
func (b *Bus) Read(name string) (Value, error) {
	s, err := b.lookup(name)
	if err != nil {
		return Value{}, err
	}
	return s.cur, nil
}

// ReadRef returns the committed value of a signal reference as accepted by
// hdl.ParseRef: "name", "name[3]" or "name[0..3]".
//
func (b *Bus) ReadRef(ref string) (Value, error) {
	r, err := hdl.ParseRef(ref)
	if err != nil {
		return Value{}, err
	}
	v, err := b.Read(r.Name)
	if err != nil || !r.Sliced {
		return v, err
	}
	if r.Lo < 0 || r.Hi >= v.Width() {
		return Value{}, errors.Errorf("%s: bit range out of bounds for %d bits signal", ref, v.Width())
	}
	return v.Slice(r.Lo, r.Hi), nil
}

// Owner returns the party holding the owner token of a bidirectional signal.
//
func (b *Bus) Owner(name string) (Party, error) {
	s, err := b.lookup(name)
	if err != nil {
		return 0, err
	}
	if s.Dir != Bidir {
		return 0, errors.Wrapf(ErrNotBidir, "%q", name)
	}
	return s.owner, nil
}

// Handoff passes the owner token of a bidirectional signal to party to. The
// previous owner stops driving the signal. It is a no-op if to already holds
// the token.
//
// Nothing prevents the party without the token from driving the signal: this
// is how bus contention is modeled, and the commit reports it as a Conflict if
// both parties end up driving different values.
//
func (b *Bus) Handoff(name string, to Party) error {
	s, err := b.lookup(name)
	if err != nil {
		return err
	}
	if s.Dir != Bidir {
		return errors.Wrapf(ErrNotBidir, "%q", name)
	}
	if s.owner == to {
		return nil
	}
	prev := s.owner
	s.owner = to
	if s.driven[prev] {
		s.driven[prev] = false
		s.dirty = true
	}
	return nil
}

// commit resolves pending drives and returns the signals whose committed value
// changed.
//
func (b *Bus) commit() (changes []Change) {
	for _, s := range b.sigs {
		if !s.dirty {
			continue
		}
		s.dirty = false
		var v Value
		v, s.conflict = s.resolve()
		if !v.Equal(s.cur) {
			changes = append(changes, Change{Signal: s.Name, Old: s.cur, New: v})
			s.cur = v
		}
	}
	return changes
}

// conflicts returns the contentions that appeared or changed since the last
// call. The scheduler only calls it once signals have settled: contention that
// does not survive the delta cycles of a time step is not reported.
//
func (b *Bus) conflicts() []Conflict {
	var out []Conflict
	for _, s := range b.sigs {
		if s.conflict != 0 && s.conflict != s.reported {
			out = append(out, Conflict{Signal: s.Name, Mask: s.conflict, Values: s.drv})
		}
		s.reported = s.conflict
	}
	return out
}
