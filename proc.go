// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"container/heap"
	"fmt"

	"github.com/pkg/errors"
)

// Proc is the handle through which a routine interacts with the simulation.
// A Proc must only be used by the routine it was given to.
//
// Methods that take a signal name fault the session if the signal does not
// exist or if the operation is rejected by the bus (wrong direction, value too
// wide, ...). Read and the check methods also accept bit ranges like
// "uo_out[0..3]".
//
type Proc struct {
	s *Session
	r *routine
}

func (p *Proc) check(err error) {
	if err != nil {
		panic(routineError{err})
	}
}

// Name returns the routine name.
//
func (p *Proc) Name() string { return p.r.name }

// Now returns the current simulated time.
//
func (p *Proc) Now() Time { return p.s.now }

// suspend gives control back to the scheduler until it resumes the routine.
//
func (p *Proc) suspend() {
	p.s.park <- parkMsg{r: p.r}
	if !<-p.r.resume {
		panic(errStopped)
	}
}

// Delay suspends the routine for d. A zero delay resumes the routine in the
// next delta cycle, after pending drives have been committed. A delay that
// would overflow simulated time faults the routine.
//
func (p *Proc) Delay(d Time) {
	s := p.s
	if d > ^Time(0)-s.now {
		p.check(errors.Wrapf(ErrTimeOverflow, "delay %v at %v", d, s.now))
	}
	s.seq++
	heap.Push(&s.timers, &timer{at: s.now + d, seq: s.seq, r: p.r})
	p.suspend()
}

// AwaitEdge suspends the routine until the named signal makes the given
// transition.
//
func (p *Proc) AwaitEdge(name string, e Edge) {
	_, err := p.s.bus.lookup(name)
	p.check(err)
	p.s.edges = append(p.s.edges, &edgeWait{signal: name, edge: e, r: p.r})
	p.suspend()
}

// RisingEdge waits for a rising edge of the named signal.
//
func (p *Proc) RisingEdge(name string) { p.AwaitEdge(name, Rising) }

// FallingEdge waits for a falling edge of the named signal.
//
func (p *Proc) FallingEdge(name string) { p.AwaitEdge(name, Falling) }

// ClockCycles waits for n rising edges of the named signal.
//
func (p *Proc) ClockCycles(name string, n int) {
	for i := 0; i < n; i++ {
		p.AwaitEdge(name, Rising)
	}
}

// Spawn starts a new routine. It will first run in the current delta cycle,
// after all routines already scheduled for it.
//
func (p *Proc) Spawn(name string, fn Routine) {
	p.s.spawn(name, fn)
}

// Drive drives an integer value on an input or bidirectional signal.
//
func (p *Proc) Drive(name string, v uint64) {
	p.check(p.s.bus.DriveInt(External, name, v))
}

// DriveValue drives a Value on an input or bidirectional signal.
//
func (p *Proc) DriveValue(name string, v Value) {
	p.check(p.s.bus.Drive(External, name, v))
}

// Release stops the test bench from driving a bidirectional signal.
//
func (p *Proc) Release(name string) {
	p.check(p.s.bus.Release(External, name))
}

// Handoff passes the owner token of a bidirectional signal to party to.
//
func (p *Proc) Handoff(name string, to Party) {
	p.check(p.s.bus.Handoff(name, to))
}

// Owner returns the party holding the owner token of a bidirectional signal.
//
func (p *Proc) Owner(name string) Party {
	o, err := p.s.bus.Owner(name)
	p.check(err)
	return o
}

// Read returns the committed value of a signal or range of bits.
//
func (p *Proc) Read(ref string) Value {
	v, err := p.s.bus.ReadRef(ref)
	p.check(err)
	return v
}

// compare checks a signal against an expected value. It records a warning and
// returns nil if the signal has unknown bits and returns a mismatch finding
// without recording it.
//
func (p *Proc) compare(label, ref string, want uint64) *Finding {
	v := p.Read(ref)
	eq, ok := v.Match(want)
	switch {
	case !ok:
		p.s.record(Finding{
			Kind:    UnresolvedValue,
			Time:    p.s.now,
			Routine: p.r.name,
			Signals: []string{ref},
			Label:   label,
			Message: fmt.Sprintf("%s contains unknown bits: %v", ref, v),
		})
		return nil
	case eq:
		return nil
	}
	n, _ := v.Uint64()
	return &Finding{
		Kind:    AssertionMismatch,
		Time:    p.s.now,
		Routine: p.r.name,
		Signals: []string{ref},
		Label:   label,
		Message: fmt.Sprintf("expected %d, got %d", want, n),
	}
}

// Expect compares a signal against an expected value and records a failure on
// mismatch. If the signal has unknown bits, the comparison is skipped and a
// warning is recorded instead. The routine continues in all cases.
//
// Expect returns true only if the value was resolved and matched.
//
func (p *Proc) Expect(label, ref string, want uint64) bool {
	f := p.compare(label, ref, want)
	if f != nil {
		p.s.record(*f)
		return false
	}
	eq, ok := p.Read(ref).Match(want)
	return eq && ok
}

// Require is like Expect but returns an *AssertionError on mismatch, meant to
// be returned by the routine. Unknown bits still only produce a warning and a
// nil error.
//
func (p *Proc) Require(label, ref string, want uint64) error {
	f := p.compare(label, ref, want)
	if f == nil {
		return nil
	}
	p.s.record(*f)
	return errors.WithStack(&AssertionError{*f})
}

// Warnf records a warning.
//
func (p *Proc) Warnf(format string, args ...interface{}) {
	p.s.record(Finding{Kind: Note, Time: p.s.now, Routine: p.r.name, Message: fmt.Sprintf(format, args...)})
}

// Logf logs an informational message.
//
func (p *Proc) Logf(format string, args ...interface{}) {
	p.s.log.Info(fmt.Sprintf(format, args...), "sim_time", p.s.now.String(), "routine", p.r.name)
}
