// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// A Device is the simulated circuit under test.
//
// Settle is called by the scheduler after every commit that changed at least
// one signal. It must compute the device outputs from the committed values of
// its inputs and its internal state, and drive them through the Port. Clocked
// devices update their state when Port.Rose reports an edge of their clock.
//
// Outputs driven during Settle are committed in the next delta cycle, after
// which Settle is called again if anything changed. A device whose outputs
// never settle makes the session fault.
//
type Device interface {
	Name() string
	Signals() []SignalSpec
	Settle(p *Port) error
}

// Port is the device side view of the signal bus during Settle.
//
// Read, Rose, Fell and Changed panic if the signal does not exist. The panic is
// reported as a fault of the device.
//
type Port struct {
	s       *Session
	changed map[string]Change
}

// Now returns the current simulated time.
//
func (p *Port) Now() Time { return p.s.now }

// Read returns the committed value of the named signal.
//
func (p *Port) Read(name string) Value {
	v, err := p.s.bus.Read(name)
	if err != nil {
		panic(routineError{err})
	}
	return v
}

func (p *Port) change(name string) (Change, bool) {
	if _, err := p.s.bus.lookup(name); err != nil {
		panic(routineError{err})
	}
	c, ok := p.changed[name]
	return c, ok
}

// Changed returns true if the named signal changed in the commit that
// triggered this call to Settle.
//
func (p *Port) Changed(name string) bool {
	_, ok := p.change(name)
	return ok
}

// Rose returns true if bit 0 of the named signal went from 0 to 1 in the commit
// that triggered this call to Settle.
//
func (p *Port) Rose(name string) bool {
	c, ok := p.change(name)
	return ok && Rising.match(c.Old, c.New)
}

// Fell returns true if bit 0 of the named signal went from 1 to 0 in the commit
// that triggered this call to Settle.
//
func (p *Port) Fell(name string) bool {
	c, ok := p.change(name)
	return ok && Falling.match(c.Old, c.New)
}

// Drive drives a value on an output or bidirectional signal.
//
func (p *Port) Drive(name string, v Value) error {
	return p.s.bus.Drive(DUT, name, v)
}

// DriveInt drives an integer value on an output or bidirectional signal.
//
func (p *Port) DriveInt(name string, v uint64) error {
	return p.s.bus.DriveInt(DUT, name, v)
}

// Release stops the device from driving a bidirectional signal.
//
func (p *Port) Release(name string) error {
	return p.s.bus.Release(DUT, name)
}

// Owner returns the owner of a bidirectional signal.
//
func (p *Port) Owner(name string) (Party, error) {
	return p.s.bus.Owner(name)
}

// Handoff passes the owner token of a bidirectional signal.
//
func (p *Port) Handoff(name string, to Party) error {
	return p.s.bus.Handoff(name, to)
}
