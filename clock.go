// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"github.com/pkg/errors"
)

// Clock is a free running clock generator driving a 1 bit signal with a 50%
// duty cycle.
//
type Clock struct {
	signal  string
	period  Time
	phase   Time
	first   Edge
	running bool
}

// A ClockOption configures a Clock.
//
type ClockOption func(*Clock)

// WithPhase delays the first transition of the clock by d.
//
func WithPhase(d Time) ClockOption {
	return func(c *Clock) { c.phase = d }
}

// FallingFirst makes the clock start high, with a falling edge as first
// transition. By default, clocks start low.
//
func FallingFirst() ClockOption {
	return func(c *Clock) { c.first = Falling }
}

// NewClock returns a new clock for the named signal. The period must be a
// non-zero, even number of picoseconds.
//
func NewClock(signal string, period Time, opts ...ClockOption) (*Clock, error) {
	if period == 0 || period%2 != 0 {
		return nil, errors.Errorf("clock %s: invalid period %v", signal, period)
	}
	c := &Clock{signal: signal, period: period, first: Rising}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Signal returns the name of the clock signal.
//
func (c *Clock) Signal() string { return c.signal }

// Period returns the clock period.
//
func (c *Clock) Period() Time { return c.period }

// Running returns true if the clock has been started.
//
func (c *Clock) Running() bool { return c.running }

// Start spawns the clock routine from the routine p. The clock signal is
// driven to its initial level right away and the first transition happens
// exactly one half period (plus phase) later. The clock runs until the end of
// the session.
//
// Starting a running clock returns ErrClockRunning.
//
func (c *Clock) Start(p *Proc) error {
	if c.running {
		return errors.Wrapf(ErrClockRunning, "clock %s", c.signal)
	}
	if _, err := p.s.bus.lookup(c.signal); err != nil {
		return err
	}
	c.running = true
	p.Spawn("clock("+c.signal+")", c.run)
	return nil
}

func (c *Clock) run(p *Proc) error {
	half := c.period / 2
	var level uint64
	if c.first == Falling {
		level = 1
	}
	p.Drive(c.signal, level)
	if c.phase > 0 {
		p.Delay(c.phase)
	}
	for {
		p.Delay(half)
		level ^= 1
		p.Drive(c.signal, level)
	}
}
