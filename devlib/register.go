// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package devlib

import (
	"github.com/db47h/evsim"
)

// Register is an edge triggered register with a load enable, built like a row
// of data flip flops. Registers power up with an unknown value.
//
// The owning device calls Tick on its clock edges.
//
type Register struct {
	q evsim.Value
}

// NewRegister returns a new register of the given width.
//
func NewRegister(width int) *Register {
	return &Register{q: evsim.X(width)}
}

// Q returns the register output.
//
func (r *Register) Q() evsim.Value { return r.q }

// Width returns the register width.
//
func (r *Register) Width() int { return r.q.Width() }

// Tick latches d if load is 1. If load is unknown, bits where d and the current
// output differ become unknown.
//
//	Function: if load { q(t) = d(t-1) } else { q(t) = q(t-1) }
//
func (r *Register) Tick(d evsim.Value, load evsim.Logic) {
	d = d.Resize(r.q.Width())
	switch load {
	case evsim.L1:
		r.q = d
	case evsim.LX:
		r.q, _ = r.q.Resolve(d)
	}
}

// Reset clears the register to 0.
//
func (r *Register) Reset() { r.q = evsim.V(r.q.Width(), 0) }

// Invalidate sets all bits of the register to unknown.
//
func (r *Register) Invalidate() { r.q = evsim.X(r.q.Width()) }

// Pipeline is a delay line of registers.
//
type Pipeline struct {
	stages []*Register
}

// NewPipeline returns a pipeline of depth registers. A pipeline of depth 0 is
// a plain wire.
//
func NewPipeline(width, depth int) *Pipeline {
	p := &Pipeline{stages: make([]*Register, depth)}
	for i := range p.stages {
		p.stages[i] = NewRegister(width)
	}
	return p
}

// Depth returns the number of registers in the pipeline.
//
func (p *Pipeline) Depth() int { return len(p.stages) }

// Out returns the output of the pipeline given its current input.
//
func (p *Pipeline) Out(in evsim.Value) evsim.Value {
	if len(p.stages) == 0 {
		return in
	}
	return p.stages[len(p.stages)-1].Q()
}

// Tick shifts in into the pipeline.
//
func (p *Pipeline) Tick(in evsim.Value) {
	for i := len(p.stages) - 1; i > 0; i-- {
		p.stages[i].Tick(p.stages[i-1].Q(), evsim.L1)
	}
	if len(p.stages) > 0 {
		p.stages[0].Tick(in, evsim.L1)
	}
}

// Reset clears all registers.
//
func (p *Pipeline) Reset() {
	for _, r := range p.stages {
		r.Reset()
	}
}
