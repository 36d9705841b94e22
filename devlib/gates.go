// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package devlib provides three-valued building blocks for simulated devices:
// logic gates, adders, multipliers, registers and multiplexers.
//
// All functions work on evsim values and propagate unknown bits the way real
// logic does: an AND gate with a 0 input outputs 0 whatever its other input,
// but an XOR gate with an unknown input always outputs an unknown bit.
//
package devlib

import (
	"github.com/db47h/evsim"
)

// A Gate is a single bit logic function.
//
type Gate func(a, b evsim.Logic) evsim.Logic

// Single bit gates.
//
var (
	AndGate  Gate = and
	OrGate   Gate = or
	XorGate  Gate = xor
	NandGate Gate = func(a, b evsim.Logic) evsim.Logic { return not(and(a, b)) }
	NorGate  Gate = func(a, b evsim.Logic) evsim.Logic { return not(or(a, b)) }
	XnorGate Gate = func(a, b evsim.Logic) evsim.Logic { return not(xor(a, b)) }
)

func not(a evsim.Logic) evsim.Logic {
	switch a {
	case evsim.L0:
		return evsim.L1
	case evsim.L1:
		return evsim.L0
	}
	return evsim.LX
}

func and(a, b evsim.Logic) evsim.Logic {
	switch {
	case a == evsim.L0 || b == evsim.L0:
		return evsim.L0
	case a == evsim.L1 && b == evsim.L1:
		return evsim.L1
	}
	return evsim.LX
}

func or(a, b evsim.Logic) evsim.Logic {
	switch {
	case a == evsim.L1 || b == evsim.L1:
		return evsim.L1
	case a == evsim.L0 && b == evsim.L0:
		return evsim.L0
	}
	return evsim.LX
}

func xor(a, b evsim.Logic) evsim.Logic {
	if !a.Known() || !b.Known() {
		return evsim.LX
	}
	return evsim.LogicOf(a != b)
}

// Not returns the bitwise complement of in.
//
//	Function: for i := range out { out[i] = !in[i] }
//
func Not(in evsim.Value) evsim.Value {
	out := in
	for i := 0; i < in.Width(); i++ {
		out = out.With(i, not(in.At(i)))
	}
	return out
}

// Bitwise applies the gate g to every pair of bits of a and b. a and b must
// have the same width.
//
//	Function: for i := range out { out[i] = g(a[i], b[i]) }
//
func Bitwise(g Gate, a, b evsim.Value) evsim.Value {
	if a.Width() != b.Width() {
		panic("devlib: width mismatch")
	}
	out := a
	for i := 0; i < a.Width(); i++ {
		out = out.With(i, g(a.At(i), b.At(i)))
	}
	return out
}

// And returns the bitwise AND of a and b.
//
func And(a, b evsim.Value) evsim.Value { return Bitwise(and, a, b) }

// Or returns the bitwise OR of a and b.
//
func Or(a, b evsim.Value) evsim.Value { return Bitwise(or, a, b) }

// Xor returns the bitwise XOR of a and b.
//
func Xor(a, b evsim.Value) evsim.Value { return Bitwise(xor, a, b) }

// OrReduce returns the OR of all bits of in.
//
//	Function: out = in[0] || in[1] || in[2] || ... || in[n-1]
//
func OrReduce(in evsim.Value) evsim.Logic {
	out := evsim.L0
	for i := 0; i < in.Width(); i++ {
		out = or(out, in.At(i))
	}
	return out
}

// AndReduce returns the AND of all bits of in.
//
//	Function: out = in[0] && in[1] && in[2] && ... && in[n-1]
//
func AndReduce(in evsim.Value) evsim.Logic {
	out := evsim.L1
	for i := 0; i < in.Width(); i++ {
		out = and(out, in.At(i))
	}
	return out
}
