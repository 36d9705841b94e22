// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package devlib

import (
	"github.com/db47h/evsim"
)

// HalfAdd is a half adder.
//
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdd(a, b evsim.Logic) (s, c evsim.Logic) {
	return xor(a, b), and(a, b)
}

// FullAdd is a full adder.
//
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdd(a, b, cin evsim.Logic) (s, cout evsim.Logic) {
	s0, c0 := HalfAdd(a, b)
	s, c1 := HalfAdd(s0, cin)
	return s, or(c0, c1)
}

// Add is a ripple carry adder. a and b must have the same width. An unknown
// bit makes its sum bit unknown and may propagate through the carry chain to
// all the bits above it.
//
//	Function: out = a + b mod 2^width
//	          c = carry out
//
func Add(a, b evsim.Value) (out evsim.Value, c evsim.Logic) {
	if a.Width() != b.Width() {
		panic("devlib: width mismatch")
	}
	out = a
	c = evsim.L0
	for i := 0; i < a.Width(); i++ {
		var s evsim.Logic
		s, c = FullAdd(a.At(i), b.At(i), c)
		out = out.With(i, s)
	}
	return out, c
}

// Mul is a shift-and-add multiplier. The result is truncated to width bits.
//
//	Function: out = a * b mod 2^width
//
func Mul(a, b evsim.Value, width int) evsim.Value {
	out := evsim.V(width, 0)
	for i := 0; i < b.Width() && i < width; i++ {
		bi := b.At(i)
		if bi == evsim.L0 {
			continue
		}
		pp := evsim.V(width, 0)
		for j := 0; j < a.Width() && i+j < width; j++ {
			pp = pp.With(i+j, and(a.At(j), bi))
		}
		out, _ = Add(out, pp)
	}
	return out
}
