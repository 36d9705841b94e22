// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package devlib

import (
	"github.com/db47h/evsim"
)

// Mux is a multiplexer. With an unknown selector, only the bits on which a and
// b agree are known.
//
//	Function: if sel == 0 { out = a } else { out = b }
//
func Mux(sel evsim.Logic, a, b evsim.Value) evsim.Value {
	switch sel {
	case evsim.L0:
		return a
	case evsim.L1:
		return b
	}
	out, _ := a.Resolve(b)
	return out
}

// DMux is a demultiplexer.
//
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
func DMux(sel evsim.Logic, in evsim.Value) (a, b evsim.Value) {
	zero := evsim.V(in.Width(), 0)
	switch sel {
	case evsim.L0:
		return in, zero
	case evsim.L1:
		return zero, in
	}
	a, _ = in.Resolve(zero)
	return a, a
}
