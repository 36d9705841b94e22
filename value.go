// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strings"
)

// MaxWidth is the maximum width of a signal, in bits.
//
const MaxWidth = 64

// Logic is the state of a single bit.
//
type Logic uint8

// Bit states.
//
const (
	L0 Logic = iota // logic low
	L1              // logic high
	LX              // unknown
)

func (l Logic) String() string {
	switch l {
	case L0:
		return "0"
	case L1:
		return "1"
	}
	return "x"
}

// Known returns true if l is either L0 or L1.
//
func (l Logic) Known() bool { return l == L0 || l == L1 }

// LogicOf converts a bool to a Logic.
//
func LogicOf(b bool) Logic {
	if b {
		return L1
	}
	return L0
}

// A Value is the state of a wire or bus: up to 64 bits, each of them being
// either a known 0 or 1, or unknown.
//
// The only way to get the integer value of a Value is Uint64, which reports
// whether the value is resolvable. Unknown bits are never silently read as 0.
//
type Value struct {
	width uint8
	bits  uint64 // known bits. Bits set in x are always 0 here.
	x     uint64 // unknown bit mask
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

func checkWidth(width int) {
	if width < 1 || width > MaxWidth {
		panic("invalid value width")
	}
}

// V returns a fully resolved value of the given width. Bits of v above width
// are discarded.
//
func V(width int, v uint64) Value {
	checkWidth(width)
	return Value{width: uint8(width), bits: v & mask(width)}
}

// X returns a value of the given width with all bits unknown.
//
func X(width int) Value {
	checkWidth(width)
	return Value{width: uint8(width), x: mask(width)}
}

// Bit returns a 1 bit Value.
//
func Bit(l Logic) Value {
	switch l {
	case L0:
		return V(1, 0)
	case L1:
		return V(1, 1)
	}
	return X(1)
}

// Width returns the bit width of v. The zero Value has width 0.
//
func (v Value) Width() int { return int(v.width) }

// Uint64 returns the integer value of v and true if v is resolvable. If any bit
// is unknown, it returns 0, false.
//
func (v Value) Uint64() (uint64, bool) {
	if v.x != 0 {
		return 0, false
	}
	return v.bits, true
}

// Resolvable returns true if no bit of v is unknown.
//
func (v Value) Resolvable() bool { return v.x == 0 && v.width > 0 }

// UnknownMask returns the mask of unknown bits.
//
func (v Value) UnknownMask() uint64 { return v.x }

// At returns the state of bit i. Bits outside of the value are unknown.
//
func (v Value) At(i int) Logic {
	if i < 0 || i >= int(v.width) {
		return LX
	}
	m := uint64(1) << uint(i)
	switch {
	case v.x&m != 0:
		return LX
	case v.bits&m != 0:
		return L1
	}
	return L0
}

// With returns a copy of v with bit i set to l.
//
func (v Value) With(i int, l Logic) Value {
	if i < 0 || i >= int(v.width) {
		panic("bit index out of range")
	}
	m := uint64(1) << uint(i)
	v.bits &^= m
	v.x &^= m
	switch l {
	case L1:
		v.bits |= m
	case LX:
		v.x |= m
	}
	return v
}

// Equal returns true if v and w have the same width and the same state on
// every bit, unknown bits included.
//
func (v Value) Equal(w Value) bool {
	return v.width == w.width && v.bits == w.bits && v.x == w.x
}

// Match compares v against an expected integer. ok is false if v has unknown
// bits, in which case the comparison is meaningless and eq is false. An
// expected value that does not fit in the width of v never matches.
//
func (v Value) Match(want uint64) (eq, ok bool) {
	n, ok := v.Uint64()
	if !ok {
		return false, false
	}
	return n == want, true
}

// Slice returns bits lo through hi (inclusive) of v as a new value.
//
func (v Value) Slice(lo, hi int) Value {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 || hi >= int(v.width) {
		panic("bit range out of bounds")
	}
	w := hi - lo + 1
	m := mask(w)
	return Value{width: uint8(w), bits: (v.bits >> uint(lo)) & m, x: (v.x >> uint(lo)) & m}
}

// Insert returns a copy of v where bits starting at lo are replaced by w.
//
func (v Value) Insert(lo int, w Value) Value {
	if lo < 0 || lo+int(w.width) > int(v.width) {
		panic("bit range out of bounds")
	}
	m := mask(int(w.width)) << uint(lo)
	v.bits = v.bits&^m | w.bits<<uint(lo)
	v.x = v.x&^m | w.x<<uint(lo)
	return v
}

// Resize zero-extends or truncates v to the given width.
//
func (v Value) Resize(width int) Value {
	checkWidth(width)
	m := mask(width)
	return Value{width: uint8(width), bits: v.bits & m, x: v.x & m}
}

// Resolve combines the values put on a wire by two drivers. Bits where both
// drivers agree keep their state, other bits become unknown. conflict is the
// mask of bits where the drivers disagree or where either of them is unknown.
//
func (v Value) Resolve(w Value) (r Value, conflict uint64) {
	if v.width != w.width {
		panic("width mismatch")
	}
	conflict = (v.bits ^ w.bits) | v.x | w.x
	conflict &= mask(int(v.width))
	return Value{width: v.width, bits: v.bits &^ conflict, x: conflict}, conflict
}

// String returns the binary representation of v, MSB first, with unknown bits
// shown as 'x'.
//
func (v Value) String() string {
	if v.width == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(int(v.width))
	for i := int(v.width) - 1; i >= 0; i-- {
		b.WriteString(v.At(i).String())
	}
	return b.String()
}
