package devlib_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/devlib"
)

func TestFullAdd(t *testing.T) {
	for i := 0; i < 8; i++ {
		a, b, c := evsim.LogicOf(i&4 != 0), evsim.LogicOf(i&2 != 0), evsim.LogicOf(i&1 != 0)
		s, cout := devlib.FullAdd(a, b, c)
		n := i>>2 + i>>1&1 + i&1
		if s != evsim.LogicOf(n&1 != 0) || cout != evsim.LogicOf(n&2 != 0) {
			t.Errorf("FullAdd(%v, %v, %v) = %v, %v", a, b, c, s, cout)
		}
	}
	if s, c := devlib.FullAdd(evsim.L0, evsim.L0, evsim.LX); s != evsim.LX || c != evsim.L0 {
		t.Errorf("FullAdd(0, 0, x) = %v, %v, expected x, 0", s, c)
	}
}

func TestAdd(t *testing.T) {
	f := func(a, b uint16) bool {
		out, c := devlib.Add(evsim.V(16, uint64(a)), evsim.V(16, uint64(b)))
		n, ok := out.Uint64()
		sum := uint32(a) + uint32(b)
		return ok && n == uint64(uint16(sum)) && c == evsim.LogicOf(sum>>16 != 0)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestAdd_unknown(t *testing.T) {
	// 0011 + 000x: bit 0 is unknown and the carry chain makes bits 1 and 2
	// unknown. Bit 3 stays 0 since no carry can reach it.
	out, c := devlib.Add(evsim.V(4, 3), evsim.V(4, 0).With(0, evsim.LX))
	if s := out.String(); s != "0xxx" {
		t.Errorf("got %s, expected 0xxx", s)
	}
	if c != evsim.L0 {
		t.Errorf("carry = %v, expected 0", c)
	}
}

func TestMul(t *testing.T) {
	f := func(a, b uint8) bool {
		out := devlib.Mul(evsim.V(8, uint64(a)), evsim.V(8, uint64(b)), 16)
		n, ok := out.Uint64()
		return ok && n == uint64(a)*uint64(b)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
	// truncated
	out := devlib.Mul(evsim.V(8, 200), evsim.V(8, 2), 8)
	if n, ok := out.Uint64(); !ok || n != 144 {
		t.Errorf("200*2 mod 256 = %v, expected 144", out)
	}
}

func TestMul_unknown(t *testing.T) {
	// anything times 0 is 0
	out := devlib.Mul(evsim.X(8), evsim.V(8, 0), 16)
	if n, ok := out.Uint64(); !ok || n != 0 {
		t.Errorf("x*0 = %v, expected 0", out)
	}
	out = devlib.Mul(evsim.X(8), evsim.V(8, 1), 16)
	if out.Resolvable() {
		t.Errorf("x*1 = %v, expected unknown bits", out)
	}
}
