package devlib_test

import (
	"testing"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/devlib"
)

func TestRegister(t *testing.T) {
	r := devlib.NewRegister(8)
	if r.Q().Resolvable() {
		t.Fatalf("new register is %v, expected unknown", r.Q())
	}
	r.Reset()
	if n, ok := r.Q().Uint64(); !ok || n != 0 {
		t.Fatalf("after reset: %v", r.Q())
	}
	r.Tick(evsim.V(8, 42), evsim.L0)
	if n, _ := r.Q().Uint64(); n != 0 {
		t.Fatalf("load disabled: got %v", r.Q())
	}
	r.Tick(evsim.V(8, 42), evsim.L1)
	if n, _ := r.Q().Uint64(); n != 42 {
		t.Fatalf("load: got %v, expected 42", r.Q())
	}
	// 42 = 00101010, 43 = 00101011
	r.Tick(evsim.V(8, 43), evsim.LX)
	if s := r.Q().String(); s != "0010101x" {
		t.Fatalf("unknown load: got %s", s)
	}
	r.Invalidate()
	if r.Q().UnknownMask() != 0xff {
		t.Fatalf("invalidate: got %v", r.Q())
	}
}

func TestPipeline(t *testing.T) {
	p := devlib.NewPipeline(8, 2)
	p.Reset()
	var outs []uint64
	for i := uint64(1); i <= 4; i++ {
		in := evsim.V(8, i)
		p.Tick(in)
		n, _ := p.Out(in).Uint64()
		outs = append(outs, n)
	}
	expected := []uint64{0, 1, 2, 3}
	for i := range expected {
		if outs[i] != expected[i] {
			t.Fatalf("got %v, expected %v", outs, expected)
		}
	}

	wire := devlib.NewPipeline(8, 0)
	wire.Tick(evsim.V(8, 7))
	if n, _ := wire.Out(evsim.V(8, 9)).Uint64(); n != 9 {
		t.Fatalf("depth 0: got %d, expected 9", n)
	}
}
