// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing simulated devices.
//
package simtest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
)

type config struct {
	period evsim.Time
	seed   int64
	fixed  map[string]uint64
}

// An Option configures CompareDevices.
//
type Option func(*config)

// Period sets the clock period. The default is 10ns.
//
func Period(t evsim.Time) Option { return func(c *config) { c.period = t } }

// Seed sets the seed of the random input generator. By default, a time based
// seed is used and logged.
//
func Seed(s int64) Option { return func(c *config) { c.seed = s } }

// Fixed holds an input signal at a fixed value instead of randomizing it.
//
func Fixed(name string, v uint64) Option {
	return func(c *config) { c.fixed[name] = v }
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type sample struct {
	inputs  []uint64
	outputs []evsim.Value
}

// record runs dev for the given number of cycles of clock, driving random
// values on its inputs before each rising edge and sampling its outputs after
// it.
//
func record(dev evsim.Device, clock string, cycles int, c *config) ([]sample, error) {
	var ins, outs []evsim.SignalSpec
	for _, s := range dev.Signals() {
		switch {
		case s.Name == clock:
		case s.Dir == evsim.Input:
			ins = append(ins, s)
		default:
			outs = append(outs, s)
		}
	}
	clk, err := evsim.NewClock(clock, c.period)
	if err != nil {
		return nil, err
	}
	s, err := evsim.NewSession(dev, evsim.WithLogger(quiet), evsim.WithoutTrace())
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(c.seed))
	samples := make([]sample, 0, cycles)
	_, err = s.Run(context.Background(), func(p *evsim.Proc) error {
		if err := clk.Start(p); err != nil {
			return err
		}
		for i := 0; i < cycles; i++ {
			var smp sample
			for _, in := range ins {
				v, ok := c.fixed[in.Name]
				if !ok {
					v = rng.Uint64()
				}
				v &= 1<<uint(in.Width) - 1
				smp.inputs = append(smp.inputs, v)
				p.Drive(in.Name, v)
			}
			p.RisingEdge(clock)
			for _, out := range outs {
				smp.outputs = append(smp.outputs, p.Read(out.Name))
			}
			samples = append(samples, smp)
		}
		return nil
	})
	return samples, err
}

func sameSignals(s1, s2 []evsim.SignalSpec) error {
	if len(s1) != len(s2) {
		return errors.Errorf("len(s1) = %d != len(s2) = %d", len(s1), len(s2))
	}
	for i := range s1 {
		if s1[i] != s2[i] {
			return errors.Errorf("s1[%d] = %+v != s2[%d] = %+v", i, s1[i], i, s2[i])
		}
	}
	return nil
}

// CompareDevices takes two devices and compares their outputs given the same
// inputs. Both devices must have the same signals.
//
// Inputs other than the clock are randomized before each rising edge of the
// clock, and all output and bidirectional signals are compared after each
// rising edge. Unknown bits must match too.
//
func CompareDevices(t testing.TB, clock string, cycles int, d1, d2 evsim.Device, opts ...Option) {
	t.Helper()
	c := &config{period: 10 * evsim.NS, seed: time.Now().UnixNano(), fixed: make(map[string]uint64)}
	for _, o := range opts {
		o(c)
	}

	if err := sameSignals(d1.Signals(), d2.Signals()); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	r1, err := record(d1, clock, cycles, c)
	if err != nil {
		t.Fatalf("%s: %v", d1.Name(), err)
	}
	r2, err := record(d2, clock, cycles, c)
	if err != nil {
		t.Fatalf("%s: %v", d2.Name(), err)
	}

	var ins, outs []string
	for _, s := range d1.Signals() {
		switch {
		case s.Name == clock:
		case s.Dir == evsim.Input:
			ins = append(ins, s.Name)
		default:
			outs = append(outs, s.Name)
		}
	}
	errString := func(cycle int, in []uint64, oname string, ex, got evsim.Value) string {
		var b strings.Builder
		for i, n := range ins {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%d", n, in[i])
		}
		return fmt.Sprintf("\nCycle %d (seed %d): %s\nExpected %s=%v\nGot %v", cycle, c.seed, b.String(), oname, ex, got)
	}
	for i := range r1 {
		for o := range r1[i].outputs {
			if ex, got := r1[i].outputs[o], r2[i].outputs[o]; !ex.Equal(got) {
				t.Fatal(errString(i, r1[i].inputs, outs[o], ex, got))
			}
		}
	}
	t.Logf("%d cycles x 2 devices in %v (seed %d)", cycles, time.Since(start), c.seed)
}
