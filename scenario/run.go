// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scenario

import (
	"context"
	"sort"
	"sync"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/mac"
	"github.com/pkg/errors"
)

// A Factory builds a device from its description in a scenario.
//
type Factory func(spec DeviceSpec) (evsim.Device, error)

var (
	regMu    sync.RWMutex
	registry = make(map[string]Factory)
)

// Register makes a device variant available to scenarios. It panics if the
// variant is already registered.
//
func Register(variant string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, ok := registry[variant]; ok {
		panic("scenario: variant " + variant + " registered twice")
	}
	registry[variant] = f
}

// Variants returns the registered device variants.
//
func Variants() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	vs := make([]string, 0, len(registry))
	for k := range registry {
		vs = append(vs, k)
	}
	sort.Strings(vs)
	return vs
}

func init() {
	for _, v := range mac.Variants() {
		variant := v
		Register(variant, func(spec DeviceSpec) (evsim.Device, error) {
			cfg, err := mac.Preset(variant)
			if err != nil {
				return nil, err
			}
			return mac.New(cfg.Merge(spec.Config))
		})
	}
}

// Build builds the device described by spec.
//
func (spec DeviceSpec) Build() (evsim.Device, error) {
	regMu.RLock()
	f, ok := registry[spec.Variant]
	regMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown device variant %q", spec.Variant)
	}
	return f(spec)
}

// Run builds the scenario device and replays the scenario steps against it.
// The scenario time limit, if any, is applied before opts.
//
// As with evsim.Session.Run, the report is non-nil as soon as the session
// could be started, and failed checks are reported in the report, not as an
// error.
//
func Run(ctx context.Context, sc *Scenario, opts ...evsim.Option) (*evsim.Report, error) {
	dev, err := sc.Device.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", sc.Name)
	}
	if sc.TimeLimit > 0 {
		opts = append([]evsim.Option{evsim.WithTimeLimit(sc.TimeLimit)}, opts...)
	}
	s, err := evsim.NewSession(dev, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", sc.Name)
	}
	var clk *evsim.Clock
	if c := sc.Clock; c != nil {
		var copts []evsim.ClockOption
		if c.Phase > 0 {
			copts = append(copts, evsim.WithPhase(c.Phase))
		}
		if c.FallingFirst {
			copts = append(copts, evsim.FallingFirst())
		}
		if clk, err = evsim.NewClock(c.Signal, c.Period, copts...); err != nil {
			return nil, errors.Wrapf(err, "scenario %s", sc.Name)
		}
	}
	r := &runner{sc: sc, bus: s.Bus()}
	return s.Run(ctx, func(p *evsim.Proc) error {
		if clk != nil {
			if err := clk.Start(p); err != nil {
				return err
			}
		}
		for i := range sc.Steps {
			if err := r.step(p, &sc.Steps[i]); err != nil {
				return errors.Wrapf(err, "steps[%d]", i)
			}
		}
		return nil
	})
}

type runner struct {
	sc  *Scenario
	bus *evsim.Bus
}

func (r *runner) step(p *evsim.Proc, st *Step) error {
	switch {
	case len(st.Drive) > 0:
		for _, a := range st.Drive {
			if !a.Level.Unknown {
				p.Drive(a.Signal, a.Level.Value)
				continue
			}
			spec, err := r.bus.Spec(a.Signal)
			if err != nil {
				return err
			}
			p.DriveValue(a.Signal, evsim.X(spec.Width))
		}
	case len(st.Release) > 0:
		for _, name := range st.Release {
			p.Release(name)
		}
	case st.Handoff != nil:
		p.Handoff(st.Handoff.Signal, st.Handoff.To)
	case st.Wait != nil:
		r.wait(p, st.Wait)
	case st.Expect != nil:
		e := st.Expect
		if e.Soft {
			p.Expect(e.Label, e.Signal, e.Value.Value)
			return nil
		}
		return p.Require(e.Label, e.Signal, e.Value.Value)
	case st.Log != "":
		p.Logf("%s", st.Log)
	}
	return nil
}

func (r *runner) wait(p *evsim.Proc, w *Wait) {
	switch {
	case w.Cycles > 0:
		sig := w.Signal
		if sig == "" {
			sig = r.sc.Clock.Signal
		}
		p.ClockCycles(sig, w.Cycles)
	case w.Delay > 0:
		p.Delay(w.Delay)
	case w.Rising != "":
		p.RisingEdge(w.Rising)
	case w.Falling != "":
		p.FallingEdge(w.Falling)
	}
}
