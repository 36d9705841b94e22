// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package mac implements a reference multiply-accumulate device.
//
// On each rising clock edge with enable asserted, the device adds the product
// of its two inputs to an internal accumulator. The low half of the
// accumulator is always visible on the low output. The high half goes out on a
// second port which, depending on the configuration, can be bidirectional: the
// test bench can then drive it and ask the device to latch the driven value
// into the high half of the accumulator.
//
package mac

import (
	"github.com/db47h/evsim"
	"github.com/db47h/evsim/devlib"
)

// MAC is a simulated multiply-accumulate device. It implements evsim.Device.
//
type MAC struct {
	cfg   Config
	acc   *devlib.Register
	prod  *devlib.Pipeline
	en    *devlib.Pipeline
	lowW  int
	highW int
}

// New returns a new device with the given configuration.
//
func New(cfg Config) (*MAC, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &MAC{
		cfg:  cfg,
		acc:  devlib.NewRegister(cfg.AccWidth),
		prod: devlib.NewPipeline(cfg.AccWidth, cfg.Latency-1),
		en:   devlib.NewPipeline(1, cfg.Latency-1),
		lowW: cfg.AccWidth,
	}
	if cfg.Signals.High != "" {
		m.lowW = cfg.AccWidth / 2
		m.highW = cfg.AccWidth / 2
	}
	return m, nil
}

// Name returns the device name.
//
func (m *MAC) Name() string { return m.cfg.Name }

// Config returns the device configuration.
//
func (m *MAC) Config() Config { return m.cfg }

// Acc returns the current value of the accumulator.
//
func (m *MAC) Acc() evsim.Value { return m.acc.Q() }

// Signals implements evsim.Device.
//
func (m *MAC) Signals() []evsim.SignalSpec {
	n := m.cfg.Signals
	sig := func(name string, width int, dir evsim.Direction) evsim.SignalSpec {
		return evsim.SignalSpec{Name: name, Width: width, Dir: dir}
	}
	ss := []evsim.SignalSpec{
		sig(n.Clock, 1, evsim.Input),
		sig(n.Reset, 1, evsim.Input),
		sig(n.Enable, 1, evsim.Input),
		sig(n.A, m.cfg.InputWidth, evsim.Input),
		sig(n.B, m.cfg.InputWidth, evsim.Input),
		sig(n.Low, m.lowW, evsim.Output),
	}
	if n.High == "" {
		return ss
	}
	if n.Drive == "" {
		ss = append(ss, sig(n.High, m.highW, evsim.Output))
	} else {
		ss = append(ss, sig(n.High, m.highW, evsim.Bidir), sig(n.Drive, 1, evsim.Input))
	}
	if n.HighOE != "" {
		ss = append(ss, sig(n.HighOE, m.highW, evsim.Output))
	}
	if n.LoadHigh != "" {
		ss = append(ss, sig(n.LoadHigh, 1, evsim.Input))
	}
	return ss
}

// Settle implements evsim.Device.
//
func (m *MAC) Settle(p *evsim.Port) error {
	if p.Rose(m.cfg.Signals.Clock) {
		m.tick(p)
	}
	return m.drive(p)
}

// inReset returns the state of the reset signal as active high.
//
func (m *MAC) inReset(p *evsim.Port) evsim.Logic {
	l := p.Read(m.cfg.Signals.Reset).At(0)
	if m.cfg.Reset == ActiveLow {
		return devlib.Not(evsim.Bit(l)).At(0)
	}
	return l
}

func (m *MAC) tick(p *evsim.Port) {
	n := m.cfg.Signals
	switch m.inReset(p) {
	case evsim.L1:
		m.acc.Reset()
		m.prod.Reset()
		m.en.Reset()
		return
	case evsim.LX:
		m.acc.Invalidate()
		return
	}

	prod := devlib.Mul(p.Read(n.A), p.Read(n.B), m.cfg.AccWidth)
	en := evsim.Bit(p.Read(n.Enable).At(0))
	prodOut, enOut := m.prod.Out(prod), m.en.Out(en)
	m.prod.Tick(prod)
	m.en.Tick(en)

	q := m.acc.Q()
	sum, _ := devlib.Add(q, prodOut)
	next := devlib.Mux(enOut.At(0), q, sum)
	if n.LoadHigh != "" {
		loaded := next.Insert(m.lowW, p.Read(n.High))
		next = devlib.Mux(p.Read(n.LoadHigh).At(0), next, loaded)
	}
	m.acc.Tick(next, evsim.L1)
}

func (m *MAC) drive(p *evsim.Port) error {
	n := m.cfg.Signals
	q := m.acc.Q()
	if err := p.Drive(n.Low, q.Slice(0, m.lowW-1)); err != nil {
		return err
	}
	if n.High == "" {
		return nil
	}

	high := q.Slice(m.lowW, m.cfg.AccWidth-1)
	oe := evsim.L1
	if n.Drive != "" {
		oe = p.Read(n.Drive).At(0)
	}
	var err error
	switch oe {
	case evsim.L1:
		if n.Drive != "" {
			err = p.Handoff(n.High, evsim.DUT)
		}
		if err == nil {
			err = p.Drive(n.High, high)
		}
	case evsim.L0:
		if err = p.Handoff(n.High, evsim.External); err == nil {
			err = p.Release(n.High)
		}
	default:
		err = p.Drive(n.High, evsim.X(m.highW))
	}
	if err != nil {
		return err
	}
	if n.HighOE != "" {
		ones := evsim.V(m.highW, 1<<uint(m.highW)-1)
		return p.Drive(n.HighOE, devlib.Mux(oe, evsim.V(m.highW, 0), ones))
	}
	return nil
}
