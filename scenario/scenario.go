// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package scenario loads test sequences described in YAML files and replays
// them against simulated devices.
//
// A scenario names a device variant, an optional free running clock and a list
// of steps:
//
//	name: mac_spst_tiny
//	device: {variant: discrete, latency: 1}
//	clock: {signal: clk, period: 10ns}
//	steps:
//	  - drive: {rst_n: 0, acc_en: 0, io_drive: 1}
//	  - wait: {cycles: 5}
//	  - expect: {label: "Accumulated Low Byte", signal: out_low, value: 222}
//
// Each step does exactly one thing: drive, release, handoff, wait, expect or
// log.
//
package scenario

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/mac"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Scenario is a test sequence for a device.
//
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Device      DeviceSpec `yaml:"device"`
	Clock       *Clock     `yaml:"clock,omitempty"`
	TimeLimit   evsim.Time `yaml:"time_limit,omitempty"`
	Steps       []Step     `yaml:"steps"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-"`
}

// DeviceSpec selects a device variant and overrides parts of its
// configuration.
//
type DeviceSpec struct {
	Variant    string `yaml:"variant"`
	mac.Config `yaml:",inline"`
}

// Clock describes the free running clock started before the first step.
//
type Clock struct {
	Signal       string     `yaml:"signal"`
	Period       evsim.Time `yaml:"period"`
	Phase        evsim.Time `yaml:"phase,omitempty"`
	FallingFirst bool       `yaml:"falling_first,omitempty"`
}

// Step is a single scenario step. Exactly one field must be set.
//
type Step struct {
	Drive   Drives   `yaml:"drive,omitempty"`
	Release []string `yaml:"release,omitempty"`
	Handoff *Handoff `yaml:"handoff,omitempty"`
	Wait    *Wait    `yaml:"wait,omitempty"`
	Expect  *Expect  `yaml:"expect,omitempty"`
	Log     string   `yaml:"log,omitempty"`
}

// Handoff passes the owner token of a bidirectional signal.
//
type Handoff struct {
	Signal string      `yaml:"signal"`
	To     evsim.Party `yaml:"to"`
}

// Wait suspends the sequence. Exactly one field must be set. Cycles counts
// rising edges of Signal, or of the scenario clock if Signal is empty.
//
type Wait struct {
	Cycles  int        `yaml:"cycles,omitempty"`
	Signal  string     `yaml:"signal,omitempty"`
	Delay   evsim.Time `yaml:"delay,omitempty"`
	Rising  string     `yaml:"rising,omitempty"`
	Falling string     `yaml:"falling,omitempty"`
}

// Expect checks a signal or bit range against an expected value. A failed hard
// check ends the scenario, a failed soft check is only recorded.
//
type Expect struct {
	Label  string `yaml:"label"`
	Signal string `yaml:"signal"`
	Value  Level  `yaml:"value"`
	Soft   bool   `yaml:"soft,omitempty"`
}

// Level is a value to drive or expect. In YAML, it is either an integer, a
// string holding an integer in any Go syntax ("0xAA", "0b1010"), or "x" for a
// fully unknown value.
//
type Level struct {
	Value   uint64
	Unknown bool
}

func (l Level) String() string {
	if l.Unknown {
		return "x"
	}
	return strconv.FormatUint(l.Value, 10)
}

// UnmarshalYAML implements yaml.Unmarshaler.
//
func (l *Level) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: expected a value", n.Line)
	}
	s := strings.TrimSpace(n.Value)
	if s == "x" || s == "X" {
		*l = Level{Unknown: true}
		return nil
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 64)
	if err != nil {
		return errors.Errorf("line %d: invalid value %q", n.Line, n.Value)
	}
	*l = Level{Value: v}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
//
func (l Level) MarshalYAML() (interface{}, error) {
	if l.Unknown {
		return "x", nil
	}
	return l.Value, nil
}

// Assign is a signal assignment.
//
type Assign struct {
	Signal string
	Level  Level
}

// Drives is an ordered list of assignments. In YAML, it is a mapping from
// signal names to levels. Assignments are applied in file order.
//
type Drives []Assign

// UnmarshalYAML implements yaml.Unmarshaler.
//
func (d *Drives) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: drive expects a mapping of signal names to values", n.Line)
	}
	out := make(Drives, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var a Assign
		a.Signal = n.Content[i].Value
		if err := n.Content[i+1].Decode(&a.Level); err != nil {
			return err
		}
		out = append(out, a)
	}
	*d = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
//
func (d Drives) MarshalYAML() (interface{}, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	for _, a := range d {
		var v yaml.Node
		if err := v.Encode(a.Level); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: a.Signal}, &v)
	}
	return n, nil
}

// Parse parses a scenario.
//
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and parses a scenario file.
//
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	sc.Path = path
	return sc, nil
}

// LoadDir loads all the .yaml and .yml files in dir, sorted by file name.
//
func LoadDir(dir string) ([]*Scenario, error) {
	var files []string
	for _, pat := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		files = append(files, m...)
	}
	sort.Strings(files)
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Validate checks that the scenario is well formed. It does not check signal
// names, which are only known once the device is built.
//
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return errors.New("name is required")
	}
	if sc.Device.Variant == "" {
		return errors.New("device.variant is required")
	}
	if sc.Clock != nil && sc.Clock.Signal == "" {
		return errors.New("clock.signal is required")
	}
	if len(sc.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}
	for i := range sc.Steps {
		if err := sc.validateStep(&sc.Steps[i]); err != nil {
			return errors.Wrapf(err, "steps[%d]", i)
		}
	}
	return nil
}

func (sc *Scenario) validateStep(st *Step) error {
	n := 0
	for _, set := range []bool{len(st.Drive) > 0, len(st.Release) > 0, st.Handoff != nil, st.Wait != nil, st.Expect != nil, st.Log != ""} {
		if set {
			n++
		}
	}
	if n != 1 {
		return errors.Errorf("expected exactly one action, got %d", n)
	}
	switch {
	case st.Handoff != nil:
		if st.Handoff.Signal == "" {
			return errors.New("handoff: signal is required")
		}
	case st.Expect != nil:
		if st.Expect.Signal == "" {
			return errors.New("expect: signal is required")
		}
		if st.Expect.Value.Unknown {
			return errors.New("expect: cannot expect an unknown value")
		}
	case st.Wait != nil:
		w := st.Wait
		n = 0
		for _, set := range []bool{w.Cycles > 0, w.Delay > 0, w.Rising != "", w.Falling != ""} {
			if set {
				n++
			}
		}
		if n != 1 {
			return errors.New("wait: expected exactly one of cycles, delay, rising or falling")
		}
		if w.Cycles > 0 && w.Signal == "" && sc.Clock == nil {
			return errors.New("wait: cycles without signal needs a scenario clock")
		}
	}
	return nil
}
