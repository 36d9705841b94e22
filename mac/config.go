// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package mac

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Polarity is the active level of the reset signal.
//
type Polarity uint8

// Reset polarities. The zero value means unset.
//
const (
	ActiveLow Polarity = iota + 1
	ActiveHigh
)

func (p Polarity) String() string {
	switch p {
	case ActiveLow:
		return "low"
	case ActiveHigh:
		return "high"
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler.
//
func (p Polarity) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (p *Polarity) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "low":
		*p = ActiveLow
	case "high":
		*p = ActiveHigh
	default:
		return errors.Errorf("invalid reset polarity %q", text)
	}
	return nil
}

// Names maps the ports of the accumulator to signal names.
//
// High, HighOE, Drive and LoadHigh are optional. Without High, Low carries the
// whole accumulator. Without Drive, High is a plain output. Otherwise High is
// bidirectional and the device only drives it while Drive is 1.
//
type Names struct {
	Clock    string `yaml:"clock,omitempty"`
	Reset    string `yaml:"reset,omitempty"`
	Enable   string `yaml:"enable,omitempty"`
	A        string `yaml:"a,omitempty"`
	B        string `yaml:"b,omitempty"`
	Low      string `yaml:"low,omitempty"`
	High     string `yaml:"high,omitempty"`
	HighOE   string `yaml:"high_oe,omitempty"`
	Drive    string `yaml:"drive,omitempty"`
	LoadHigh string `yaml:"load_high,omitempty"`
}

func (n Names) merge(o Names) Names {
	pick := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	pick(&n.Clock, o.Clock)
	pick(&n.Reset, o.Reset)
	pick(&n.Enable, o.Enable)
	pick(&n.A, o.A)
	pick(&n.B, o.B)
	pick(&n.Low, o.Low)
	pick(&n.High, o.High)
	pick(&n.HighOE, o.HighOE)
	pick(&n.Drive, o.Drive)
	pick(&n.LoadHigh, o.LoadHigh)
	return n
}

// Config configures a multiply-accumulate device.
//
type Config struct {
	Name       string   `yaml:"name,omitempty"`
	Signals    Names    `yaml:"signals,omitempty"`
	Reset      Polarity `yaml:"reset,omitempty"`
	Latency    int      `yaml:"latency,omitempty"`     // clock edges from input sampling to accumulator update
	InputWidth int      `yaml:"input_width,omitempty"` // width of a and b
	AccWidth   int      `yaml:"acc_width,omitempty"`
}

// Merge returns a copy of c with all the non-zero fields of o applied.
//
func (c Config) Merge(o Config) Config {
	if o.Name != "" {
		c.Name = o.Name
	}
	c.Signals = c.Signals.merge(o.Signals)
	if o.Reset != 0 {
		c.Reset = o.Reset
	}
	if o.Latency != 0 {
		c.Latency = o.Latency
	}
	if o.InputWidth != 0 {
		c.InputWidth = o.InputWidth
	}
	if o.AccWidth != 0 {
		c.AccWidth = o.AccWidth
	}
	return c
}

// Validate checks that c describes a device that can be built.
//
func (c *Config) Validate() error {
	n := c.Signals
	for _, p := range []struct{ port, name string }{
		{"clock", n.Clock}, {"reset", n.Reset}, {"enable", n.Enable},
		{"a", n.A}, {"b", n.B}, {"low", n.Low},
	} {
		if p.name == "" {
			return errors.Errorf("mac %s: no signal name for port %s", c.Name, p.port)
		}
	}
	if n.High == "" && (n.HighOE != "" || n.Drive != "" || n.LoadHigh != "") {
		return errors.Errorf("mac %s: high_oe, drive and load_high need a high port", c.Name)
	}
	if n.LoadHigh != "" && n.Drive == "" {
		return errors.Errorf("mac %s: load_high needs a bidirectional high port", c.Name)
	}
	switch {
	case c.Reset != ActiveLow && c.Reset != ActiveHigh:
		return errors.Errorf("mac %s: reset polarity not set", c.Name)
	case c.Latency < 1:
		return errors.Errorf("mac %s: invalid latency %d", c.Name, c.Latency)
	case c.InputWidth < 1 || c.InputWidth > 32:
		return errors.Errorf("mac %s: invalid input width %d", c.Name, c.InputWidth)
	case c.AccWidth < 2 || c.AccWidth > 64:
		return errors.Errorf("mac %s: invalid accumulator width %d", c.Name, c.AccWidth)
	case n.High != "" && c.AccWidth%2 != 0:
		return errors.Errorf("mac %s: accumulator width %d cannot be split in two halves", c.Name, c.AccWidth)
	}
	return nil
}

// Discrete returns the configuration of the reference device with discrete
// control signals and a bidirectional high byte.
//
//	Inputs: clk, rst_n, acc_en, in_a[8], in_b[8], io_drive, load_ext_high
//	Outputs: out_low[8]
//	Bidirectional: io_high[8]
//
func Discrete() Config {
	return Config{
		Name: "mac_spst_tiny",
		Signals: Names{
			Clock:    "clk",
			Reset:    "rst_n",
			Enable:   "acc_en",
			A:        "in_a",
			B:        "in_b",
			Low:      "out_low",
			High:     "io_high",
			Drive:    "io_drive",
			LoadHigh: "load_ext_high",
		},
		Reset:      ActiveLow,
		Latency:    1,
		InputWidth: 8,
		AccWidth:   16,
	}
}

// TinyTapeout returns the configuration of the device wrapped in the usual
// TinyTapeout pinout.
//
//	Inputs: clk, rst_n, ena, ui_in[8], uio_in[8]
//	Outputs: uo_out[8], uio_out[8], uio_oe[8]
//
func TinyTapeout() Config {
	return Config{
		Name: "tt_um_mac",
		Signals: Names{
			Clock:  "clk",
			Reset:  "rst_n",
			Enable: "ena",
			A:      "ui_in",
			B:      "uio_in",
			Low:    "uo_out",
			High:   "uio_out",
			HighOE: "uio_oe",
		},
		Reset:      ActiveLow,
		Latency:    1,
		InputWidth: 8,
		AccWidth:   16,
	}
}

// Simple returns the configuration of a minimal device with an active high
// reset and the whole accumulator on a single output.
//
//	Inputs: clk, rst, ena, a[8], b[8]
//	Outputs: out[16]
//
func Simple() Config {
	return Config{
		Name: "mac",
		Signals: Names{
			Clock:  "clk",
			Reset:  "rst",
			Enable: "ena",
			A:      "a",
			B:      "b",
			Low:    "out",
		},
		Reset:      ActiveHigh,
		Latency:    1,
		InputWidth: 8,
		AccWidth:   16,
	}
}

var presets = map[string]func() Config{
	"discrete":    Discrete,
	"tinytapeout": TinyTapeout,
	"simple":      Simple,
}

// Preset returns the configuration of a named preset.
//
func Preset(variant string) (Config, error) {
	f, ok := presets[strings.ToLower(variant)]
	if !ok {
		return Config{}, errors.Errorf("unknown device variant %q (available: %s)", variant, strings.Join(Variants(), ", "))
	}
	return f(), nil
}

// Variants returns the names of the available presets.
//
func Variants() []string {
	vs := make([]string, 0, len(presets))
	for k := range presets {
		vs = append(vs, k)
	}
	sort.Strings(vs)
	return vs
}
