package mac_test

import (
	"testing"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/mac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPreset(t *testing.T) {
	assert.Equal(t, []string{"discrete", "simple", "tinytapeout"}, mac.Variants())
	for _, v := range mac.Variants() {
		cfg, err := mac.Preset(v)
		require.NoError(t, err, v)
		_, err = mac.New(cfg)
		assert.NoError(t, err, v)
	}
	_, err := mac.Preset("nope")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	data := []struct {
		name string
		edit func(*mac.Config)
	}{
		{"no clock", func(c *mac.Config) { c.Signals.Clock = "" }},
		{"latency", func(c *mac.Config) { c.Latency = 0 }},
		{"input width", func(c *mac.Config) { c.InputWidth = 33 }},
		{"odd acc", func(c *mac.Config) { c.AccWidth = 15 }},
		{"polarity", func(c *mac.Config) { c.Reset = 0 }},
		{"load without drive", func(c *mac.Config) { c.Signals.Drive = "" }},
		{"drive without high", func(c *mac.Config) { c.Signals.High = "" }},
	}
	for _, d := range data {
		cfg := mac.Discrete()
		d.edit(&cfg)
		_, err := mac.New(cfg)
		assert.Error(t, err, d.name)
	}
}

func TestConfig_Merge(t *testing.T) {
	var o mac.Config
	err := yaml.Unmarshal([]byte("latency: 3\nreset: high\nsignals:\n  reset: rst\n"), &o)
	require.NoError(t, err)
	cfg := mac.Discrete().Merge(o)
	assert.Equal(t, 3, cfg.Latency)
	assert.Equal(t, mac.ActiveHigh, cfg.Reset)
	assert.Equal(t, "rst", cfg.Signals.Reset)
	assert.Equal(t, "acc_en", cfg.Signals.Enable)
	assert.Equal(t, 16, cfg.AccWidth)
}

func TestMAC_Signals(t *testing.T) {
	dev, err := mac.New(mac.Discrete())
	require.NoError(t, err)
	dirs := make(map[string]evsim.Direction)
	for _, s := range dev.Signals() {
		dirs[s.Name] = s.Dir
	}
	assert.Equal(t, map[string]evsim.Direction{
		"clk": evsim.Input, "rst_n": evsim.Input, "acc_en": evsim.Input,
		"in_a": evsim.Input, "in_b": evsim.Input, "io_drive": evsim.Input,
		"load_ext_high": evsim.Input, "out_low": evsim.Output, "io_high": evsim.Bidir,
	}, dirs)
}
