package scenario_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/mac"
	"github.com/db47h/evsim/scenario"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestGolden(t *testing.T) {
	scs, err := scenario.LoadDir("testdata")
	require.NoError(t, err)
	require.Len(t, scs, 3)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, sc := range scs {
		t.Run(sc.Name, func(t *testing.T) {
			rep, err := scenario.Run(context.Background(), sc,
				evsim.WithSessionID("golden"), evsim.WithLogger(quiet))
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, rep.WriteText(&buf))
			g.Assert(t, sc.Name, buf.Bytes())
		})
	}
}

func TestLoad(t *testing.T) {
	sc, err := scenario.Load(filepath.Join("testdata", "mac_spst_tiny.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "mac_spst_tiny", sc.Name)
	assert.Equal(t, filepath.Join("testdata", "mac_spst_tiny.yaml"), sc.Path)
	assert.Equal(t, "discrete", sc.Device.Variant)
	assert.Equal(t, 1, sc.Device.Latency)
	assert.Equal(t, 10*evsim.NS, sc.Clock.Period)
	assert.Equal(t, 10*evsim.US, sc.TimeLimit)

	// drives keep file order
	d := sc.Steps[1].Drive
	require.Len(t, d, 6)
	assert.Equal(t, "rst_n", d[0].Signal)
	assert.Equal(t, "in_b", d[5].Signal)

	var hex *scenario.Expect
	for _, st := range sc.Steps {
		if st.Expect != nil && st.Expect.Signal == "io_high" {
			hex = st.Expect
		}
	}
	require.NotNil(t, hex)
	assert.Equal(t, uint64(0xAA), hex.Value.Value)

	_, err = scenario.Load(filepath.Join("testdata", "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_errors(t *testing.T) {
	data := []struct {
		name string
		yaml string
	}{
		{"no name", "device: {variant: simple}\nsteps: [{log: hi}]"},
		{"no variant", "name: x\ndevice: {}\nsteps: [{log: hi}]"},
		{"no steps", "name: x\ndevice: {variant: simple}"},
		{"unknown field", "name: x\ndevice: {variant: simple}\nsteps: [{log: hi}]\nbogus: 1"},
		{"two actions", "name: x\ndevice: {variant: simple}\nsteps: [{log: hi, release: [a]}]"},
		{"empty step", "name: x\ndevice: {variant: simple}\nsteps: [{}]"},
		{"bad level", "name: x\ndevice: {variant: simple}\nsteps: [{drive: {a: zz}}]"},
		{"expect x", "name: x\ndevice: {variant: simple}\nsteps: [{expect: {signal: a, value: x}}]"},
		{"cycles without clock", "name: x\ndevice: {variant: simple}\nsteps: [{wait: {cycles: 2}}]"},
		{"two waits", "name: x\ndevice: {variant: simple}\nsteps: [{wait: {delay: 1ns, rising: clk}}]"},
		{"bad time", "name: x\ndevice: {variant: simple}\nsteps: [{wait: {delay: 1}}]\ntime_limit: soon"},
		{"bad party", "name: x\ndevice: {variant: simple}\nsteps: [{handoff: {signal: a, to: nobody}}]"},
		{"bad polarity", "name: x\ndevice: {variant: simple, reset: sideways}\nsteps: [{log: hi}]"},
	}
	for _, d := range data {
		_, err := scenario.Parse([]byte(d.yaml))
		assert.Error(t, err, d.name)
	}
}

func TestLevel(t *testing.T) {
	var d scenario.Drives
	require.NoError(t, yaml.Unmarshal([]byte("{b: 0xAA, a: x, c: 0b101, d: 1_000}"), &d))
	assert.Equal(t, scenario.Drives{
		{Signal: "b", Level: scenario.Level{Value: 0xAA}},
		{Signal: "a", Level: scenario.Level{Unknown: true}},
		{Signal: "c", Level: scenario.Level{Value: 5}},
		{Signal: "d", Level: scenario.Level{Value: 1000}},
	}, d)

	out, err := yaml.Marshal(d)
	require.NoError(t, err)
	var back scenario.Drives
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, d, back)
}

func TestRun_overrides(t *testing.T) {
	sc, err := scenario.Parse([]byte(`
name: renamed
device:
  variant: simple
  name: mymac
  reset: low
  latency: 2
  signals: {reset: rst_n}
clock: {signal: clk, period: 2ns, phase: 1ns}
steps:
  - drive: {rst_n: 0, ena: 1, a: 2, b: 3}
  - wait: {cycles: 1}
  - drive: {rst_n: 1}
  - wait: {rising: clk}
  - expect: {label: latency, signal: out, value: 0}
  - wait: {cycles: 1, signal: clk}
  - expect: {label: first product, signal: out, value: 6}
  - drive: {ena: x}
  - wait: {falling: clk}
  - wait: {cycles: 2}
  - expect: {label: unknown enable, signal: out, value: 12, soft: true}
`))
	require.NoError(t, err)
	rep, err := scenario.Run(context.Background(), sc, evsim.WithLogger(quiet))
	require.NoError(t, err)
	assert.Equal(t, "mymac", rep.Device)
	assert.Equal(t, evsim.Pass, rep.Verdict, "%v", rep.Findings())
	require.Len(t, rep.Warnings, 1)
	assert.Equal(t, evsim.UnresolvedValue, rep.Warnings[0].Kind)
}

func TestRun_errors(t *testing.T) {
	sc := &scenario.Scenario{Name: "x", Device: scenario.DeviceSpec{Variant: "nope"}}
	_, err := scenario.Run(context.Background(), sc)
	assert.Error(t, err)

	sc = &scenario.Scenario{
		Name:   "x",
		Device: scenario.DeviceSpec{Variant: "simple", Config: mac.Config{Latency: -1}},
	}
	_, err = scenario.Run(context.Background(), sc)
	assert.Error(t, err)

	sc = &scenario.Scenario{
		Name:   "x",
		Device: scenario.DeviceSpec{Variant: "simple"},
		Steps:  []scenario.Step{{Drive: scenario.Drives{{Signal: "nope", Level: scenario.Level{Unknown: true}}}}},
	}
	rep, err := scenario.Run(context.Background(), sc, evsim.WithLogger(quiet))
	assert.True(t, evsim.IsFault(err), "%v", err)
	assert.Equal(t, evsim.Faulted, rep.Verdict)
}

func TestVariants(t *testing.T) {
	assert.Equal(t, mac.Variants(), scenario.Variants())
	assert.Panics(t, func() { scenario.Register("simple", nil) })
}
