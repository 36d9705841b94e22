package evsim_test

import (
	"context"
	"testing"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockEvents(t *testing.T, clk *evsim.Clock, until evsim.Time) []string {
	t.Helper()
	s := newSession(t, &dff{})
	rep, err := s.Run(context.Background(), func(p *evsim.Proc) error {
		if err := clk.Start(p); err != nil {
			return err
		}
		p.Delay(until)
		return nil
	})
	require.NoError(t, err)
	var out []string
	for _, e := range rep.Trace.Filter("clk") {
		out = append(out, e.String())
	}
	return out
}

func TestClock(t *testing.T) {
	clk, err := evsim.NewClock("clk", 10*evsim.NS)
	require.NoError(t, err)
	assert.Equal(t, "clk", clk.Signal())
	assert.Equal(t, 10*evsim.NS, clk.Period())
	assert.False(t, clk.Running())
	assert.Equal(t, []string{
		"0ns+0 clk=0",
		"5ns+0 clk=1",
		"10ns+0 clk=0",
		"15ns+0 clk=1",
		"20ns+0 clk=0",
	}, clockEvents(t, clk, 21*evsim.NS))
	assert.True(t, clk.Running())
}

func TestClock_options(t *testing.T) {
	clk, err := evsim.NewClock("clk", 4*evsim.NS, evsim.FallingFirst(), evsim.WithPhase(evsim.NS))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0ns+0 clk=1",
		"3ns+0 clk=0",
		"5ns+0 clk=1",
		"7ns+0 clk=0",
	}, clockEvents(t, clk, 8*evsim.NS))
}

func TestClock_errors(t *testing.T) {
	_, err := evsim.NewClock("clk", 0)
	assert.Error(t, err)
	_, err = evsim.NewClock("clk", 3*evsim.PS)
	assert.Error(t, err)

	clk, err := evsim.NewClock("clk", 2*evsim.NS)
	require.NoError(t, err)
	s := newSession(t, &dff{})
	_, err = s.Run(context.Background(), func(p *evsim.Proc) error {
		assert.NoError(t, clk.Start(p))
		err := clk.Start(p)
		assert.True(t, errors.Is(err, evsim.ErrClockRunning), "%v", err)
		bad, _ := evsim.NewClock("nope", 2*evsim.NS)
		err = bad.Start(p)
		assert.True(t, errors.Is(err, evsim.ErrUnknownSignal), "%v", err)
		p.ClockCycles("clk", 2)
		return nil
	})
	assert.NoError(t, err)
}
