package evsim

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBus(t *testing.T) *Bus {
	t.Helper()
	b, err := NewBus(Signals(
		In("clk, a[4]"),
		Truncating(In("t[4]")),
		Out("q[4]"),
		InOut("io[8]"),
	))
	require.NoError(t, err)
	return b
}

func read(t *testing.T, b *Bus, ref string) string {
	t.Helper()
	v, err := b.ReadRef(ref)
	require.NoError(t, err)
	return v.String()
}

func TestNewBus(t *testing.T) {
	_, err := NewBus(Signals(In("a"), Out("a")))
	assert.Error(t, err)
	_, err = NewBus([]SignalSpec{{Name: "w", Width: 0}})
	assert.Error(t, err)
	_, err = ParseSignals(Input, "a[65]")
	assert.Error(t, err)

	b := testBus(t)
	assert.Len(t, b.Signals(), 5)
	sp, err := b.Spec("io")
	require.NoError(t, err)
	assert.Equal(t, Bidir, sp.Dir)
	assert.Equal(t, 8, sp.Width)
	_, err = b.Spec("nope")
	assert.True(t, errors.Is(err, ErrUnknownSignal))
	// everything starts unknown
	assert.Equal(t, "xxxx", read(t, b, "a"))
}

func TestBus_Drive(t *testing.T) {
	b := testBus(t)
	require.NoError(t, b.DriveInt(External, "a", 5))
	assert.Equal(t, "xxxx", read(t, b, "a"), "visible before commit")
	cs := b.commit()
	require.Len(t, cs, 1)
	assert.Equal(t, "a", cs[0].Signal)
	assert.Equal(t, "0101", read(t, b, "a"))
	assert.Equal(t, "10", read(t, b, "a[1..2]"))
	assert.Equal(t, "1", read(t, b, "a[2]"))
	_, err := b.ReadRef("a[4]")
	assert.Error(t, err)
	assert.NotPanics(t, func() {
		_, err = b.ReadRef("a[9223372036854775808]")
	})
	assert.Error(t, err)

	// drives are sticky
	assert.Empty(t, b.commit())
	require.NoError(t, b.DriveInt(External, "a", 5))
	assert.Empty(t, b.commit(), "same value is not a change")

	require.NoError(t, b.Release(External, "a"))
	b.commit()
	assert.Equal(t, "xxxx", read(t, b, "a"))
}

func TestBus_errors(t *testing.T) {
	b := testBus(t)
	err := b.DriveInt(External, "q", 1)
	assert.True(t, errors.Is(err, ErrDirection), "%v", err)
	err = b.DriveInt(DUT, "a", 1)
	assert.True(t, errors.Is(err, ErrDirection), "%v", err)
	err = b.DriveInt(External, "a", 0x1f)
	assert.True(t, errors.Is(err, ErrWidth), "%v", err)
	err = b.Drive(External, "a", V(8, 0x10))
	assert.True(t, errors.Is(err, ErrWidth), "%v", err)
	err = b.DriveInt(External, "nope", 0)
	assert.True(t, errors.Is(err, ErrUnknownSignal), "%v", err)
	_, err = b.Owner("a")
	assert.True(t, errors.Is(err, ErrNotBidir), "%v", err)
	err = b.Handoff("q", External)
	assert.True(t, errors.Is(err, ErrNotBidir), "%v", err)

	// wider values are fine as long as the extra bits are 0
	assert.NoError(t, b.Drive(External, "a", V(8, 0x0f)))
	// truncating signal
	require.NoError(t, b.DriveInt(External, "t", 0x1f))
	b.commit()
	assert.Equal(t, "1111", read(t, b, "t"))
}

func TestBus_Handoff(t *testing.T) {
	b := testBus(t)
	o, err := b.Owner("io")
	require.NoError(t, err)
	assert.Equal(t, DUT, o)

	require.NoError(t, b.DriveInt(DUT, "io", 0x12))
	b.commit()
	assert.Equal(t, "00010010", read(t, b, "io"))

	require.NoError(t, b.Handoff("io", External))
	o, _ = b.Owner("io")
	assert.Equal(t, External, o)
	b.commit()
	assert.Equal(t, "xxxxxxxx", read(t, b, "io"), "device drive released")

	require.NoError(t, b.DriveInt(External, "io", 0xaa))
	b.commit()
	assert.Equal(t, "10101010", read(t, b, "io"))
	assert.Empty(t, b.conflicts())
}

func TestBus_conflicts(t *testing.T) {
	b := testBus(t)
	require.NoError(t, b.DriveInt(DUT, "io", 0x0f))
	require.NoError(t, b.DriveInt(External, "io", 0x05))
	b.commit()
	assert.Equal(t, "0000x1x1", read(t, b, "io"))
	cs := b.conflicts()
	require.Len(t, cs, 1)
	assert.Equal(t, "io", cs[0].Signal)
	assert.Equal(t, uint64(0x0a), cs[0].Mask)
	assert.True(t, cs[0].Values[External].Equal(V(8, 0x05)))
	assert.True(t, cs[0].Values[DUT].Equal(V(8, 0x0f)))

	// same contention is reported once
	require.NoError(t, b.DriveInt(DUT, "io", 0x0f))
	b.commit()
	assert.Empty(t, b.conflicts())

	require.NoError(t, b.DriveInt(External, "io", 0xf0))
	b.commit()
	cs = b.conflicts()
	require.Len(t, cs, 1)
	assert.Equal(t, uint64(0xff), cs[0].Mask)

	require.NoError(t, b.Release(External, "io"))
	b.commit()
	assert.Empty(t, b.conflicts())
	assert.Equal(t, "00001111", read(t, b, "io"))
}
