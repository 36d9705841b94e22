package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/db47h/evsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func report(id string, v evsim.Verdict, fs ...evsim.Finding) *evsim.Report {
	r := &evsim.Report{SessionID: id, Device: "mac", Verdict: v, EndTime: 115 * evsim.NS}
	for _, f := range fs {
		if f.Kind == evsim.AssertionMismatch || f.Kind == evsim.SchedulerFault {
			r.Failures = append(r.Failures, f)
		} else {
			r.Warnings = append(r.Warnings, f)
		}
	}
	return r
}

func TestOpen(t *testing.T) {
	s := testStore(t)
	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	// reopening applies the schema again
	path := filepath.Join(t.TempDir(), "again.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())
	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestSaveReport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1700000000000)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	warn := evsim.Finding{Kind: evsim.UnresolvedValue, Time: 0, Routine: "main", Signals: []string{"out"}, Label: "before reset", Message: "out contains unknown bits: xxxx"}
	fail := evsim.Finding{Kind: evsim.AssertionMismatch, Time: 35 * evsim.NS, Routine: "main", Signals: []string{"out"}, Label: "wrong", Message: "expected 85, got 84"}
	conflict := evsim.Finding{Kind: evsim.DriveConflict, Time: 40 * evsim.NS, Signals: []string{"io_high"}, Message: "driven by both"}

	require.NoError(t, s.SaveReport(ctx, "first", report("a", evsim.Pass)))
	require.NoError(t, s.SaveReport(ctx, "second", report("b", evsim.Fail, fail, warn, conflict)))
	// duplicates are ignored
	require.NoError(t, s.SaveReport(ctx, "second", report("b", evsim.Fail, fail, warn, conflict)))

	ss, err := s.Sessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ss, 2)
	assert.Equal(t, "b", ss[0].ID)
	assert.Equal(t, "second", ss[0].Scenario)
	assert.Equal(t, evsim.Fail, ss[0].Verdict)
	assert.Equal(t, 1, ss[0].Failures)
	assert.Equal(t, 2, ss[0].Warnings)
	assert.Equal(t, 115*evsim.NS, ss[0].EndTime)
	assert.True(t, base.Add(2*time.Second).Equal(ss[0].CreatedAt))
	assert.Equal(t, "a", ss[1].ID)

	ss, err = s.Sessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ss, 1)
	assert.Equal(t, "b", ss[0].ID)

	fs, err := s.Findings(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []evsim.Finding{warn, fail, conflict}, fs)

	fs, err = s.Findings(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, fs)
}
