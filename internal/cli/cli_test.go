package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testdata = filepath.Join("..", "..", "scenario", "testdata")

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRunPass(t *testing.T) {
	out, _, err := execute(t, "run", filepath.Join(testdata, "mac_spst_tiny.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "scenario mac_spst_tiny\n")
	assert.Contains(t, out, "verdict PASS at 115ns")
}

func TestRunFail(t *testing.T) {
	out, logs, err := execute(t, "run", filepath.Join(testdata, "simple_fail.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "1 of 1 scenarios failed")
	assert.Contains(t, out, "verdict FAIL at 35ns")
	// findings are logged as JSON when stderr is not a terminal
	assert.Contains(t, logs, `"kind":"AssertionMismatch"`)
	assert.Contains(t, logs, `"scenario":"simple_fail"`)
}

func TestRunJSON(t *testing.T) {
	out, _, err := execute(t, "run", "--format", "json", testdata)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))

	verdicts := map[string]string{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var r struct {
			Scenario  string `json:"scenario"`
			SessionID string `json:"session_id"`
			Verdict   string `json:"verdict"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		assert.NotEmpty(t, r.SessionID)
		verdicts[r.Scenario] = r.Verdict
	}
	assert.Equal(t, map[string]string{
		"io_contention": "PASS",
		"mac_spst_tiny": "PASS",
		"simple_fail":   "FAIL",
	}, verdicts)
}

func TestRunErrors(t *testing.T) {
	for _, args := range [][]string{
		{"run", "no/such/file.yaml"},
		{"run", "--format", "xml", filepath.Join(testdata, "mac_spst_tiny.yaml")},
		{"run", t.TempDir()},
	} {
		_, _, err := execute(t, args...)
		require.Error(t, err, "%v", args)
		assert.Equal(t, ExitCommandError, ExitCode(err), "%v", args)
	}
}

func TestHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	_, _, err := execute(t, "run", "--db", db, filepath.Join(testdata, "mac_spst_tiny.yaml"))
	require.NoError(t, err)
	_, _, err = execute(t, "run", "--db", db, filepath.Join(testdata, "simple_fail.yaml"))
	require.Error(t, err)

	out, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "CREATED"))
	assert.Contains(t, lines[1], "simple_fail")
	assert.Contains(t, lines[1], "FAIL")
	assert.Contains(t, lines[2], "mac_spst_tiny")
	assert.Contains(t, lines[2], "PASS")

	out, _, err = execute(t, "history", "--db", db, "--limit", "1", "--findings", "--format", "json")
	require.NoError(t, err)
	var entries []struct {
		Scenario string `json:"scenario"`
		Findings []struct {
			Kind  string `json:"kind"`
			Label string `json:"label"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "simple_fail", entries[0].Scenario)
	require.Len(t, entries[0].Findings, 3)
	assert.Equal(t, "UnresolvedValue", entries[0].Findings[0].Kind)
	assert.Equal(t, "before reset", entries[0].Findings[0].Label)
}

func TestHistoryRequiresDB(t *testing.T) {
	_, _, err := execute(t, "history")
	require.Error(t, err)
}
