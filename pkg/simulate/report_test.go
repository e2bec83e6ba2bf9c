package simulate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"
)

func simulateForTest(t *testing.T, trials int) (*Scenario, []TrialStats) {
	sc := DefaultScenario()
	sc.DatasetMB = 1024
	sc.Trials = trials

	stats, err := Simulate(sc, nil)
	require.Nil(t, err, "Simulation failed")
	return sc, stats
}

func TestWriteTextSingleTrial(t *testing.T) {
	_, stats := simulateForTest(t, 1)

	var buf bytes.Buffer
	WriteText(&buf, stats)
	out := buf.String()

	require.Contains(t, out, "Algorithm: Two-Phase Merge Sort (no skew)", "Missing strategy block")
	require.Contains(t, out, "Algorithm: K-Way Merge Sort (skewed, k=4)", "Missing strategy block")
	require.Contains(t, out, "  Total time: ", "Missing time line")
	require.Contains(t, out, "  Total cost: $", "Missing cost line")
	require.Contains(t, out, "-----------------------------", "Missing separator")
	require.NotContains(t, out, "std", "Single trial has no spread to report")
}

func TestWriteTextSpread(t *testing.T) {
	_, stats := simulateForTest(t, 3)

	var buf bytes.Buffer
	WriteText(&buf, stats)
	require.Contains(t, buf.String(), "(std ", "Repeated trials must report the spread")
}

func TestWriteJSON(t *testing.T) {
	sc, stats := simulateForTest(t, 2)
	path := filepath.Join(t.TempDir(), "sim.json")
	require.Nil(t, WriteJSON(path, sc, stats), "Couldn't write report")

	raw, err := os.ReadFile(path)
	require.Nil(t, err, "Couldn't read report back")

	var report Report
	require.Nil(t, sonnet.Unmarshal(raw, &report), "Report doesn't parse")
	require.Equal(t, sc.DatasetMB, report.Scenario.DatasetMB, "Scenario lost in the report")
	require.Len(t, report.Strategies, 4, "Wrong strategy count in the report")
	require.Equal(t, stats[0].MeanCost, report.Strategies[0].MeanCost, "Outcome lost in the report")
}

func TestWritePlot(t *testing.T) {
	_, stats := simulateForTest(t, 1)
	path := filepath.Join(t.TempDir(), "sim.html")
	require.Nil(t, WritePlot(path, stats), "Couldn't render plot")

	raw, err := os.ReadFile(path)
	require.Nil(t, err, "Couldn't read plot back")
	require.Contains(t, (string)(raw), "echarts", "Plot is not an echarts page")
	require.Contains(t, (string)(raw), "Simulated sort time", "Plot lost its time chart")
	require.Contains(t, (string)(raw), "Simulated sort cost", "Plot lost its cost chart")
}
