package benchmark

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"

	"github.com/mikegeo98/cloud-sort/pkg/device"
)

func TestPerfTimer(t *testing.T) {
	timer := &PerfTimer{}

	timer.Start()
	time.Sleep(time.Millisecond)
	timer.Record()

	require.Len(t, timer.Vals, 1, "Record should save one datapoint")
	require.Greater(t, timer.Vals[0], (float64)(0), "Recorded time should be positive")

	timer.Observe(2 * time.Second)
	require.Len(t, timer.Vals, 2, "Observe should save one datapoint")
	require.Equal(t, (float64)(2*time.Second), timer.Vals[1], "Observe saved the wrong value")

	other := &PerfTimer{Vals: []float64{1, 2, 3}}
	timer.Update(other)
	require.Len(t, timer.Vals, 5, "Update should merge datapoints")
	require.Len(t, other.Vals, 3, "Update must not modify its argument")
}

func TestPerfTimerPause(t *testing.T) {
	timer := &PerfTimer{}

	timer.Start()
	time.Sleep(time.Millisecond)
	timer.Stop()

	timer.Start()
	time.Sleep(time.Millisecond)
	timer.Record()

	require.Len(t, timer.Vals, 1, "Paused timer should record one datapoint")
	require.GreaterOrEqual(t, timer.Vals[0], (float64)(2*time.Millisecond), "Paused timer lost a segment")
}

func TestSortStatsTimer(t *testing.T) {
	stats := make(SortStats)

	a := stats.Timer("TTotal")
	b := stats.Timer("TTotal")
	require.Same(t, a, b, "Timer should return the existing timer")
	require.Len(t, stats, 1, "Timer created a duplicate")
}

func TestReportStats(t *testing.T) {
	stats := make(SortStats)
	stats.Timer("TTotal").Observe(time.Second)
	stats.Timer("TTotal").Observe(3 * time.Second)

	var buf bytes.Buffer
	ReportStats(stats, &buf)

	out := buf.String()
	require.Contains(t, out, "TTotal (mean):\t2s", "Wrong mean")
	require.Contains(t, out, "TTotal (std):", "Missing std line")
}

func TestBenchLocalAll(t *testing.T) {
	stats, err := BenchLocalAll(1021, 3, 0)
	require.Nil(t, err, "Local benchmark failed")
	require.Len(t, stats["TTotal"].Vals, 3, "Wrong repetition count")
}

func TestBenchDeviceAll(t *testing.T) {
	dev, err := device.OpenPool(device.Config{})
	require.Nil(t, err, "Failed to open device")
	defer dev.Close()

	stats, moved, err := BenchDeviceAll(dev, 600, 2, 0)
	require.Nil(t, err, "Device benchmark failed")

	for _, name := range []string{"TTotal", "THistogram", "TOffsets", "TScatter", "TTransfer"} {
		require.Lenf(t, stats[name].Vals, 2, "Wrong repetition count for %v", name)
	}

	require.NotZero(t, moved.HostToDevice, "No upload bytes recorded")
	require.NotZero(t, moved.DeviceToHost, "No download bytes recorded")
}

func TestWriteReport(t *testing.T) {
	dev, err := device.OpenPool(device.Config{})
	require.Nil(t, err, "Failed to open device")
	defer dev.Close()

	summary, err := RunBenchmarks(dev, 300, 2, 0, true)
	require.Nil(t, err, "Benchmarks failed")
	require.Contains(t, summary.Suites, "Device", "Missing device suite")
	require.Contains(t, summary.Suites, "Local", "Missing local suite")

	path := filepath.Join(t.TempDir(), "report.json")
	require.Nil(t, WriteReport(path, summary), "Failed to write report")

	raw, err := os.ReadFile(path)
	require.Nil(t, err, "Failed to read report back")

	var report Report
	require.Nil(t, sonnet.Unmarshal(raw, &report), "Report is not valid JSON")
	require.Equal(t, 300, report.NElem, "Wrong element count")
	require.Equal(t, 2, report.Suites["Device"]["TTotal"].Samples, "Wrong sample count")
	require.NotZero(t, report.HostToDeviceBytes, "Missing transfer bytes")
}
