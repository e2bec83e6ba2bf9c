package benchmark

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sugawarayuuta/sonnet"
)

// TimerStat is one phase's aggregate in the JSON report.
type TimerStat struct {
	MeanSeconds float64 `json:"mean_seconds"`
	StdSeconds  float64 `json:"std_seconds"`
	Samples     int     `json:"samples"`
}

// Report is the machine readable form of a benchmark summary.
type Report struct {
	NElem             int                             `json:"nelem"`
	Repeat            int                             `json:"repeat"`
	Suites            map[string]map[string]TimerStat `json:"suites"`
	HostToDeviceBytes uint64                          `json:"host_to_device_bytes"`
	DeviceToHostBytes uint64                          `json:"device_to_host_bytes"`
}

// BuildReport aggregates a summary's timers into their JSON form.
func BuildReport(summary *Summary) *Report {
	report := &Report{
		NElem:             summary.NElem,
		Repeat:            summary.Repeat,
		Suites:            make(map[string]map[string]TimerStat),
		HostToDeviceBytes: summary.DeviceTransfers.HostToDevice,
		DeviceToHostBytes: summary.DeviceTransfers.DeviceToHost,
	}

	for suite, stats := range summary.Suites {
		timers := make(map[string]TimerStat)
		for name, timer := range stats {
			mean, stdev := timer.MeanStdDev()
			timers[name] = TimerStat{
				MeanSeconds: mean,
				StdSeconds:  stdev,
				Samples:     len(timer.Vals),
			}
		}
		report.Suites[suite] = timers
	}
	return report
}

// WriteReport stores the summary as JSON at path.
func WriteReport(path string, summary *Summary) error {
	raw, err := sonnet.Marshal(BuildReport(summary))
	if err != nil {
		return errors.Wrap(err, "Couldn't encode benchmark report")
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return errors.Wrapf(err, "Couldn't write benchmark report to %v", path)
	}
	return nil
}
