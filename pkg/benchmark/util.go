package benchmark

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// A helper object for timing events. A timer can be reused multiple times in
// order to derive averages or other statistics (Record() saves the current
// measurement and begins a new one).
type PerfTimer struct {
	Vals  []float64 // nanoseconds, float64 because the stats package wants it
	cur   time.Duration
	start time.Time
}

// Begin (or resume) the timer
func (self *PerfTimer) Start() {
	self.start = time.Now()
}

// Stop (or pause) the timer
func (self *PerfTimer) Stop() {
	self.cur += time.Since(self.start)
}

// Finalize the timer, adding it as a new datapoint and resetting the timer to
// 0.
func (self *PerfTimer) Record() {
	self.Stop()
	self.Vals = append(self.Vals, (float64)(self.cur))
	self.cur = 0
}

// Observe saves an externally measured duration as a datapoint.
func (self *PerfTimer) Observe(d time.Duration) {
	self.Vals = append(self.Vals, (float64)(d))
}

// Add the recorded values from new to the current object. Does not modify new.
func (self *PerfTimer) Update(new *PerfTimer) {
	self.Vals = append(self.Vals, new.Vals...)
}

// MeanStdDev of the recorded values, in seconds. A single value has no
// spread, its deviation reports as zero.
func (self *PerfTimer) MeanStdDev() (mean float64, std float64) {
	mean, std = stat.MeanStdDev(self.Vals, nil)
	if len(self.Vals) < 2 {
		std = 0
	}
	return mean / 1e9, std / 1e9
}

// Collects statistics about a sort, keyed by phase name. Not all phases are
// applicable (or measurable) for all sort types.
type SortStats map[string]*PerfTimer

// Timer fetches or creates the named timer.
func (self SortStats) Timer(name string) *PerfTimer {
	timer, ok := self[name]
	if !ok {
		timer = &PerfTimer{}
		self[name] = timer
	}
	return timer
}

// ReportStats writes a plain text mean/std table, one phase per line in name
// order.
func ReportStats(stats SortStats, writer io.Writer) {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mean, stdev := stats[name].MeanStdDev()
		fmt.Fprintf(writer, "%v (mean):\t%vs\n", name, mean)
		fmt.Fprintf(writer, "%v (std):\t%vs\n", name, stdev)
	}
}
