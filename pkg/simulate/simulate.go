// Package simulate prices external sorting strategies against a cloud object
// store without moving a single byte. Every I/O and sort step is turned into
// a (seconds, dollars) pair drawn from simple stochastic models, so strategy
// and provisioning questions can be explored long before anything runs for
// real.
package simulate

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// ObjectStore models an S3-like store. Transfers happen in fixed-size chunks;
// each chunk pays the base latency, a throughput sampled around the nominal
// rate, and the per-GB plus per-request charges.
type ObjectStore struct {
	LatencyMS          float64 `toml:"latency_ms" json:"latencyMS"`
	MeanThroughputMBps float64 `toml:"throughput_mbps" json:"meanThroughputMBps"`
	ThroughputJitter   float64 `toml:"throughput_jitter" json:"throughputJitter"`
	CostPerGB          float64 `toml:"cost_per_gb" json:"costPerGB"`
	CostPerRequest     float64 `toml:"cost_per_request" json:"costPerRequest"`
	ChunkSizeMB        float64 `toml:"chunk_size_mb" json:"chunkSizeMB"`
}

// sampleThroughput draws one chunk's throughput, floored at 1 MB/s so a bad
// draw slows a transfer down instead of reversing it.
func (self *ObjectStore) sampleThroughput(rnd *rand.Rand) float64 {
	jitter := self.MeanThroughputMBps * self.ThroughputJitter
	return math.Max(1.0, self.MeanThroughputMBps+rnd.NormFloat64()*jitter)
}

func (self *ObjectStore) transfer(rnd *rand.Rand, sizeMB float64) (float64, float64) {
	nchunk := (int)(math.Ceil(sizeMB / self.ChunkSizeMB))
	sec, cost := 0.0, 0.0
	remaining := sizeMB
	for i := 0; i < nchunk; i++ {
		chunk := math.Min(self.ChunkSizeMB, remaining)
		remaining -= chunk
		sec += self.LatencyMS/1000.0 + chunk/self.sampleThroughput(rnd)
		cost += chunk*self.CostPerGB/1024.0 + self.CostPerRequest
	}
	return sec, cost
}

// Read prices fetching sizeMB from the store. Nothing sleeps; the return is
// the simulated wall time in seconds and the charge in dollars.
func (self *ObjectStore) Read(rnd *rand.Rand, sizeMB float64) (float64, float64) {
	return self.transfer(rnd, sizeMB)
}

// Write prices storing sizeMB. Same model as Read.
func (self *ObjectStore) Write(rnd *rand.Rand, sizeMB float64) (float64, float64) {
	return self.transfer(rnd, sizeMB)
}

// ComputeNode models a Lambda-like worker that sorts at a nominal rate but
// occasionally straggles.
type ComputeNode struct {
	SortSpeedMBps   float64 `toml:"sort_speed_mbps" json:"sortSpeedMBps"`
	CostPerHour     float64 `toml:"cost_per_hour" json:"costPerHour"`
	StragglerProb   float64 `toml:"straggler_prob" json:"stragglerProb"`
	StragglerFactor float64 `toml:"straggler_factor" json:"stragglerFactor"`
}

// Sort prices sorting sizeMB on this node.
func (self *ComputeNode) Sort(rnd *rand.Rand, sizeMB float64) (float64, float64) {
	speed := self.SortSpeedMBps
	if rnd.Float64() < self.StragglerProb {
		speed /= self.StragglerFactor
	}
	sec := sizeMB / speed
	return sec, sec * self.CostPerHour / 3600.0
}

// Scenario is one full simulator configuration: the dataset, the run
// formation parameters, and the store and node being priced.
type Scenario struct {
	DatasetMB float64 `toml:"dataset_mb" json:"datasetMB"`
	AvgRunMB  float64 `toml:"avg_run_mb" json:"avgRunMB"`
	SkewAlpha float64 `toml:"skew_alpha" json:"skewAlpha"`
	MergeK    int     `toml:"merge_k" json:"mergeK"`
	Trials    int     `toml:"trials" json:"trials"`
	Seed      int64   `toml:"seed" json:"seed"`

	Store ObjectStore `toml:"store" json:"store"`
	Node  ComputeNode `toml:"node" json:"node"`
}

// DefaultScenario prices a 10 GiB sort on S3 standard storage with
// Lambda-class workers.
func DefaultScenario() *Scenario {
	return &Scenario{
		DatasetMB: 10 * 1024,
		AvgRunMB:  512,
		SkewAlpha: 1.1,
		MergeK:    4,
		Trials:    5,
		Seed:      42,
		Store: ObjectStore{
			LatencyMS:          50,
			MeanThroughputMBps: 100,
			ThroughputJitter:   0.2,
			CostPerGB:          0.023,
			CostPerRequest:     0.000005,
			ChunkSizeMB:        64,
		},
		Node: ComputeNode{
			SortSpeedMBps:   100,
			CostPerHour:     6,
			StragglerProb:   0.1,
			StragglerFactor: 4,
		},
	}
}

func (self *Scenario) Validate() error {
	switch {
	case self.DatasetMB <= 0:
		return errors.Errorf("Dataset size %v MB must be positive", self.DatasetMB)
	case self.AvgRunMB <= 0:
		return errors.Errorf("Average run size %v MB must be positive", self.AvgRunMB)
	case self.MergeK < 2:
		return errors.Errorf("Merge fan-in %v must be at least 2", self.MergeK)
	case self.Trials < 1:
		return errors.Errorf("Trial count %v must be at least 1", self.Trials)
	case self.Store.ChunkSizeMB <= 0:
		return errors.Errorf("Chunk size %v MB must be positive", self.Store.ChunkSizeMB)
	case self.Store.MeanThroughputMBps <= 0:
		return errors.Errorf("Store throughput %v MBps must be positive", self.Store.MeanThroughputMBps)
	case self.Node.SortSpeedMBps <= 0:
		return errors.Errorf("Sort speed %v MBps must be positive", self.Node.SortSpeedMBps)
	case self.Node.StragglerFactor <= 0:
		return errors.Errorf("Straggler factor %v must be positive", self.Node.StragglerFactor)
	}
	return nil
}

// generateRunSizes splits the dataset into initial runs whose sizes follow a
// power law: run i carries weight 1/i^alpha, normalized so the sizes sum to
// datasetMB. Alpha around 1 gives the long-tailed run formation seen when the
// input data itself is skewed.
func generateRunSizes(datasetMB float64, avgRunMB float64, alpha float64) []float64 {
	nrun := (int)(math.Ceil(datasetMB / avgRunMB))
	weights := make([]float64, nrun)
	sum := 0.0
	for i := range weights {
		weights[i] = 1.0 / math.Pow((float64)(i+1), alpha)
		sum += weights[i]
	}

	sizes := make([]float64, nrun)
	for i := range sizes {
		sizes[i] = weights[i] / sum * datasetMB
	}
	return sizes
}

// evenRunSizes is the no-skew counterpart: every run is a full AvgRunMB, even
// when the dataset does not divide evenly.
func evenRunSizes(datasetMB float64, avgRunMB float64) []float64 {
	nrun := (int)(math.Ceil(datasetMB / avgRunMB))
	sizes := make([]float64, nrun)
	for i := range sizes {
		sizes[i] = avgRunMB
	}
	return sizes
}

func (self *Scenario) initialRuns(skewed bool) []float64 {
	if skewed {
		return generateRunSizes(self.DatasetMB, self.AvgRunMB, self.SkewAlpha)
	}
	return evenRunSizes(self.DatasetMB, self.AvgRunMB)
}

// roundTrip prices one read, sort, write cycle of sz megabytes.
func roundTrip(sc *Scenario, rnd *rand.Rand, sz float64) (float64, float64) {
	rSec, rCost := sc.Store.Read(rnd, sz)
	sSec, sCost := sc.Node.Sort(rnd, sz)
	wSec, wCost := sc.Store.Write(rnd, sz)
	return rSec + sSec + wSec, rCost + sCost + wCost
}

// mergePasses is how many k-way sweeps collapse nrun runs into one sorted
// output. Callers guarantee k >= 2.
func mergePasses(nrun int, k int) int {
	if nrun <= 1 {
		return 0
	}
	return (int)(math.Ceil(math.Log((float64)(nrun)) / math.Log((float64)(k))))
}

// Strategy is one external sort algorithm under the cost model.
type Strategy interface {
	Name() string
	Run(sc *Scenario, rnd *rand.Rand) (sec float64, cost float64)
}

// TwoPhase forms sorted runs, then merges them all in a single sweep over the
// whole dataset.
type TwoPhase struct {
	Skewed bool
}

func (self TwoPhase) Name() string {
	if self.Skewed {
		return "Two-Phase Merge Sort (skewed)"
	}
	return "Two-Phase Merge Sort (no skew)"
}

func (self TwoPhase) Run(sc *Scenario, rnd *rand.Rand) (float64, float64) {
	sec, cost := 0.0, 0.0
	for _, sz := range sc.initialRuns(self.Skewed) {
		s, c := roundTrip(sc, rnd, sz)
		sec += s
		cost += c
	}
	s, c := roundTrip(sc, rnd, sc.DatasetMB)
	return sec + s, cost + c
}

// KWay forms sorted runs, then repeatedly merges K runs at a time; each merge
// pass sweeps the whole dataset.
type KWay struct {
	K      int
	Skewed bool
}

func (self KWay) Name() string {
	if self.Skewed {
		return fmt.Sprintf("K-Way Merge Sort (skewed, k=%v)", self.K)
	}
	return fmt.Sprintf("K-Way Merge Sort (no skew, k=%v)", self.K)
}

func (self KWay) Run(sc *Scenario, rnd *rand.Rand) (float64, float64) {
	runs := sc.initialRuns(self.Skewed)
	sec, cost := 0.0, 0.0
	for _, sz := range runs {
		s, c := roundTrip(sc, rnd, sz)
		sec += s
		cost += c
	}
	for pass := 0; pass < mergePasses(len(runs), self.K); pass++ {
		s, c := roundTrip(sc, rnd, sc.DatasetMB)
		sec += s
		cost += c
	}
	return sec, cost
}

// Strategies is the standard lineup the simulator compares.
func Strategies(k int) []Strategy {
	return []Strategy{
		TwoPhase{},
		TwoPhase{Skewed: true},
		KWay{K: k},
		KWay{K: k, Skewed: true},
	}
}

// TrialStats summarizes repeated runs of one strategy.
type TrialStats struct {
	Strategy    string    `json:"strategy"`
	Seconds     []float64 `json:"seconds"`
	Cost        []float64 `json:"cost"`
	MeanSeconds float64   `json:"meanSeconds"`
	StdSeconds  float64   `json:"stdSeconds"`
	MeanCost    float64   `json:"meanCost"`
	StdCost     float64   `json:"stdCost"`
}

func meanStd(xs []float64) (float64, float64) {
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		std = 0
	}
	return mean, std
}

// Simulate runs every strategy Trials times and summarizes the outcomes.
// Each strategy gets its own generator seeded from the scenario, so the
// strategies see identical draws and their results stay directly comparable.
func Simulate(sc *Scenario, log *logrus.Logger) ([]TrialStats, error) {
	if err := sc.Validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid scenario")
	}
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}

	out := make([]TrialStats, 0, 4)
	for _, strat := range Strategies(sc.MergeK) {
		rnd := rand.New(rand.NewSource(sc.Seed))
		stats := TrialStats{Strategy: strat.Name()}
		for trial := 0; trial < sc.Trials; trial++ {
			sec, cost := strat.Run(sc, rnd)
			stats.Seconds = append(stats.Seconds, sec)
			stats.Cost = append(stats.Cost, cost)
		}
		stats.MeanSeconds, stats.StdSeconds = meanStd(stats.Seconds)
		stats.MeanCost, stats.StdCost = meanStd(stats.Cost)

		log.WithFields(logrus.Fields{
			"strategy": stats.Strategy,
			"seconds":  stats.MeanSeconds,
			"cost":     stats.MeanCost,
		}).Debug("Strategy simulated")
		out = append(out, stats)
	}
	return out, nil
}
