// Package radix sorts 64 bit keys with a host-orchestrated, least significant
// digit first radix sort. The host owns the pass loop and the tiny placement
// tables; the heavy per-key work (histogram and scatter stages) runs on a
// device.Device in fixed-size work groups.
package radix

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mikegeo98/cloud-sort/pkg/data"
	"github.com/mikegeo98/cloud-sort/pkg/device"
)

// Pass geometry: 64 bit keys in 8 bit digits, GroupSize keys per work group.
// These are compile-time constants of the stage kernels, not run-time
// configuration.
const (
	KeyBits   = 64
	Bits      = 8
	Radix     = 1 << Bits
	GroupSize = 256
	Passes    = (KeyBits + Bits - 1) / Bits
)

// ErrStageBuild is the cause reported when the pass stages cannot be prepared
// against a device.
var ErrStageBuild = errors.New("stage build failed")

// numGroups is how many work groups cover n keys. The last group may be only
// partially filled.
func numGroups(n int) int {
	return (n + GroupSize - 1) / GroupSize
}

// Timing breaks one sort run down by phase, summed over all passes.
type Timing struct {
	Histogram time.Duration
	Offsets   time.Duration
	Scatter   time.Duration
	Transfer  time.Duration
	Total     time.Duration
}

// Result of one device sort run. Transfers holds the bytes this run moved in
// each direction, taken from the device counters once at the end of the run.
type Result struct {
	Keys      []uint64
	Transfers device.Transfers
	Timing    Timing
}

// Sorter drives the multi-pass device sort. One Sorter can run any number of
// sequential sorts against its device.
type Sorter struct {
	dev device.Device
	log *logrus.Logger
}

// NewSorter prepares the pass stages for dev. Preparation failures report
// ErrStageBuild.
func NewSorter(dev device.Device, log *logrus.Logger) (*Sorter, error) {
	if dev == nil {
		return nil, errors.Wrap(ErrStageBuild, "No device to build stages against")
	}
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Sorter{dev: dev, log: log}, nil
}

// Sort orders keys ascending. The input is not modified. Passes run strictly
// one after another: every transfer and launch blocks until complete, and any
// failure aborts the whole run with no retry and no partial result.
func (self *Sorter) Sort(keys []uint64) (*Result, error) {
	n := len(keys)
	if n == 0 {
		// An empty run never touches the device, so its transfer totals
		// stay zero.
		return &Result{Keys: []uint64{}}, nil
	}

	ngroup := numGroups(n)
	grid := device.Grid{Groups: ngroup, GroupSize: GroupSize}
	keyBytes := n * data.KeyBytes
	ghBytes := ngroup * Radix * countBytes
	pgBytes := Radix * countBytes

	self.log.WithFields(logrus.Fields{
		"n":      n,
		"groups": ngroup,
		"passes": Passes,
	}).Debug("Starting device sort")

	begin := time.Now()
	startXfer := self.dev.Transfers()
	var timing Timing

	// Ping/pong key buffers plus the three pass tables
	var bufs [2]device.Buffer
	for i := range bufs {
		var err error
		bufs[i], err = self.dev.NewBuffer(keyBytes)
		if err != nil {
			return nil, errors.Wrapf(err, "Couldn't allocate key buffer %v", i)
		}
		defer self.dev.Free(bufs[i])
	}

	ghBuf, err := self.dev.NewBuffer(ghBytes)
	if err != nil {
		return nil, errors.Wrap(err, "Couldn't allocate histogram buffer")
	}
	defer self.dev.Free(ghBuf)

	pgBuf, err := self.dev.NewBuffer(pgBytes)
	if err != nil {
		return nil, errors.Wrap(err, "Couldn't allocate digit prefix buffer")
	}
	defer self.dev.Free(pgBuf)

	goBuf, err := self.dev.NewBuffer(ghBytes)
	if err != nil {
		return nil, errors.Wrap(err, "Couldn't allocate group offset buffer")
	}
	defer self.dev.Free(goBuf)

	tx := time.Now()
	if err := self.dev.Upload(bufs[0], data.ToBytes(keys)); err != nil {
		return nil, errors.Wrap(err, "Couldn't upload input keys")
	}
	timing.Transfer += time.Since(tx)

	// Host scratch. All of it is fully rewritten every pass, nothing is
	// carried across pass boundaries.
	gh := make([]uint32, ngroup*Radix)
	bt := make([]uint32, Radix)
	pg := make([]uint32, Radix)
	goTab := make([]uint32, ngroup*Radix)
	zero := make([]byte, ghBytes)
	ghRaw := make([]byte, ghBytes)
	pgRaw := make([]byte, pgBytes)
	goRaw := make([]byte, ghBytes)

	// cur is the index of the buffer holding the current ordering. It flips
	// after every pass; nothing below assumes where it ends up.
	cur := 0
	for pass := 0; pass < Passes; pass++ {
		shift := (uint)(pass * Bits)
		src := bufs[cur]
		dst := bufs[1-cur]

		self.log.WithFields(logrus.Fields{"pass": pass, "shift": shift}).Debug("Radix pass")

		tx = time.Now()
		if err := self.dev.Upload(ghBuf, zero); err != nil {
			return nil, errors.Wrapf(err, "Pass %v: couldn't reset group histograms", pass)
		}
		timing.Transfer += time.Since(tx)

		step := time.Now()
		if err := self.dev.Launch("radix_histogram", grid, histogramKernel(n, shift), src, ghBuf); err != nil {
			return nil, errors.Wrapf(err, "Pass %v: histogram stage failed", pass)
		}
		timing.Histogram += time.Since(step)

		tx = time.Now()
		if err := self.dev.Download(ghRaw, ghBuf); err != nil {
			return nil, errors.Wrapf(err, "Pass %v: couldn't fetch group histograms", pass)
		}
		timing.Transfer += time.Since(tx)

		step = time.Now()
		decodeCounts(gh, ghRaw)
		bucketTotals(bt, gh, ngroup)
		globalPrefix(pg, bt)
		groupOffsets(goTab, gh, ngroup)
		encodeCounts(pgRaw, pg)
		encodeCounts(goRaw, goTab)
		timing.Offsets += time.Since(step)

		tx = time.Now()
		if err := self.dev.Upload(pgBuf, pgRaw); err != nil {
			return nil, errors.Wrapf(err, "Pass %v: couldn't upload digit prefixes", pass)
		}
		if err := self.dev.Upload(goBuf, goRaw); err != nil {
			return nil, errors.Wrapf(err, "Pass %v: couldn't upload group offsets", pass)
		}
		timing.Transfer += time.Since(tx)

		step = time.Now()
		if err := self.dev.Launch("radix_scatter", grid, scatterKernel(n, shift), src, dst, pgBuf, goBuf); err != nil {
			return nil, errors.Wrapf(err, "Pass %v: scatter stage failed", pass)
		}
		timing.Scatter += time.Since(step)

		cur = 1 - cur
	}

	// cur flipped after the last scatter, so bufs[cur] holds the final
	// ordering.
	outRaw := make([]byte, keyBytes)
	tx = time.Now()
	if err := self.dev.Download(outRaw, bufs[cur]); err != nil {
		return nil, errors.Wrap(err, "Couldn't download sorted keys")
	}
	timing.Transfer += time.Since(tx)

	out, err := data.FromBytes(outRaw)
	if err != nil {
		return nil, errors.Wrap(err, "Couldn't decode sorted keys")
	}

	endXfer := self.dev.Transfers()
	timing.Total = time.Since(begin)

	res := &Result{
		Keys: out,
		Transfers: device.Transfers{
			HostToDevice: endXfer.HostToDevice - startXfer.HostToDevice,
			DeviceToHost: endXfer.DeviceToHost - startXfer.DeviceToHost,
		},
		Timing: timing,
	}

	self.log.WithFields(logrus.Fields{
		"n":            n,
		"hostToDevice": res.Transfers.HostToDevice,
		"deviceToHost": res.Transfers.DeviceToHost,
		"elapsed":      timing.Total,
	}).Debug("Device sort complete")

	return res, nil
}
