package benchmark

import (
	"github.com/pkg/errors"

	"github.com/mikegeo98/cloud-sort/pkg/data"
	"github.com/mikegeo98/cloud-sort/pkg/device"
	"github.com/mikegeo98/cloud-sort/pkg/radix"
)

// BenchDeviceOne runs one verified device sort of keys. The end to end time
// lands in TTotal, the sorter's own phase breakdown in THistogram, TOffsets,
// TScatter and TTransfer. Returns the bytes the run moved.
func BenchDeviceOne(sorter *radix.Sorter, keys []uint64, stats SortStats) (device.Transfers, error) {
	TTotal := stats.Timer("TTotal")

	TTotal.Start()
	res, err := sorter.Sort(keys)
	TTotal.Record()
	if err != nil {
		return device.Transfers{}, err
	}

	if err := radix.CheckSort(keys, res.Keys); err != nil {
		return res.Transfers, errors.Wrap(err, "Sorted wrong")
	}

	stats.Timer("THistogram").Observe(res.Timing.Histogram)
	stats.Timer("TOffsets").Observe(res.Timing.Offsets)
	stats.Timer("TScatter").Observe(res.Timing.Scatter)
	stats.Timer("TTransfer").Observe(res.Timing.Transfer)

	return res.Transfers, nil
}

// BenchDeviceAll runs the device sort repeat times over one random dataset.
// Every repetition is verified. Also returns the bytes a single run moved
// (identical for every repetition of the same dataset).
func BenchDeviceAll(dev device.Device, nelem int, repeat int, seed int64) (SortStats, device.Transfers, error) {
	stats := make(SortStats)

	sorter, err := radix.NewSorter(dev, nil)
	if err != nil {
		return stats, device.Transfers{}, errors.Wrap(err, "Couldn't prepare sorter")
	}

	keys := data.RandomKeys(nelem, seed)

	var moved device.Transfers
	for i := 0; i < repeat; i++ {
		moved, err = BenchDeviceOne(sorter, keys, stats)
		if err != nil {
			return stats, moved, errors.Wrapf(err, "Device repetition %v failed", i)
		}
	}
	return stats, moved, nil
}

// BenchLocalOne runs one verified sort on the single-threaded host baseline.
func BenchLocalOne(keys []uint64, stats SortStats) error {
	TTotal := stats.Timer("TTotal")

	TTotal.Start()
	out := radix.SortLocal(keys)
	TTotal.Record()

	if err := radix.CheckSort(keys, out); err != nil {
		return errors.Wrap(err, "Sorted wrong")
	}
	return nil
}

// BenchLocalAll runs the host baseline repeat times over one random dataset.
func BenchLocalAll(nelem int, repeat int, seed int64) (SortStats, error) {
	stats := make(SortStats)
	keys := data.RandomKeys(nelem, seed)

	for i := 0; i < repeat; i++ {
		if err := BenchLocalOne(keys, stats); err != nil {
			return stats, errors.Wrapf(err, "Local repetition %v failed", i)
		}
	}
	return stats, nil
}

// Summary bundles everything one benchmark invocation produced.
type Summary struct {
	NElem           int
	Repeat          int
	Suites          map[string]SortStats
	DeviceTransfers device.Transfers
}

// RunBenchmarks runs the device suite and, when withLocal is set, the host
// baseline suite for comparison. Even on error the returned summary holds
// whatever completed before the failure.
func RunBenchmarks(dev device.Device, nelem int, repeat int, seed int64, withLocal bool) (*Summary, error) {
	summary := &Summary{
		NElem:  nelem,
		Repeat: repeat,
		Suites: make(map[string]SortStats),
	}

	devStats, moved, err := BenchDeviceAll(dev, nelem, repeat, seed)
	summary.Suites["Device"] = devStats
	summary.DeviceTransfers = moved
	if err != nil {
		return summary, errors.Wrap(err, "Failed to benchmark device sort")
	}

	if withLocal {
		localStats, err := BenchLocalAll(nelem, repeat, seed)
		summary.Suites["Local"] = localStats
		if err != nil {
			return summary, errors.Wrap(err, "Failed to benchmark local sort")
		}
	}

	return summary, nil
}
