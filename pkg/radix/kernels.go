package radix

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/mikegeo98/cloud-sort/pkg/data"
	"github.com/mikegeo98/cloud-sort/pkg/device"
)

// Counts cross the device boundary as little endian uint32, 4 bytes each.
const countBytes = 4

func digitOf(key uint64, shift uint) int {
	return (int)((key >> shift) & (Radix - 1))
}

// histogramKernel builds the histogram stage for one pass. Each group counts
// the digit occurrences of its own GroupSize keys into a local table, then
// flushes the table to its private row of the histogram buffer. Lanes past
// the end of the data are inert. Buffers: src keys, group histograms.
func histogramKernel(n int, shift uint) device.KernelFunc {
	return func(run *device.GroupRun) error {
		if run.Grid.GroupSize != GroupSize {
			return errors.Errorf("Grid group size %v does not match stage width %v", run.Grid.GroupSize, GroupSize)
		}
		src := run.Bufs[0]
		gh := run.Bufs[1]

		var local [Radix]uint32
		base := run.Group * GroupSize
		for lane := 0; lane < GroupSize; lane++ {
			i := base + lane
			if i >= n {
				continue
			}
			key := binary.LittleEndian.Uint64(src[i*data.KeyBytes:])
			local[digitOf(key, shift)]++
		}

		row := run.Group * Radix
		for d := 0; d < Radix; d++ {
			binary.LittleEndian.PutUint32(gh[(row+d)*countBytes:], local[d])
		}
		return nil
	}
}

// scatterKernel builds the scatter stage for one pass. Phase one ranks every
// in-bounds lane among the group's same-digit lanes in lane order; phase two
// places each key at pg[d] + go[group][d] + rank. All ranking completes
// before any write happens, and groups write disjoint destination slots, so
// the placement is deterministic and keeps equal digits in arrival order.
// Buffers: src keys, dst keys, digit prefix table, group offset table.
func scatterKernel(n int, shift uint) device.KernelFunc {
	return func(run *device.GroupRun) error {
		if run.Grid.GroupSize != GroupSize {
			return errors.Errorf("Grid group size %v does not match stage width %v", run.Grid.GroupSize, GroupSize)
		}
		src := run.Bufs[0]
		dst := run.Bufs[1]
		pg := run.Bufs[2]
		goTab := run.Bufs[3]

		var keys [GroupSize]uint64
		var digit [GroupSize]int
		var rank [GroupSize]uint32
		var seen [Radix]uint32

		base := run.Group * GroupSize
		for lane := 0; lane < GroupSize; lane++ {
			i := base + lane
			if i >= n {
				digit[lane] = -1
				continue
			}
			keys[lane] = binary.LittleEndian.Uint64(src[i*data.KeyBytes:])
			d := digitOf(keys[lane], shift)
			digit[lane] = d
			rank[lane] = seen[d]
			seen[d]++
		}

		for lane := 0; lane < GroupSize; lane++ {
			d := digit[lane]
			if d < 0 {
				continue
			}
			pgD := binary.LittleEndian.Uint32(pg[d*countBytes:])
			goGD := binary.LittleEndian.Uint32(goTab[(run.Group*Radix+d)*countBytes:])
			pos := (int)(pgD) + (int)(goGD) + (int)(rank[lane])
			binary.LittleEndian.PutUint64(dst[pos*data.KeyBytes:], keys[lane])
		}
		return nil
	}
}

func encodeCounts(dst []byte, counts []uint32) {
	for i, c := range counts {
		binary.LittleEndian.PutUint32(dst[i*countBytes:], c)
	}
}

func decodeCounts(dst []uint32, raw []byte) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(raw[i*countBytes:])
	}
}
