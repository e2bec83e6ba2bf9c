package radix

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikegeo98/cloud-sort/pkg/data"
	"github.com/mikegeo98/cloud-sort/pkg/device"
)

// SorterSuite runs the standard correctness battery against dev. Device
// backends outside this package reuse it as their conformance test.
func SorterSuite(t *testing.T, dev device.Device) {
	sorter, err := NewSorter(dev, nil)
	require.Nil(t, err, "Failed to build sorter")

	t.Run("Empty", func(t *testing.T) {
		res, err := sorter.Sort([]uint64{})
		require.Nil(t, err, "Empty sort failed")
		require.Empty(t, res.Keys, "Empty sort returned keys")
		require.Zero(t, res.Transfers.HostToDevice, "Empty sort moved bytes to the device")
		require.Zero(t, res.Transfers.DeviceToHost, "Empty sort moved bytes from the device")
	})

	t.Run("Single", func(t *testing.T) {
		res, err := sorter.Sort([]uint64{42})
		require.Nil(t, err, "Single key sort failed")
		require.Equal(t, []uint64{42}, res.Keys, "Single key came back wrong")
	})

	t.Run("Fixed", func(t *testing.T) {
		res, err := sorter.Sort([]uint64{5, 3, 3, 1})
		require.Nil(t, err, "Fixed sort failed")
		require.Equal(t, []uint64{1, 3, 3, 5}, res.Keys, "Fixed case sorted wrong")
	})

	t.Run("Random", func(t *testing.T) {
		// Sizes around the group width pick up the partially filled final
		// group; 1021 and 1111 are odd in both senses.
		for _, n := range []int{255, 256, 257, 1021, 1111, 4096} {
			keys := data.RandomKeys(n, (int64)(n))
			res, err := sorter.Sort(keys)
			require.Nilf(t, err, "Sort failed for n=%v", n)
			require.Nilf(t, CheckSort(keys, res.Keys), "Sorted wrong for n=%v", n)
		}
	})

	t.Run("InputUntouched", func(t *testing.T) {
		keys := data.RandomKeys(512, 1)
		orig := make([]uint64, len(keys))
		copy(orig, keys)

		_, err := sorter.Sort(keys)
		require.Nil(t, err, "Sort failed")
		require.Equal(t, orig, keys, "Sort modified its input")
	})

	t.Run("Stable", func(t *testing.T) {
		StabilityCheck(t, sorter, 4096, 64)
	})
}

// StabilityCheck sorts keys whose low bits carry their original index and
// whose high bits repeat among only nval distinct values, then requires the
// indices to still ascend within every run of equal values.
func StabilityCheck(t *testing.T, sorter *Sorter, n int, nval int) {
	const tagBits = 20
	require.Less(t, n, 1<<tagBits, "Too many keys for the index tag")

	rnd := rand.New(rand.NewSource(0))
	keys := make([]uint64, n)
	for i := 0; i < n; i++ {
		keys[i] = (uint64)(rnd.Intn(nval))<<tagBits | (uint64)(i)
	}

	res, err := sorter.Sort(keys)
	require.Nil(t, err, "Sort failed")
	require.Nil(t, CheckSort(keys, res.Keys), "Sorted wrong")

	mask := (uint64)(1<<tagBits) - 1
	for i := 1; i < n; i++ {
		if res.Keys[i]>>tagBits == res.Keys[i-1]>>tagBits {
			require.Lessf(t, res.Keys[i-1]&mask, res.Keys[i]&mask,
				"Equal values out of arrival order at %v", i)
		}
	}
}
