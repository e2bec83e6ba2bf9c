package radix

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/mikegeo98/cloud-sort/pkg/data"
	"github.com/mikegeo98/cloud-sort/pkg/device"
)

func openTestDevice(t *testing.T) device.Device {
	dev, err := device.Open("pool", device.Config{})
	require.Nil(t, err, "Failed to open pool device")
	t.Cleanup(func() { dev.Close() })
	return dev
}

func TestSorterPool(t *testing.T) {
	SorterSuite(t, openTestDevice(t))
}

func TestSorterLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping large sort in short mode")
	}

	nelem := 1 << 20
	keys := data.RandomKeys(nelem, 7)

	sorter, err := NewSorter(openTestDevice(t), nil)
	require.Nil(t, err, "Failed to build sorter")

	res, err := sorter.Sort(keys)
	require.Nil(t, err, "Sort failed")
	require.Nil(t, CheckSort(keys, res.Keys), "Sorted wrong")
}

func TestSorterTransferAccounting(t *testing.T) {
	nelem := 1021
	ngroup := numGroups(nelem)
	keyBytes := (uint64)(nelem * data.KeyBytes)
	ghBytes := (uint64)(ngroup * Radix * countBytes)
	pgBytes := (uint64)(Radix * countBytes)

	// Up: the input keys once, then per pass the histogram reset, the digit
	// prefixes, and the group offsets. Down: per pass the histograms, then
	// the sorted keys once.
	wantUp := keyBytes + Passes*(ghBytes+pgBytes+ghBytes)
	wantDown := Passes*ghBytes + keyBytes

	dev := openTestDevice(t)
	sorter, err := NewSorter(dev, nil)
	require.Nil(t, err, "Failed to build sorter")

	keys := data.RandomKeys(nelem, 3)
	res, err := sorter.Sort(keys)
	require.Nil(t, err, "Sort failed")
	require.Equal(t, wantUp, res.Transfers.HostToDevice, "Wrong host to device byte count")
	require.Equal(t, wantDown, res.Transfers.DeviceToHost, "Wrong device to host byte count")

	// The device counters never reset, but each run reports only its own
	// bytes.
	res2, err := sorter.Sort(keys)
	require.Nil(t, err, "Second sort failed")
	require.Equal(t, wantUp, res2.Transfers.HostToDevice, "Second run reported foreign bytes")
	require.Equal(t, wantDown, res2.Transfers.DeviceToHost, "Second run reported foreign bytes")

	total := dev.Transfers()
	require.Equal(t, 2*wantUp, total.HostToDevice, "Device total lost bytes")
	require.Equal(t, 2*wantDown, total.DeviceToHost, "Device total lost bytes")
}

func TestNewSorterNoDevice(t *testing.T) {
	_, err := NewSorter(nil, nil)
	require.NotNil(t, err, "Sorter built without a device")
	require.Equal(t, ErrStageBuild, errors.Cause(err), "Wrong failure class")
}

func TestSorterClosedDevice(t *testing.T) {
	dev, err := device.Open("pool", device.Config{})
	require.Nil(t, err, "Failed to open pool device")

	sorter, err := NewSorter(dev, nil)
	require.Nil(t, err, "Failed to build sorter")
	require.Nil(t, dev.Close(), "Close failed")

	_, err = sorter.Sort(data.RandomKeys(256, 1))
	require.NotNil(t, err, "Sort succeeded on a closed device")
	require.Equal(t, device.ErrTransfer, errors.Cause(err), "Wrong failure class")
}
